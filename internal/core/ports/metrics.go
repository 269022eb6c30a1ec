package ports

import "go.trai.ch/tether/internal/core/domain"

// UpdateOutcome classifies a propagated update for metrics.
type UpdateOutcome string

const (
	// OutcomeApplied means the value was written.
	OutcomeApplied UpdateOutcome = "applied"
	// OutcomeVetoed means a notification filter handled the update.
	OutcomeVetoed UpdateOutcome = "vetoed"
	// OutcomeSkipped means the write was skipped by the type gate or a stale commit.
	OutcomeSkipped UpdateOutcome = "skipped"
	// OutcomeFailed means the write was rejected.
	OutcomeFailed UpdateOutcome = "failed"
)

// Metrics records engine activity.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// Update records one propagated update.
	Update(direction domain.Direction, outcome UpdateOutcome)
	// CacheLookup records one cache lookup.
	CacheLookup(hit bool)
	// Resubscribe records a chain re-subscription caused by an intermediate hop change.
	Resubscribe()
}
