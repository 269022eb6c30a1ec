// Package metrics records engine activity as Prometheus counters.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
)

// Registry implements ports.Metrics on a private Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	UpdatesTotal         *prometheus.CounterVec
	CacheLookupsTotal    *prometheus.CounterVec
	ResubscriptionsTotal prometheus.Counter
}

// NewRegistry creates a registry with every engine metric registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	factory := promauto.With(r.registry)

	r.UpdatesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tether_updates_total",
			Help: "Total number of propagated binding updates",
		},
		[]string{"direction", "outcome"},
	)
	r.CacheLookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tether_cache_lookups_total",
			Help: "Total number of property cache lookups",
		},
		[]string{"hit"},
	)
	r.ResubscriptionsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "tether_resubscriptions_total",
			Help: "Total number of chain re-subscriptions after an intermediate hop changed",
		},
	)
	return r
}

// Update records one propagated update.
func (r *Registry) Update(direction domain.Direction, outcome ports.UpdateOutcome) {
	r.UpdatesTotal.WithLabelValues(direction.String(), string(outcome)).Inc()
}

// CacheLookup records one cache lookup.
func (r *Registry) CacheLookup(hit bool) {
	r.CacheLookupsTotal.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

// Resubscribe records a chain re-subscription.
func (r *Registry) Resubscribe() {
	r.ResubscriptionsTotal.Inc()
}

// GetPrometheusRegistry returns the underlying registry for gathering.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
