package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/tether/internal/core/domain"
)

func TestSession(t *testing.T) {
	a := domain.NewSession()
	b := domain.NewSession()

	assert.False(t, a.IsZero())
	assert.NotEqual(t, a, b)
	assert.True(t, domain.NoSession.IsZero())
	assert.Len(t, a.String(), 36)
}

func TestChangeEvent_Affects(t *testing.T) {
	assert.True(t, domain.ChangeEvent{Property: "Name"}.Affects("Name"))
	assert.False(t, domain.ChangeEvent{Property: "Age"}.Affects("Name"))
	assert.True(t, domain.ChangeEvent{Property: domain.AllProperties}.Affects("Name"))
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "to_target", domain.ToTarget.String())
	assert.Equal(t, "to_source", domain.ToSource.String())
}

func TestSessionContext(t *testing.T) {
	s := domain.NewSession()
	ctx := domain.WithSession(context.Background(), s)

	assert.Equal(t, s, domain.SessionFrom(ctx))
	assert.Equal(t, domain.NoSession, domain.SessionFrom(context.Background()))
}
