package domain_test

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tether/internal/core/domain"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Mode
	}{
		{in: "", want: domain.ModeOneWay},
		{in: "Default", want: domain.ModeOneWay},
		{in: "OneWay", want: domain.ModeOneWay},
		{in: "twoway", want: domain.ModeTwoWay},
		{in: " OneTime ", want: domain.ModeOneTime},
		{in: "OneWayToSource", want: domain.ModeOneWayToSource},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := domain.ParseMode("sideways")
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestMode_Tracking(t *testing.T) {
	tests := []struct {
		mode         domain.Mode
		tracksSource bool
		tracksTarget bool
		writesTarget bool
	}{
		{domain.ModeOneWay, true, false, true},
		{domain.ModeTwoWay, true, true, true},
		{domain.ModeOneTime, false, false, true},
		{domain.ModeOneWayToSource, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.tracksSource, tt.mode.TracksSource())
			assert.Equal(t, tt.tracksTarget, tt.mode.TracksTarget())
			assert.Equal(t, tt.writesTarget, tt.mode.WritesTarget())
		})
	}
}

func TestParseCacheStrategy(t *testing.T) {
	got, err := domain.ParseCacheStrategy("simple")
	require.NoError(t, err)
	assert.Equal(t, domain.CacheSimple, got)

	got, err = domain.ParseCacheStrategy("")
	require.NoError(t, err)
	assert.Equal(t, domain.CacheNone, got)

	_, err = domain.ParseCacheStrategy("lru")
	assert.ErrorIs(t, err, domain.ErrInvalidCacheStrategy)
}

func TestNewBindingSpec(t *testing.T) {
	spec, err := domain.NewBindingSpec("A.Name;B.Name", "Text", domain.ModeTwoWay)
	require.NoError(t, err)
	assert.Len(t, spec.Sources, 2)
	assert.Equal(t, "Text", spec.Target)
	assert.True(t, spec.HasResolvableSource())

	for _, empty := range []string{"", "  ", ";;"} {
		_, err := domain.NewBindingSpec(empty, "Text", domain.ModeOneWay)
		assert.ErrorIs(t, err, domain.ErrEmptySources)
	}

	invalid, err := domain.NewBindingSpec("$[[].X]", "Text", domain.ModeOneWay)
	require.NoError(t, err, "syntactically invalid terms degrade instead of failing")
	assert.False(t, invalid.HasResolvableSource())
}

func TestBindingSpec_Substitute(t *testing.T) {
	failure := domain.NewExceptionValue(errors.New("boom"))

	bare := domain.BindingSpec{}
	assert.Equal(t, failure, bare.Substitute(failure))
	assert.True(t, domain.IsUnset(bare.Substitute(nil)))
	assert.True(t, domain.IsUnset(bare.Substitute((*int)(nil))))
	assert.Equal(t, 0, bare.Substitute(0))
	assert.Equal(t, "", bare.Substitute(""))

	configured := domain.BindingSpec{
		NullValue:     domain.Some("n/a"),
		FallbackValue: domain.Some("error"),
	}
	assert.Equal(t, "error", configured.Substitute(failure))
	assert.Equal(t, "error", configured.Substitute(&failure))
	assert.Equal(t, "n/a", configured.Substitute(nil))
	assert.Equal(t, "x", configured.Substitute("x"))

	nilFallback := domain.BindingSpec{FallbackValue: domain.Some(nil)}
	assert.Nil(t, nilFallback.Substitute(failure))
}

func TestBindingSpec_SubstituteLaws(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("failures become the fallback when one is configured", prop.ForAll(
		func(msg, fallback string) bool {
			spec := domain.BindingSpec{FallbackValue: domain.Some(fallback)}
			return spec.Substitute(domain.NewExceptionValue(errors.New(msg))) == fallback
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("failures pass through without a fallback", prop.ForAll(
		func(msg, null string) bool {
			spec := domain.BindingSpec{NullValue: domain.Some(null)}
			ev, ok := domain.AsException(spec.Substitute(domain.NewExceptionValue(errors.New(msg))))
			return ok && ev.Err.Error() == msg
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("present values are never substituted", prop.ForAll(
		func(v, null, fallback string) bool {
			spec := domain.BindingSpec{NullValue: domain.Some(null), FallbackValue: domain.Some(fallback)}
			return spec.Substitute(v) == v
		},
		gen.AnyString(),
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestOptional(t *testing.T) {
	var unset domain.Optional
	_, ok := unset.Get()
	assert.False(t, ok)
	assert.False(t, unset.IsSet())

	v, ok := domain.Some(nil).Get()
	assert.True(t, ok)
	assert.Nil(t, v)

	assert.True(t, domain.Ref{}.IsZero())
	assert.False(t, domain.Ref{Name: "upper"}.IsZero())
}
