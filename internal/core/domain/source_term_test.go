package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tether/internal/core/domain"
)

func TestSplitSources(t *testing.T) {
	assert.Equal(t, []string{"A.Name", "B.Name"}, domain.SplitSources(" A.Name ; ;B.Name;"))
	assert.Empty(t, domain.SplitSources(" ; ; "))
}

func TestParseSourceTerms(t *testing.T) {
	terms := domain.ParseSourceTerms("A.Name; $[[self].Width]; $[[btn].@Click]; $[[].Y]; a]")
	require.Len(t, terms, 5)

	assert.Equal(t, domain.SourceViewModel, terms[0].Kind())
	assert.Equal(t, []string{"A", "Name"}, terms[0].Path().Segments)

	assert.Equal(t, domain.SourceNodeProperty, terms[1].Kind())
	assert.True(t, terms[1].Reference().Self)

	assert.Equal(t, domain.SourceNodeEvent, terms[2].Kind())
	assert.Equal(t, "Click", terms[2].Reference().Property)

	for _, bad := range terms[3:] {
		assert.Equal(t, domain.SourceInvalid, bad.Kind())
		assert.False(t, bad.IsValid())
		assert.ErrorIs(t, bad.Err(), domain.ErrInvalidPath)
	}
	assert.Equal(t, "$[[].Y]", terms[3].Raw())
}

func TestSourceKind_String(t *testing.T) {
	assert.Equal(t, "view-model", domain.SourceViewModel.String())
	assert.Equal(t, "node-property", domain.SourceNodeProperty.String())
	assert.Equal(t, "node-event", domain.SourceNodeEvent.String())
	assert.Equal(t, "invalid", domain.SourceInvalid.String())
}
