package domain_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tether/internal/core/domain"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "single", in: "Name", want: []string{"Name"}},
		{name: "dotted", in: "A.B.C", want: []string{"A", "B", "C"}},
		{name: "empty segments dropped", in: ".A..B.", want: []string{"A", "B"}},
		{name: "whitespace trimmed", in: " A . B ", want: []string{"A", "B"}},
		{name: "index hop", in: "Items[2].Name", want: []string{"Items", "[2]", "Name"}},
		{name: "chained index", in: "Grid[1][2]", want: []string{"Grid", "[1]", "[2]"}},
		{name: "quoted key with dots", in: `Lookup["a.b"].X`, want: []string{"Lookup", `["a.b"]`, "X"}},
		{name: "empty index dropped", in: "Items[].Name", want: []string{"Items", "Name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParsePath(tt.in)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got.Segments); diff != "" {
				t.Errorf("ParsePath(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParsePath_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{name: "empty", in: "", want: domain.ErrEmptyPath},
		{name: "only marks", in: "...", want: domain.ErrEmptyPath},
		{name: "only blanks", in: "  .  ", want: domain.ErrEmptyPath},
		{name: "only empty index", in: "[]", want: domain.ErrEmptyPath},
		{name: "stray bracket", in: "a]", want: domain.ErrInvalidPath},
		{name: "unterminated index", in: "a[1", want: domain.ErrInvalidPath},
		{name: "unterminated quote", in: `a["x]`, want: domain.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParsePath(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPropertyPath_String(t *testing.T) {
	p := domain.MustParsePath("Items[2].Name")
	assert.Equal(t, "Items[2].Name", p.String())
	assert.Equal(t, "Name", p.Last())
	assert.Equal(t, 3, p.Len())
	assert.True(t, domain.PropertyPath{}.IsZero())
	assert.Empty(t, domain.PropertyPath{}.Last())
}

func TestIndexKey(t *testing.T) {
	assert.Equal(t, "2", domain.IndexKey("[2]"))
	assert.Equal(t, "a.b", domain.IndexKey(`["a.b"]`))
	assert.Equal(t, "key", domain.IndexKey("[key]"))
	assert.Equal(t, "plain", domain.IndexKey("plain"))
	assert.True(t, domain.IsIndexSegment("[0]"))
	assert.False(t, domain.IsIndexSegment("Items"))
}

func TestParsePath_RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("joined identifiers parse back to the same segments", prop.ForAll(
		func(segments []string) bool {
			p, err := domain.ParsePath(strings.Join(segments, "."))
			if len(segments) == 0 {
				return err != nil
			}
			return err == nil && cmp.Equal(segments, p.Segments) && p.String() == strings.Join(segments, ".")
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("extra level marks never add segments", prop.ForAll(
		func(segments []string) bool {
			plain, err := domain.ParsePath(strings.Join(segments, "."))
			if err != nil {
				return true
			}
			padded, err := domain.ParsePath("." + strings.Join(segments, "..") + ".")
			return err == nil && cmp.Equal(plain.Segments, padded.Segments)
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}

func TestParseNodeReference(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		want     domain.NodeReference
		optional []string
	}{
		{
			name: "self",
			in:   "$[[self].Width]",
			want: domain.NodeReference{Source: "self", Self: true, Property: "Width"},
		},
		{
			name: "self is case insensitive",
			in:   "$[[Self].Width]",
			want: domain.NodeReference{Source: "Self", Self: true, Property: "Width"},
		},
		{
			name: "type and depth",
			in:   "$[[ListBoxItem/2].IsSelected]",
			want: domain.NodeReference{Source: "ListBoxItem/2", TypeName: "ListBoxItem", Depth: 2, Property: "IsSelected"},
		},
		{
			name: "named element",
			in:   "$[[Nope].X]",
			want: domain.NodeReference{Source: "Nope", Name: "Nope", Property: "X"},
		},
		{
			name:     "optional path",
			in:       "$[[box].Text.Length]",
			want:     domain.NodeReference{Source: "box", Name: "box", Property: "Text"},
			optional: []string{"Length"},
		},
		{
			name: "event",
			in:   "$[[okButton].@Click]",
			want: domain.NodeReference{Source: "okButton", Name: "okButton", Property: "Click", Event: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ParseNodeReference(tt.in)
			require.True(t, got.IsValid())
			assert.Equal(t, tt.in, got.Raw)
			assert.Equal(t, tt.want.Source, got.Source)
			assert.Equal(t, tt.want.Self, got.Self)
			assert.Equal(t, tt.want.TypeName, got.TypeName)
			assert.Equal(t, tt.want.Depth, got.Depth)
			assert.Equal(t, tt.want.Name, got.Name)
			assert.Equal(t, tt.want.Property, got.Property)
			assert.Equal(t, tt.want.Event, got.Event)
			assert.Equal(t, tt.optional, got.OptionalPath.Segments)
		})
	}
}

func TestParseNodeReference_Invalid(t *testing.T) {
	for _, in := range []string{
		"$[[].X]",
		"$[[box]]",
		"$[[box].]",
		"$[[T/0].X]",
		"$[[T/x].X]",
		"$[[/2].X]",
		"$[[box].@Click.Payload]",
		"$[box].X",
		"box.X",
	} {
		t.Run(in, func(t *testing.T) {
			ref := domain.ParseNodeReference(in)
			assert.False(t, ref.IsValid())
		})
	}
}
