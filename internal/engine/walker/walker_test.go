package walker_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/engine/accessor"
	"go.trai.ch/tether/internal/engine/walker"
)

type leaf struct {
	Name string
}

type branch struct {
	Leaf  *leaf
	Items []*leaf
}

type root struct {
	Branch *branch
}

func hopNames(hops []domain.Hop) []string {
	names := make([]string, len(hops))
	for i, h := range hops {
		names[i] = h.Name
	}
	return names
}

func TestWalk(t *testing.T) {
	l := &leaf{Name: "x"}
	b := &branch{Leaf: l, Items: []*leaf{{Name: "i0"}, {Name: "i1"}}}
	r := &root{Branch: b}
	w := walker.New(accessor.NewRegistry())

	hops := slices.Collect(w.Walk(r, domain.MustParsePath("Branch.Leaf.Name")))
	require.Len(t, hops, 3)
	assert.Same(t, r, hops[0].Accessor)
	assert.Same(t, b, hops[1].Accessor)
	assert.Same(t, l, hops[2].Accessor)
	assert.Equal(t, []string{"Branch", "Leaf", "Name"}, hopNames(hops))

	hops = slices.Collect(w.Walk(r, domain.MustParsePath("Branch.Items[1].Name")))
	require.Len(t, hops, 4)
	assert.Same(t, b.Items[1], hops[3].Accessor)
}

func TestWalk_StopsAtNilIntermediate(t *testing.T) {
	r := &root{Branch: &branch{}}
	w := walker.New(nil)

	hops := slices.Collect(w.Walk(r, domain.MustParsePath("Branch.Leaf.Name")))
	assert.Equal(t, []string{"Branch", "Leaf"}, hopNames(hops))

	_, ok := w.Last(r, domain.MustParsePath("Branch.Leaf.Name"))
	assert.False(t, ok)

	assert.Empty(t, slices.Collect(w.Walk(nil, domain.MustParsePath("Branch"))))
}

func TestWalk_StopsAtUnreadableIntermediate(t *testing.T) {
	w := walker.New(nil)

	hops := slices.Collect(w.Walk(&root{Branch: &branch{}}, domain.MustParsePath("Missing.Leaf.Name")))
	assert.Equal(t, []string{"Missing"}, hopNames(hops))
}

func TestWalk_ReResolvesEveryTime(t *testing.T) {
	first := &leaf{Name: "first"}
	r := &root{Branch: &branch{Leaf: first}}
	path := domain.MustParsePath("Branch.Leaf.Name")

	hop, ok := walker.Last(r, path)
	require.True(t, ok)
	assert.Same(t, first, hop.Accessor)

	second := &leaf{Name: "second"}
	r.Branch.Leaf = second

	hop, ok = walker.Last(r, path)
	require.True(t, ok)
	assert.Same(t, second, hop.Accessor)
	assert.Equal(t, "Name", hop.Name)
}

func TestWalk_EarlyBreak(t *testing.T) {
	r := &root{Branch: &branch{Leaf: &leaf{}}}

	n := 0
	for range walker.Walk(r, domain.MustParsePath("Branch.Leaf.Name")) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestResolve(t *testing.T) {
	w := walker.New(nil)
	r := &root{Branch: &branch{Leaf: &leaf{Name: "x"}}}

	v, err := w.Resolve(r, domain.MustParsePath("Branch.Leaf.Name"))
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	r.Branch.Leaf = nil
	v, err = w.Resolve(r, domain.MustParsePath("Branch.Leaf.Name"))
	require.NoError(t, err, "a broken chain is not a fault")
	assert.Nil(t, v)

	_, err = w.Resolve(r, domain.MustParsePath("Branch.Nope"))
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)
}
