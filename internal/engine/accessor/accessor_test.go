package accessor_test

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/engine/accessor"
	"go.trai.ch/zerr"
)

type address struct {
	City string
}

type person struct {
	Name    string
	Age     int
	Home    *address
	Tags    []string
	Scores  map[string]int
	Pair    [2]int
	private string
	title   string
	faulty  bool
}

func (p *person) Title() string { return p.title }

func (p *person) SetTitle(v string) { p.title = v }

func (p *person) GetNickname() (string, error) {
	if p.Name == "" {
		return "", errors.New("no name")
	}
	return "~" + p.Name, nil
}

func (p *person) Boom() string {
	if p.faulty {
		panic("boom")
	}
	return "ok"
}

func (p *person) SetSecret(v string) { p.private = v }

type dynamic struct {
	values map[string]any
}

func (d *dynamic) GetProperty(name string) (any, bool) {
	v, ok := d.values[name]
	return v, ok
}

func (d *dynamic) SetProperty(name string, value any) error {
	if name == "Locked" {
		return errors.New("locked")
	}
	d.values[name] = value
	return nil
}

func (d *dynamic) PropertyType(name string) (reflect.Type, bool) {
	if name == "Count" {
		return reflect.TypeFor[int](), true
	}
	return nil, false
}

func TestRegistry_Get(t *testing.T) {
	p := &person{
		Name:   "ada",
		Age:    36,
		Home:   &address{City: "London"},
		Tags:   []string{"a", "b"},
		Scores: map[string]int{"math": 10},
		Pair:   [2]int{1, 2},
		title:  "countess",
	}

	tests := []struct {
		name     string
		node     any
		property string
		want     any
	}{
		{name: "field", node: p, property: "Name", want: "ada"},
		{name: "lower camel field", node: p, property: "age", want: 36},
		{name: "getter method", node: p, property: "Title", want: "countess"},
		{name: "get prefixed method", node: p, property: "Nickname", want: "~ada"},
		{name: "slice index", node: p.Tags, property: "[1]", want: "b"},
		{name: "map key", node: p.Scores, property: "math", want: 10},
		{name: "map index", node: p.Scores, property: "[math]", want: 10},
		{name: "array index", node: p.Pair, property: "[0]", want: 1},
		{name: "value struct", node: address{City: "Paris"}, property: "City", want: "Paris"},
	}

	reg := accessor.NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Get(tt.node, tt.property)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_GetFailures(t *testing.T) {
	p := &person{Tags: []string{"a"}, faulty: true}

	tests := []struct {
		name     string
		node     any
		property string
		want     error
	}{
		{name: "nil node", node: nil, property: "Name", want: domain.ErrUnresolved},
		{name: "typed nil node", node: (*person)(nil), property: "Name", want: domain.ErrUnresolved},
		{name: "missing property", node: p, property: "Missing", want: domain.ErrPropertyNotFound},
		{name: "unexported field", node: p, property: "private", want: domain.ErrPropertyNotFound},
		{name: "setter only", node: p, property: "Secret", want: domain.ErrNotReadable},
		{name: "index out of range", node: p.Tags, property: "[3]", want: domain.ErrIndexOutOfRange},
		{name: "missing map key", node: map[string]int{}, property: "x", want: domain.ErrPropertyNotFound},
		{name: "panicking getter", node: p, property: "Boom", want: domain.ErrAccessorFault},
	}

	reg := accessor.NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Get(tt.node, tt.property)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			_, ok := reg.TryGet(tt.node, tt.property)
			assert.False(t, ok)
		})
	}
}

func TestRegistry_GetterError(t *testing.T) {
	reg := accessor.NewRegistry()

	_, err := reg.Get(&person{}, "Nickname")
	require.Error(t, err)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "Nickname", zErr.Metadata()["property"])
}

func TestRegistry_Set(t *testing.T) {
	reg := accessor.NewRegistry()
	p := &person{Tags: []string{"a", "b"}, Scores: map[string]int{}}

	require.NoError(t, reg.Set(p, "Name", "grace"))
	require.NoError(t, reg.Set(p, "Title", "admiral"))
	require.NoError(t, reg.Set(p.Tags, "[0]", "z"))
	require.NoError(t, reg.Set(p.Scores, "math", 3))
	require.NoError(t, reg.Set(p, "Home", nil))
	require.NoError(t, reg.Set(p, "Age", domain.Unset))

	assert.Equal(t, "grace", p.Name)
	assert.Equal(t, "admiral", p.title)
	assert.Equal(t, []string{"z", "b"}, p.Tags)
	assert.Equal(t, 3, p.Scores["math"])
	assert.Nil(t, p.Home)
	assert.Zero(t, p.Age)
}

func TestRegistry_SetFailures(t *testing.T) {
	p := &person{Name: "ada"}

	tests := []struct {
		name     string
		node     any
		property string
		value    any
		want     error
	}{
		{name: "type mismatch", node: p, property: "Name", value: 42, want: domain.ErrTypeMismatch},
		{name: "nil into value type", node: p, property: "Age", value: nil, want: domain.ErrTypeMismatch},
		{name: "getter only", node: p, property: "Nickname", value: "x", want: domain.ErrNotWritable},
		{name: "value receiver struct", node: address{}, property: "City", value: "x", want: domain.ErrNotWritable},
		{name: "missing", node: p, property: "Missing", value: "x", want: domain.ErrPropertyNotFound},
		{name: "nil node", node: nil, property: "Name", value: "x", want: domain.ErrUnresolved},
	}

	reg := accessor.NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Set(tt.node, tt.property, tt.value)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, reg.TrySet(tt.node, tt.property, tt.value))
		})
	}

	assert.Equal(t, "ada", p.Name)
}

func TestRegistry_TypeMismatchMetadata(t *testing.T) {
	reg := accessor.NewRegistry()

	err := reg.Set(&person{}, "Name", 42)
	require.Error(t, err)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "string", zErr.Metadata()["expected"])
	assert.Equal(t, "int", zErr.Metadata()["actual"])
}

func TestRegistry_Dynamic(t *testing.T) {
	reg := accessor.NewRegistry()
	d := &dynamic{values: map[string]any{"Name": "dyn", "Count": 2}}

	v, err := reg.Get(d, "Name")
	require.NoError(t, err)
	assert.Equal(t, "dyn", v)

	require.NoError(t, reg.Set(d, "Name", "changed"))
	assert.Equal(t, "changed", d.values["Name"])

	err = reg.Set(d, "Locked", 1)
	require.Error(t, err)

	typ, ok := reg.TypeOf(d, "Count")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[int](), typ)

	typ, ok = reg.TypeOf(d, "Name")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[string](), typ)

	_, err = reg.Get(d, "Missing")
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)
}

func TestRegistry_TypeOf(t *testing.T) {
	reg := accessor.NewRegistry()
	p := &person{}

	typ, ok := reg.TypeOf(p, "Home")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[*address](), typ)

	typ, ok = reg.TypeOf(p, "Title")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[string](), typ)

	typ, ok = reg.TypeOf(p, "Secret")
	require.True(t, ok, "setter-only properties still declare a type")
	assert.Equal(t, reflect.TypeFor[string](), typ)

	_, ok = reg.TypeOf(p, "Missing")
	assert.False(t, ok)

	_, ok = reg.TypeOf(nil, "Name")
	assert.False(t, ok)
}

func TestRegistry_CompilesOncePerTypeAndName(t *testing.T) {
	reg := accessor.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reg.Get(&person{Name: "x"}, "Name")
			_, _ = reg.Get(&address{City: "y"}, "City")
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, reg.Len())
	assert.Same(t, reg.Lookup(reflect.TypeFor[*person](), "Name"), reg.Lookup(reflect.TypeFor[*person](), "Name"))
}
