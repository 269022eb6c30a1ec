package convert_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tether/internal/adapters/objgraph"
	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/engine/convert"
)

var (
	stringType = reflect.TypeFor[string]()
	intType    = reflect.TypeFor[int]()
	anyType    = reflect.TypeFor[any]()
)

type contextConverter struct{}

func (contextConverter) Convert(values []any, _ reflect.Type, _ any) (any, error) {
	return "from context", nil
}

type asyncConverter struct{}

func (asyncConverter) ConvertAsync(ctx context.Context, values []any, _ reflect.Type, _ any) (any, error) {
	return domain.NewPromise(ctx, func(context.Context) (any, error) {
		return len(values), nil
	}), nil
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name      string
		values    []any
		target    reflect.Type
		parameter any
		want      any
	}{
		{"concat", []any{"foo", "bar"}, stringType, nil, "foobar"},
		{"concat", []any{"a", nil, 3}, stringType, "-", "a--3"},
		{"upper", []any{"shout"}, stringType, nil, "SHOUT"},
		{"not", []any{true}, anyType, nil, false},
		{"not", []any{nil}, anyType, nil, true},
		{"sum", []any{1, 2, "3"}, intType, nil, 6},
		{"sum", []any{1, 2.5}, anyType, nil, 3.5},
		{"sum", []any{1, 2}, stringType, nil, "3"},
		{"coalesce", []any{nil, domain.NewExceptionValue(errors.New("x")), "c"}, stringType, nil, "c"},
		{"format", []any{"ada", 36}, stringType, "%s is %d", "ada is 36"},
	}

	registry := convert.Builtins()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := convert.Resolve(domain.Ref{Name: tt.name}, tt.parameter, registry, nil, nil)
			require.True(t, ok)
			assert.Equal(t, tt.want, p.Convert(tt.values, tt.target))
		})
	}
	assert.Equal(t, []string{"coalesce", "concat", "format", "not", "sum", "upper"}, registry.Names())
}

func TestConvert_FailuresBecomeExceptionValues(t *testing.T) {
	failing := convert.Func(func([]any, reflect.Type, any) (any, error) {
		return nil, errors.New("bad input")
	})
	panicking := convert.Func(func([]any, reflect.Type, any) (any, error) {
		panic("kaboom")
	})

	for name, c := range map[string]convert.Func{"error": failing, "panic": panicking} {
		t.Run(name, func(t *testing.T) {
			p, ok := convert.New(c, nil)
			require.True(t, ok)
			ev, isExc := domain.AsException(p.Convert([]any{1}, anyType))
			require.True(t, isExc)
			assert.ErrorIs(t, ev, domain.ErrConverterFailed)
		})
	}

	p, _ := convert.New(convert.Sum(), nil)
	ev, isExc := domain.AsException(p.Convert([]any{"not a number"}, anyType))
	require.True(t, isExc)
	assert.ErrorIs(t, ev, domain.ErrTypeMismatch)

	p, _ = convert.New(convert.Format(), 42)
	_, isExc = domain.AsException(p.Convert(nil, stringType))
	assert.True(t, isExc)

	upstream := domain.NewExceptionValue(errors.New("upstream"))
	p, _ = convert.New(convert.Concat(), nil)
	assert.Equal(t, upstream, p.Convert([]any{"a", upstream}, stringType), "an upstream error passes through unchanged")
}

func TestConvertBack(t *testing.T) {
	p, _ := convert.New(convert.Concat(), " ")
	require.True(t, p.CanConvertBack())

	out, err := p.ConvertBack("ada 36", []reflect.Type{stringType, intType})
	require.NoError(t, err)
	assert.Equal(t, []any{"ada", 36}, out)

	noSep, _ := convert.New(convert.Concat(), nil)
	_, err = noSep.ConvertBack("ab", []reflect.Type{stringType, stringType})
	require.ErrorIs(t, err, domain.ErrConverterMissing)

	forwardOnly, _ := convert.New(convert.Upper(), nil)
	assert.False(t, forwardOnly.CanConvertBack())
	_, err = forwardOnly.ConvertBack("X", []reflect.Type{stringType})
	require.ErrorIs(t, err, domain.ErrConverterMissing)

	wrongArity, _ := convert.New(convert.Pair{
		Forward: func([]any, reflect.Type, any) (any, error) { return nil, nil },
		Back: func(any, []reflect.Type, any) ([]any, error) {
			return []any{1}, nil
		},
	}, nil)
	_, err = wrongArity.ConvertBack(1, []reflect.Type{intType, intType})
	require.ErrorIs(t, err, domain.ErrConverterArity)

	panicking, _ := convert.New(convert.Pair{
		Forward: func([]any, reflect.Type, any) (any, error) { return nil, nil },
		Back:    func(any, []reflect.Type, any) ([]any, error) { panic("back") },
	}, nil)
	_, err = panicking.ConvertBack(1, []reflect.Type{intType})
	require.ErrorIs(t, err, domain.ErrConverterFailed)

	failing, _ := convert.New(convert.Pair{
		Forward: func([]any, reflect.Type, any) (any, error) { return nil, nil },
		Back:    func(any, []reflect.Type, any) ([]any, error) { return nil, errors.New("nope") },
	}, nil)
	_, err = failing.ConvertBack(1, []reflect.Type{intType})
	require.ErrorIs(t, err, domain.ErrConverterFailed)
	assert.ErrorContains(t, err, "nope")
}

func TestNotRoundTrip(t *testing.T) {
	p, _ := convert.New(convert.Not(), nil)
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("back(forward(x)) == x", prop.ForAll(
		func(x bool) bool {
			forward := p.Convert([]any{x}, anyType)
			back, err := p.ConvertBack(forward, []reflect.Type{reflect.TypeFor[bool]()})
			return err == nil && back[0] == x
		},
		gen.Bool(),
	))

	properties.Property("concat splits what it joined", prop.ForAll(
		func(a, b string) bool {
			c, _ := convert.New(convert.Concat(), "|")
			joined := c.Convert([]any{a, b}, stringType)
			back, err := c.ConvertBack(joined, []reflect.Type{stringType, stringType})
			return err == nil && back[0] == a && back[1] == b
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

func TestResolveTiers(t *testing.T) {
	registry := convert.Builtins()
	explicit := convert.Upper()
	dc := objgraph.NewObject(map[string]any{
		"Converters": objgraph.NewObject(map[string]any{"Shout": explicit}),
	})

	p, ok := convert.Resolve(domain.Ref{Instance: convert.Sum(), Name: "upper"}, nil, registry, nil, dc)
	require.True(t, ok)
	assert.Equal(t, 3, p.Convert([]any{1, 2}, intType), "an explicit instance wins")

	p, ok = convert.Resolve(domain.Ref{Name: "upper"}, nil, registry, nil, dc)
	require.True(t, ok)
	assert.Equal(t, "upper", p.Name())

	p, ok = convert.Resolve(domain.Ref{Path: "Converters.Shout"}, nil, registry, nil, dc)
	require.True(t, ok)
	assert.Equal(t, "HI", p.Convert([]any{"hi"}, stringType))

	_, ok = convert.Resolve(domain.Ref{Path: "Converters.Missing"}, nil, registry, nil, dc)
	assert.False(t, ok, "the data context is not a converter")

	p, ok = convert.Resolve(domain.Ref{}, nil, registry, nil, contextConverter{})
	require.True(t, ok)
	assert.Equal(t, "from context", p.Convert(nil, stringType))

	_, ok = convert.Resolve(domain.Ref{Name: "unknown"}, nil, registry, nil, nil)
	assert.False(t, ok)
}

func TestConvertAsync(t *testing.T) {
	ctx := context.Background()
	p, ok := convert.New(asyncConverter{}, nil)
	require.True(t, ok)
	assert.True(t, p.IsAsync())
	assert.Equal(t, 2, p.ConvertAsync(ctx, []any{"a", "b"}, anyType))
	assert.Equal(t, 1, p.Convert([]any{"a"}, anyType), "the sync path falls back to the async converter")

	sync, _ := convert.New(convert.Upper(), nil)
	assert.Equal(t, "X", sync.ConvertAsync(ctx, []any{"x"}, stringType))

	_, ok = convert.New(struct{}{}, nil)
	assert.False(t, ok)
}

func TestCoerce(t *testing.T) {
	v, err := convert.Coerce("42", intType)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = convert.Coerce(nil, intType)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = convert.Coerce("forty", intType)
	require.ErrorIs(t, err, domain.ErrTypeMismatch)
}
