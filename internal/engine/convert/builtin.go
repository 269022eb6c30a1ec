package convert

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/engine/capability"
	"go.trai.ch/zerr"
)

// Coerce converts v to t with weak typing ("42" becomes 42, 1 becomes "1"). A nil t, a
// nil v or an already assignable v is returned unchanged.
func Coerce(v any, t reflect.Type) (any, error) {
	if t == nil || v == nil || reflect.TypeOf(v).AssignableTo(t) {
		return v, nil
	}
	out := reflect.New(t)
	if err := mapstructure.WeakDecode(v, out.Interface()); err != nil {
		return nil, zerr.With(domain.Annotate(domain.ErrTypeMismatch, "expected", t.String()), "cause", err.Error())
	}
	return out.Elem().Interface(), nil
}

func separator(parameter any) string {
	if s, ok := parameter.(string); ok {
		return s
	}
	return ""
}

func text(v any) string {
	if v == nil || domain.IsUnset(v) {
		return ""
	}
	return fmt.Sprint(v)
}

// Concat joins the textual form of every value, separated by the string parameter. The
// back direction splits on the separator and needs a non-empty one.
func Concat() Pair {
	return Pair{
		Forward: func(values []any, targetType reflect.Type, parameter any) (any, error) {
			parts := make([]string, len(values))
			for i, v := range values {
				if ev, ok := domain.AsException(v); ok {
					return nil, ev
				}
				parts[i] = text(v)
			}
			return Coerce(strings.Join(parts, separator(parameter)), targetType)
		},
		Back: func(value any, sourceTypes []reflect.Type, parameter any) ([]any, error) {
			sep := separator(parameter)
			if sep == "" && len(sourceTypes) > 1 {
				return nil, domain.Annotate(domain.ErrConverterMissing, "converter", "concat")
			}
			parts := strings.SplitN(text(value), sep, len(sourceTypes))
			out := make([]any, len(sourceTypes))
			for i, t := range sourceTypes {
				if i >= len(parts) {
					out[i] = nil
					continue
				}
				v, err := Coerce(parts[i], t)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		},
	}
}

// Upper upper-cases the first value.
func Upper() Func {
	return func(values []any, targetType reflect.Type, _ any) (any, error) {
		if len(values) == 0 {
			return nil, nil
		}
		return Coerce(strings.ToUpper(text(values[0])), targetType)
	}
}

func truth(v any) (bool, error) {
	if v == nil {
		return false, nil
	}
	var b bool
	if err := mapstructure.WeakDecode(v, &b); err != nil {
		return false, zerr.With(domain.Annotate(domain.ErrTypeMismatch, "expected", "bool"), "actual", fmt.Sprintf("%T", v))
	}
	return b, nil
}

// Not negates the first value in both directions.
func Not() Pair {
	return Pair{
		Forward: func(values []any, _ reflect.Type, _ any) (any, error) {
			if len(values) == 0 {
				return true, nil
			}
			b, err := truth(values[0])
			if err != nil {
				return nil, err
			}
			return !b, nil
		},
		Back: func(value any, sourceTypes []reflect.Type, _ any) ([]any, error) {
			b, err := truth(value)
			if err != nil {
				return nil, err
			}
			out := make([]any, len(sourceTypes))
			for i := range out {
				out[i] = !b
			}
			return out, nil
		},
	}
}

// Sum adds the numeric values. Absent values count as zero.
func Sum() Func {
	return func(values []any, targetType reflect.Type, _ any) (any, error) {
		var total float64
		integral := true
		for _, v := range values {
			if v == nil {
				continue
			}
			var f float64
			if err := mapstructure.WeakDecode(v, &f); err != nil {
				return nil, zerr.With(domain.Annotate(domain.ErrTypeMismatch, "expected", "number"), "actual", fmt.Sprintf("%T", v))
			}
			switch reflect.TypeOf(v).Kind() {
			case reflect.Float32, reflect.Float64, reflect.String:
				if f != float64(int64(f)) {
					integral = false
				}
			}
			total += f
		}
		var result any = total
		if integral {
			result = int(total)
		}
		return Coerce(result, targetType)
	}
}

// Coalesce returns the first value that is neither absent nor an error.
func Coalesce() Func {
	return func(values []any, targetType reflect.Type, _ any) (any, error) {
		for _, v := range values {
			if domain.IsNil(v) || domain.IsUnset(v) {
				continue
			}
			if _, ok := domain.AsException(v); ok {
				continue
			}
			return Coerce(v, targetType)
		}
		return nil, nil
	}
}

// Format applies the parameter as a fmt format string to the values.
func Format() Func {
	return func(values []any, targetType reflect.Type, parameter any) (any, error) {
		layout, ok := parameter.(string)
		if !ok {
			return nil, domain.Annotate(domain.ErrConverterFailed, "reason", "format needs a string parameter")
		}
		return Coerce(fmt.Sprintf(layout, values...), targetType)
	}
}

// Builtins returns a registry holding the built-in converters.
func Builtins() *capability.Registry {
	r := capability.NewRegistry()
	r.Register("concat", Concat())
	r.Register("upper", Upper())
	r.Register("not", Not())
	r.Register("sum", Sum())
	r.Register("coalesce", Coalesce())
	r.Register("format", Format())
	return r
}
