// Package convert resolves and invokes the converters of a binding.
package convert

import (
	"context"
	"fmt"
	"reflect"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
	"go.trai.ch/tether/internal/engine/capability"
	"go.trai.ch/tether/internal/engine/walker"
	"go.trai.ch/zerr"
)

// Func adapts a function to ports.Converter.
type Func func(values []any, targetType reflect.Type, parameter any) (any, error)

// Convert implements ports.Converter.
func (f Func) Convert(values []any, targetType reflect.Type, parameter any) (any, error) {
	return f(values, targetType, parameter)
}

// BackFunc adapts a function to ports.BackConverter.
type BackFunc func(value any, sourceTypes []reflect.Type, parameter any) ([]any, error)

// ConvertBack implements ports.BackConverter.
func (f BackFunc) ConvertBack(value any, sourceTypes []reflect.Type, parameter any) ([]any, error) {
	return f(value, sourceTypes, parameter)
}

// Pair combines a forward and a backward function into one converter.
type Pair struct {
	Forward Func
	Back    BackFunc
}

// Convert implements ports.Converter.
func (p Pair) Convert(values []any, targetType reflect.Type, parameter any) (any, error) {
	return p.Forward(values, targetType, parameter)
}

// ConvertBack implements ports.BackConverter.
func (p Pair) ConvertBack(value any, sourceTypes []reflect.Type, parameter any) ([]any, error) {
	if p.Back == nil {
		return nil, domain.ErrConverterMissing
	}
	return p.Back(value, sourceTypes, parameter)
}

// Pipeline is a resolved converter together with its parameter. The zero Pipeline has no
// converter.
type Pipeline struct {
	name      string
	forward   ports.Converter
	back      ports.BackConverter
	async     ports.AsyncConverter
	parameter any
}

// New builds a Pipeline from an object implementing any of the converter capabilities.
// It reports false when c implements none of them.
func New(c any, parameter any) (Pipeline, bool) {
	p := Pipeline{parameter: parameter, name: fmt.Sprintf("%T", c)}
	p.forward, _ = c.(ports.Converter)
	p.back, _ = c.(ports.BackConverter)
	p.async, _ = c.(ports.AsyncConverter)
	return p, p.Present()
}

// Present reports whether a forward or async converter is available.
func (p Pipeline) Present() bool {
	return p.forward != nil || p.async != nil
}

// CanConvertBack reports whether a back converter is available.
func (p Pipeline) CanConvertBack() bool {
	return p.back != nil
}

// IsAsync reports whether the forward direction may suspend.
func (p Pipeline) IsAsync() bool {
	return p.async != nil
}

// Name identifies the converter in logs.
func (p Pipeline) Name() string {
	return p.name
}

// Convert runs the forward converter. Failures and panics are returned as
// domain.ExceptionValue.
func (p Pipeline) Convert(values []any, targetType reflect.Type) (result any) {
	if p.forward == nil {
		if p.async != nil {
			return p.ConvertAsync(context.Background(), values, targetType)
		}
		return domain.NewExceptionValue(domain.ErrConverterMissing)
	}
	defer p.recover(&result)

	v, err := p.forward.Convert(values, targetType, p.parameter)
	if err != nil {
		return p.failure(err)
	}
	return v
}

// ConvertAsync runs the async converter if there is one, the forward converter
// otherwise, and awaits a domain.Awaitable result.
func (p Pipeline) ConvertAsync(ctx context.Context, values []any, targetType reflect.Type) (result any) {
	defer p.recover(&result)

	var (
		v   any
		err error
	)
	switch {
	case p.async != nil:
		v, err = p.async.ConvertAsync(ctx, values, targetType, p.parameter)
	case p.forward != nil:
		v, err = p.forward.Convert(values, targetType, p.parameter)
	default:
		return domain.NewExceptionValue(domain.ErrConverterMissing)
	}
	if err != nil {
		return p.failure(err)
	}
	if a, ok := v.(domain.Awaitable); ok {
		v, err = a.Await(ctx)
		if err != nil {
			return p.failure(err)
		}
	}
	return v
}

// ConvertBack decomposes value into exactly one value per source type.
func (p Pipeline) ConvertBack(value any, sourceTypes []reflect.Type) (values []any, err error) {
	if p.back == nil {
		return nil, domain.ErrConverterMissing
	}
	defer func() {
		if r := recover(); r != nil {
			values = nil
			err = zerr.With(domain.Annotate(domain.ErrConverterFailed, "converter", p.name), "panic", fmt.Sprint(r))
		}
	}()

	out, err := p.back.ConvertBack(value, sourceTypes, p.parameter)
	if err != nil {
		return nil, zerr.With(domain.Because(domain.ErrConverterFailed, err), "converter", p.name)
	}
	if len(out) != len(sourceTypes) {
		err := zerr.With(domain.Annotate(domain.ErrConverterArity, "want", len(sourceTypes)), "got", len(out))
		return nil, err
	}
	return out, nil
}

func (p Pipeline) failure(err error) domain.ExceptionValue {
	if ev, ok := domain.AsException(err); ok {
		return ev
	}
	return domain.NewExceptionValue(zerr.With(domain.Because(domain.ErrConverterFailed, err), "converter", p.name))
}

func (p Pipeline) recover(result *any) {
	if r := recover(); r != nil {
		err := zerr.With(domain.Annotate(domain.ErrConverterFailed, "converter", p.name), "panic", fmt.Sprint(r))
		*result = domain.NewExceptionValue(err)
	}
}

// Resolve finds the converter for ref through the capability tiers.
func Resolve(ref domain.Ref, parameter any, registry *capability.Registry, w *walker.Walker, dataContext any) (Pipeline, bool) {
	found, ok := capability.Find(ref, registry, w, dataContext, isConverter)
	if !ok {
		return Pipeline{}, false
	}
	p, ok := New(found.Item, parameter)
	p.name = found.Name
	return p, ok
}

func isConverter(v any) bool {
	switch v.(type) {
	case ports.Converter, ports.AsyncConverter:
		return true
	default:
		return false
	}
}
