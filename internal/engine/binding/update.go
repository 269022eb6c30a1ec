package binding

import (
	"context"
	"errors"
	"reflect"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
	"go.trai.ch/tether/internal/engine/convert"
	"go.trai.ch/tether/internal/engine/filter"
	"go.trai.ch/zerr"
)

// update is one propagation in flight.
type update struct {
	generation uint64
	root       any
	span       ports.Span
	filter     filter.Filter
	n          domain.Notification
}

func (b *Binding) begin(ctx context.Context, direction domain.Direction, generation uint64, root any) (context.Context, *update) {
	ctx, span := b.tracer.Start(ctx, "binding.update",
		ports.WithAttribute("binding", b.name),
		ports.WithAttribute("direction", direction.String()),
	)
	u := &update{
		generation: generation,
		root:       root,
		span:       span,
		n: domain.Notification{
			BindingID: b.id,
			Direction: direction,
			Target:    b.spec.Target,
			Session:   domain.SessionFrom(ctx),
		},
	}
	return ctx, u
}

// detached returns a context for work done off the dispatcher. It keeps the session but
// nothing that would let the dispatcher run the continuation inline.
func detached(u *update) context.Context {
	return domain.WithSession(context.Background(), u.n.Session)
}

// refreshTarget recomputes the target value. changed is the index of the source that
// raised the change, or -1 when every source should be considered.
func (b *Binding) refreshTarget(ctx context.Context, changed int) {
	node, generation, dc, ok := b.snapshot()
	if !ok {
		return
	}
	targetType, _ := b.host.PropertyType(node, b.spec.Target)

	ctx, u := b.begin(ctx, domain.ToTarget, generation, dc)
	conv, converting := convert.Resolve(b.spec.Converter, b.spec.ConverterParameter, b.converters, b.walker, dc)
	u.filter, _ = filter.Resolve(b.spec.Notification, b.filters, b.walker, dc)

	indices := []int{max(changed, 0)}
	if converting {
		indices = make([]int, len(b.sources))
		for i := range indices {
			indices[i] = i
		}
	}
	values := make([]any, len(indices))
	suspends := conv.IsAsync() || u.filter.IsAsync()
	for i, idx := range indices {
		values[i] = b.sources[idx].GetValue(ctx, dc, true)
		if _, ok := values[i].(domain.Awaitable); ok {
			suspends = true
		}
	}
	u.n.Values = values

	if !suspends {
		value := b.forward(conv, converting, values, targetType)
		if !b.admit(u, targetType, value) {
			return
		}
		u.n.Value = value
		if err := u.filter.Before(ctx, &u.n); err != nil {
			b.logger.Error(zerr.With(err, "binding", b.name))
		}
		b.commitTarget(ctx, u)
		return
	}

	b.flight.add()
	go func() {
		ctx := detached(u)
		committing := false
		defer func() {
			if !committing {
				b.flight.done()
			}
		}()

		for i, v := range values {
			values[i] = awaitValue(ctx, v)
		}
		var value any
		if converting {
			b.faults(values)
			value = b.spec.Substitute(conv.ConvertAsync(ctx, values, targetType))
			b.faults([]any{value})
		} else {
			value = b.substitute(values[0])
		}
		if !b.admit(u, targetType, value) {
			return
		}
		u.n.Value = value
		if err := u.filter.BeforeAsync(ctx, &u.n); err != nil {
			b.logger.Error(zerr.With(err, "binding", b.name))
		}

		committing = true
		b.dispatcher.Dispatch(ctx, func(ctx context.Context) {
			defer b.flight.done()
			b.commitTarget(ctx, u)
		})
	}()
}

// forward computes the candidate target value: the converter result when a converter
// is present, the source value otherwise, with the substitution policy applied.
func (b *Binding) forward(conv convert.Pipeline, converting bool, values []any, targetType reflect.Type) any {
	if !converting {
		return b.substitute(values[0])
	}
	b.faults(values)
	v := conv.Convert(values, targetType)
	b.faults([]any{v})
	return b.spec.Substitute(v)
}

func (b *Binding) substitute(v any) any {
	b.faults([]any{v})
	return b.spec.Substitute(v)
}

// faults logs read and conversion failures. Resolution misses are expected while a
// chain is incomplete and are not logged.
func (b *Binding) faults(values []any) {
	for _, v := range values {
		ev, ok := domain.AsException(v)
		if !ok || errors.Is(ev, domain.ErrSourceNotFound) || errors.Is(ev, domain.ErrUnresolved) {
			continue
		}
		b.logger.Error(zerr.With(zerr.Wrap(ev.Err, "binding value failed"), "binding", b.name))
	}
}

// admit is the type gate in front of every target write.
func (b *Binding) admit(u *update, targetType reflect.Type, value any) bool {
	if assignable(targetType, value) {
		return true
	}
	if ev, ok := domain.AsException(value); ok {
		// faults already reported the cause.
		u.span.RecordError(ev.Err)
		u.span.End()
		b.record(domain.ToTarget, ports.OutcomeSkipped)
		return false
	}
	err := zerr.With(domain.Annotate(domain.ErrTypeMismatch, "binding", b.name), "target", b.spec.Target)
	err = zerr.With(zerr.With(err, "expected", targetType.String()), "actual", typeName(value))
	b.logger.Error(err)
	u.span.RecordError(err)
	u.span.End()
	b.record(domain.ToTarget, ports.OutcomeSkipped)
	return false
}

func assignable(t reflect.Type, v any) bool {
	switch {
	case t == nil, domain.IsUnset(v):
		return true
	case v == nil:
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		default:
			return false
		}
	default:
		return reflect.TypeOf(v).AssignableTo(t)
	}
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

func awaitValue(ctx context.Context, v any) any {
	a, ok := v.(domain.Awaitable)
	if !ok {
		return v
	}
	r, err := a.Await(ctx)
	if err != nil {
		return domain.Wrap(err, true)
	}
	return r
}

func (b *Binding) commitTarget(ctx context.Context, u *update) {
	defer u.span.End()

	if u.n.Handled {
		b.record(domain.ToTarget, ports.OutcomeVetoed)
		return
	}
	node, ok := b.current(u.generation)
	if !ok || !b.state.Enter(domain.StateUpdatingTarget) {
		b.record(domain.ToTarget, ports.OutcomeSkipped)
		return
	}
	written := b.host.SetValue(node, b.spec.Target, u.n.Value)
	b.state.Leave(domain.StateUpdatingTarget)

	if !written {
		err := zerr.With(domain.Annotate(domain.ErrTargetWriteFailed, "binding", b.name), "target", b.spec.Target)
		b.logger.Error(err)
		u.span.RecordError(err)
		b.record(domain.ToTarget, ports.OutcomeFailed)
		return
	}
	b.record(domain.ToTarget, ports.OutcomeApplied)
	b.after(ctx, u)
}

// refreshSource pushes the target value back through the back converter into the
// sources.
func (b *Binding) refreshSource(ctx context.Context) {
	node, generation, dc, ok := b.snapshot()
	if !ok {
		return
	}
	value, _ := b.host.GetValue(node, b.spec.Target)

	ctx, u := b.begin(ctx, domain.ToSource, generation, dc)
	conv, converting := convert.Resolve(b.spec.Converter, b.spec.ConverterParameter, b.converters, b.walker, dc)
	u.filter, _ = filter.Resolve(b.spec.Notification, b.filters, b.walker, dc)

	values := []any{value}
	if converting {
		types := make([]reflect.Type, len(b.sources))
		for i, m := range b.sources {
			types[i], _ = m.ValueType(dc)
		}
		out, err := conv.ConvertBack(value, types)
		if err != nil {
			err = zerr.With(err, "binding", b.name)
			b.logger.Error(err)
			u.span.RecordError(err)
			u.span.End()
			b.record(domain.ToSource, ports.OutcomeFailed)
			return
		}
		values = out
	}
	for i, v := range values {
		values[i] = b.spec.Substitute(v)
	}
	u.n.Value = value
	u.n.Values = values

	if !u.filter.IsAsync() {
		if err := u.filter.Before(ctx, &u.n); err != nil {
			b.logger.Error(zerr.With(err, "binding", b.name))
		}
		b.commitSource(ctx, u)
		return
	}

	b.flight.add()
	go func() {
		ctx := detached(u)
		if err := u.filter.BeforeAsync(ctx, &u.n); err != nil {
			b.logger.Error(zerr.With(err, "binding", b.name))
		}
		b.dispatcher.Dispatch(ctx, func(ctx context.Context) {
			defer b.flight.done()
			b.commitSource(ctx, u)
		})
	}()
}

func (b *Binding) commitSource(ctx context.Context, u *update) {
	defer u.span.End()

	if u.n.Handled {
		b.record(domain.ToSource, ports.OutcomeVetoed)
		return
	}
	if _, ok := b.current(u.generation); !ok || !b.state.Enter(domain.StateUpdatingSource) {
		b.record(domain.ToSource, ports.OutcomeSkipped)
		return
	}

	var errs []error
	for i, v := range u.n.Values {
		if i >= len(b.sources) {
			break
		}
		m := b.sources[i]
		if err := m.SetValue(ctx, u.root, v); err != nil {
			errs = append(errs, zerr.With(err, "source", m.Term().Raw()))
		}
	}
	b.state.Leave(domain.StateUpdatingSource)

	if err := errors.Join(errs...); err != nil {
		err = zerr.With(domain.Because(domain.ErrSourceWriteFailed, err), "binding", b.name)
		b.logger.Error(err)
		u.span.RecordError(err)
		b.record(domain.ToSource, ports.OutcomeFailed)
		return
	}
	b.record(domain.ToSource, ports.OutcomeApplied)
	b.after(ctx, u)
}

// after runs the post-write filter hook and notifies observers.
func (b *Binding) after(ctx context.Context, u *update) {
	if err := u.filter.After(ctx, u.n); err != nil {
		b.logger.Error(zerr.With(err, "binding", b.name))
	}
	for _, o := range b.observers {
		o.OnUpdated(ctx, u.n)
	}
}
