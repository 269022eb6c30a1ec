package accessor

import (
	"reflect"
	"strconv"
	"unicode"
	"unicode/utf8"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/zerr"
)

var errorType = reflect.TypeFor[error]()

type (
	getterFunc func(rv reflect.Value) (any, error)
	setterFunc func(rv reflect.Value, value reflect.Value) error
)

// Property is a compiled accessor for one property of one runtime type.
type Property struct {
	// Name is the property name as requested.
	Name string
	// Type is the declared type, or nil when the type has no such property.
	Type reflect.Type

	getter getterFunc
	setter setterFunc
}

// Readable reports whether the property has a getter.
func (p *Property) Readable() bool { return p.getter != nil }

// Writable reports whether the property has a setter.
func (p *Property) Writable() bool { return p.setter != nil }

// Exists reports whether the type has the property at all.
func (p *Property) Exists() bool { return p.getter != nil || p.setter != nil }

func (p *Property) get(rv reflect.Value) (any, error) {
	switch {
	case p.getter != nil:
		return p.getter(rv)
	case p.setter != nil:
		return nil, domain.Annotate(domain.ErrNotReadable, "property", p.Name)
	default:
		return nil, zerr.With(domain.Annotate(domain.ErrPropertyNotFound, "property", p.Name), "type", rv.Type().String())
	}
}

func (p *Property) set(rv reflect.Value, value any) error {
	switch {
	case p.setter != nil:
		v, err := assignable(p.Name, p.Type, value)
		if err != nil {
			return err
		}
		return p.setter(rv, v)
	case p.getter != nil:
		return domain.Annotate(domain.ErrNotWritable, "property", p.Name)
	default:
		return zerr.With(domain.Annotate(domain.ErrPropertyNotFound, "property", p.Name), "type", rv.Type().String())
	}
}

// assignable converts value into a reflect.Value assignable to t.
func assignable(name string, t reflect.Type, value any) (reflect.Value, error) {
	if value == nil || domain.IsUnset(value) {
		if value == nil && !nilable(t) {
			return reflect.Value{}, zerr.With(domain.Annotate(domain.ErrTypeMismatch, "property", name), "expected", t.String())
		}
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(t) {
		err := zerr.With(domain.Annotate(domain.ErrTypeMismatch, "property", name), "expected", t.String())
		return reflect.Value{}, zerr.With(err, "actual", v.Type().String())
	}
	return v, nil
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

// compile builds the descriptor for the named property of t.
func compile(t reflect.Type, name string) *Property {
	p := &Property{Name: name}
	if domain.IsIndexSegment(name) {
		compileIndex(p, t, domain.IndexKey(name))
		return p
	}

	for _, candidate := range candidates(name) {
		compileMethods(p, t, candidate)
		if p.Exists() {
			break
		}
	}
	if !p.Exists() {
		for _, candidate := range candidates(name) {
			compileField(p, t, candidate)
			if p.Exists() {
				break
			}
		}
	}
	if !p.Exists() {
		compileIndex(p, t, name)
	}
	return p
}

// candidates returns the names tried for a property: the name as written, then with an
// upper case first letter so that configuration may use lower camel case.
func candidates(name string) []string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return []string{name}
	}
	return []string{name, string(unicode.ToUpper(r)) + name[size:]}
}

func compileMethods(p *Property, t reflect.Type, name string) {
	getter, ok := t.MethodByName(name)
	if !ok || !isGetter(getter.Type) {
		getter, ok = t.MethodByName("Get" + name)
	}
	if ok && isGetter(getter.Type) {
		p.Type = getter.Type.Out(0)
		index := getter.Index
		p.getter = func(rv reflect.Value) (any, error) {
			out := rv.Method(index).Call(nil)
			if len(out) == 2 && !out[1].IsNil() {
				err, _ := out[1].Interface().(error)
				return nil, zerr.With(zerr.Wrap(err, "property getter failed"), "property", name)
			}
			return out[0].Interface(), nil
		}
	}

	setter, ok := t.MethodByName("Set" + name)
	if !ok || !isSetter(setter.Type) {
		return
	}
	if p.Type == nil {
		p.Type = setter.Type.In(1)
	}
	if setter.Type.In(1) != p.Type {
		return
	}
	index := setter.Index
	p.setter = func(rv reflect.Value, v reflect.Value) error {
		out := rv.Method(index).Call([]reflect.Value{v})
		if len(out) == 1 && !out[0].IsNil() {
			err, _ := out[0].Interface().(error)
			return zerr.With(zerr.Wrap(err, "property setter failed"), "property", name)
		}
		return nil
	}
}

// isGetter matches func(recv) T and func(recv) (T, error).
func isGetter(mt reflect.Type) bool {
	if mt.NumIn() != 1 {
		return false
	}
	switch mt.NumOut() {
	case 1:
		return true
	case 2:
		return mt.Out(1) == errorType
	default:
		return false
	}
}

// isSetter matches func(recv, T) and func(recv, T) error.
func isSetter(mt reflect.Type) bool {
	if mt.NumIn() != 2 {
		return false
	}
	switch mt.NumOut() {
	case 0:
		return true
	case 1:
		return mt.Out(0) == errorType
	default:
		return false
	}
}

func compileField(p *Property, t reflect.Type, name string) {
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return
	}
	field, ok := st.FieldByName(name)
	if !ok || !field.IsExported() {
		return
	}
	p.Type = field.Type
	index := field.Index
	p.getter = func(rv reflect.Value) (any, error) {
		fv, err := fieldOf(rv, index, name)
		if err != nil {
			return nil, err
		}
		return fv.Interface(), nil
	}
	if t.Kind() != reflect.Pointer {
		return
	}
	p.setter = func(rv reflect.Value, v reflect.Value) error {
		fv, err := fieldOf(rv, index, name)
		if err != nil {
			return err
		}
		if !fv.CanSet() {
			return domain.Annotate(domain.ErrNotWritable, "property", name)
		}
		fv.Set(v)
		return nil
	}
}

func fieldOf(rv reflect.Value, index []int, name string) (reflect.Value, error) {
	fv, err := reflect.Indirect(rv).FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, domain.Annotate(domain.ErrUnresolved, "property", name)
	}
	return fv, nil
}

// compileIndex handles map keys and slice or array positions.
func compileIndex(p *Property, t reflect.Type, key string) {
	ct := t
	if ct.Kind() == reflect.Pointer {
		ct = ct.Elem()
	}
	switch ct.Kind() {
	case reflect.Map:
		kv, ok := mapKey(ct.Key(), key)
		if !ok {
			return
		}
		p.Type = ct.Elem()
		p.getter = func(rv reflect.Value) (any, error) {
			m := reflect.Indirect(rv)
			v := m.MapIndex(kv)
			if !v.IsValid() {
				return nil, domain.Annotate(domain.ErrPropertyNotFound, "property", p.Name)
			}
			return v.Interface(), nil
		}
		p.setter = func(rv reflect.Value, v reflect.Value) error {
			m := reflect.Indirect(rv)
			if m.IsNil() {
				return domain.Annotate(domain.ErrNotWritable, "property", p.Name)
			}
			m.SetMapIndex(kv, v)
			return nil
		}
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(key)
		if err != nil {
			return
		}
		p.Type = ct.Elem()
		p.getter = func(rv reflect.Value) (any, error) {
			s := reflect.Indirect(rv)
			if i < 0 || i >= s.Len() {
				return nil, zerr.With(domain.Annotate(domain.ErrIndexOutOfRange, "property", p.Name), "len", s.Len())
			}
			return s.Index(i).Interface(), nil
		}
		if ct.Kind() == reflect.Array && t.Kind() != reflect.Pointer {
			return
		}
		p.setter = func(rv reflect.Value, v reflect.Value) error {
			s := reflect.Indirect(rv)
			if i < 0 || i >= s.Len() {
				return zerr.With(domain.Annotate(domain.ErrIndexOutOfRange, "property", p.Name), "len", s.Len())
			}
			s.Index(i).Set(v)
			return nil
		}
	}
}

func mapKey(kt reflect.Type, key string) (reflect.Value, bool) {
	switch kt.Kind() {
	case reflect.String:
		return reflect.ValueOf(key).Convert(kt), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(key, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(n).Convert(kt), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(key, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(n).Convert(kt), true
	case reflect.Interface:
		if reflect.TypeFor[string]().AssignableTo(kt) {
			return reflect.ValueOf(key), true
		}
	}
	return reflect.Value{}, false
}
