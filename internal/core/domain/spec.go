package domain

import "strings"

// Mode is the direction and timing policy of a binding.
type Mode uint8

const (
	// ModeOneWay propagates source changes to the target.
	ModeOneWay Mode = iota
	// ModeTwoWay propagates in both directions.
	ModeTwoWay
	// ModeOneTime pushes a single value to the target and stops tracking.
	ModeOneTime
	// ModeOneWayToSource propagates target changes to the sources only.
	ModeOneWayToSource
)

// String returns the mode name as used in configuration.
func (m Mode) String() string {
	switch m {
	case ModeTwoWay:
		return "TwoWay"
	case ModeOneTime:
		return "OneTime"
	case ModeOneWayToSource:
		return "OneWayToSource"
	default:
		return "OneWay"
	}
}

// TracksSource reports whether source changes are pushed to the target after attach.
func (m Mode) TracksSource() bool {
	return m == ModeOneWay || m == ModeTwoWay
}

// TracksTarget reports whether target changes are pushed back to the sources.
func (m Mode) TracksTarget() bool {
	return m == ModeTwoWay || m == ModeOneWayToSource
}

// WritesTarget reports whether the binding ever writes the target.
func (m Mode) WritesTarget() bool {
	return m != ModeOneWayToSource
}

// ParseMode parses a mode name. The empty string and "Default" map to ModeOneWay.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "oneway":
		return ModeOneWay, nil
	case "twoway":
		return ModeTwoWay, nil
	case "onetime":
		return ModeOneTime, nil
	case "onewaytosource":
		return ModeOneWayToSource, nil
	default:
		return ModeOneWay, Annotate(ErrInvalidMode, "mode", s)
	}
}

// CacheStrategy selects whether notification reads are memoized per session.
type CacheStrategy uint8

const (
	// CacheNone recomputes the value on every read.
	CacheNone CacheStrategy = iota
	// CacheSimple memoizes reads within one notification session.
	CacheSimple
)

// String returns the strategy name.
func (c CacheStrategy) String() string {
	if c == CacheSimple {
		return "Simple"
	}
	return "None"
}

// ParseCacheStrategy parses a cache strategy name. The empty string maps to CacheNone.
func ParseCacheStrategy(s string) (CacheStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CacheNone, nil
	case "simple":
		return CacheSimple, nil
	default:
		return CacheNone, Annotate(ErrInvalidCacheStrategy, "cache_strategy", s)
	}
}

// Ref names a capability (converter or notification filter) through one of three tiers:
// an explicit instance, a registered name, or a path walked off the data context. When
// none is set, the data context itself is tried.
type Ref struct {
	Name     string
	Path     string
	Instance any
}

// IsZero reports whether no tier was configured.
func (r Ref) IsZero() bool {
	return r.Name == "" && r.Path == "" && r.Instance == nil
}

// Optional is a configured substitute value. The zero Optional is unset.
type Optional struct {
	value any
	set   bool
}

// Some returns an Optional holding v, which may be nil.
func Some(v any) Optional {
	return Optional{value: v, set: true}
}

// Get returns the value and whether it was configured.
func (o Optional) Get() (any, bool) {
	return o.value, o.set
}

// IsSet reports whether a value was configured.
func (o Optional) IsSet() bool {
	return o.set
}

// BindingSpec is the declarative description of a binding.
type BindingSpec struct {
	// Sources are the parsed source terms, in declaration order.
	Sources []SourceTerm
	// Target is the name of the bound property on the target node.
	Target string
	// Mode is the propagation policy.
	Mode Mode
	// Converter selects the converter, if any.
	Converter Ref
	// ConverterParameter is passed to every converter call.
	ConverterParameter any
	// Notification selects the notification filter, if any.
	Notification Ref
	// CacheStrategy selects notification read caching.
	CacheStrategy CacheStrategy
	// NullValue substitutes an absent value. Unset means the target's intrinsic unset marker.
	NullValue Optional
	// FallbackValue substitutes an error value. Unset means the error passes through.
	FallbackValue Optional
}

// NewBindingSpec builds a spec from a delimiter-separated sources string. An empty or
// blank sources string is a programmer error and is reported immediately.
func NewBindingSpec(sources, target string, mode Mode) (BindingSpec, error) {
	terms := ParseSourceTerms(sources)
	if len(terms) == 0 {
		return BindingSpec{}, Annotate(ErrEmptySources, "target", target)
	}
	return BindingSpec{
		Sources: terms,
		Target:  target,
		Mode:    mode,
	}, nil
}

// HasResolvableSource reports whether at least one source term parsed successfully.
func (s BindingSpec) HasResolvableSource() bool {
	for _, t := range s.Sources {
		if t.IsValid() {
			return true
		}
	}
	return false
}

// Substitute applies the value substitution policy: an error value becomes the fallback
// value (or passes through when none is configured), an absent value becomes the null
// value (or Unset), anything else is returned as is.
func (s BindingSpec) Substitute(v any) any {
	if _, ok := AsException(v); ok {
		if fb, set := s.FallbackValue.Get(); set {
			return fb
		}
		return v
	}
	if IsNil(v) {
		if nv, set := s.NullValue.Get(); set {
			return nv
		}
		return Unset
	}
	return v
}
