package domain

import "go.trai.ch/zerr"

var (
	// ErrEmptySources is returned when a binding specification has no source terms.
	ErrEmptySources = zerr.New("binding sources must not be empty")

	// ErrEmptyPath is returned when a property path has no segments.
	ErrEmptyPath = zerr.New("property path is empty")

	// ErrInvalidPath is returned when a path or node reference cannot be parsed.
	ErrInvalidPath = zerr.New("invalid property path")

	// ErrInvalidMode is returned when a binding mode string is not recognized.
	ErrInvalidMode = zerr.New("invalid binding mode, expected OneWay, TwoWay, OneTime or OneWayToSource")

	// ErrInvalidCacheStrategy is returned when a cache strategy string is not recognized.
	ErrInvalidCacheStrategy = zerr.New("invalid cache strategy, expected None or Simple")

	// ErrUnresolved is returned when a property is read from or written to an absent node.
	ErrUnresolved = zerr.New("property owner is not resolved")

	// ErrPropertyNotFound is returned when a node has no property with the requested name.
	ErrPropertyNotFound = zerr.New("property not found")

	// ErrNotReadable is returned when a property has no public getter.
	ErrNotReadable = zerr.New("property is not readable")

	// ErrNotWritable is returned when a property has no public setter.
	ErrNotWritable = zerr.New("property is not writable")

	// ErrTypeMismatch is returned when a value is not assignable to the declared property type.
	ErrTypeMismatch = zerr.New("value is not assignable to property type")

	// ErrIndexOutOfRange is returned when an index hop points outside a slice or array.
	ErrIndexOutOfRange = zerr.New("index out of range")

	// ErrAccessorFault is returned when a user getter or setter panics.
	ErrAccessorFault = zerr.New("property accessor fault")

	// ErrSourceNotFound is returned when the source node of a node reference cannot be located.
	ErrSourceNotFound = zerr.New("source node not found")

	// ErrConverterFailed is returned when a converter returns an error or panics.
	ErrConverterFailed = zerr.New("converter failed")

	// ErrConverterMissing is returned when a backward conversion is requested without a back converter.
	ErrConverterMissing = zerr.New("no back converter available")

	// ErrConverterArity is returned when a back converter yields the wrong number of values.
	ErrConverterArity = zerr.New("back converter returned wrong number of values")

	// ErrFilterFailed is returned when a notification filter panics or fails.
	ErrFilterFailed = zerr.New("notification filter failed")

	// ErrTargetCollected is returned when the target node of a binding is no longer alive.
	ErrTargetCollected = zerr.New("binding target is no longer alive")

	// ErrTargetWriteFailed is returned when the host rejects a target write.
	ErrTargetWriteFailed = zerr.New("failed to write binding target")

	// ErrSourceWriteFailed is returned when a source term rejects a write-back.
	ErrSourceWriteFailed = zerr.New("failed to write binding source")

	// ErrInvalidTransition is returned when a binding state transition is not allowed.
	ErrInvalidTransition = zerr.New("invalid binding state transition")

	// ErrConfigReadFailed is returned when a configuration document cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when a configuration document cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when a configuration document fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrDispatchPanic is returned when a dispatched continuation panics.
	ErrDispatchPanic = zerr.New("dispatched continuation panicked")

	// ErrNodeNotFound is returned when a scene lookup names an unknown node.
	ErrNodeNotFound = zerr.New("node not found")
)

// Annotate attaches metadata to a sentinel error. The sentinel stays in the chain so
// callers can still match it with errors.Is.
func Annotate(sentinel error, key string, value any) error {
	return zerr.With(zerr.Wrap(sentinel, ""), key, value)
}

type causedError struct {
	sentinel error
	cause    error
}

func (e causedError) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e causedError) Unwrap() []error {
	return []error{e.sentinel, e.cause}
}

// Because reports sentinel as caused by cause. Both stay matchable with errors.Is, and
// the result accepts zerr metadata.
func Because(sentinel, cause error) error {
	if cause == nil {
		return zerr.Wrap(sentinel, "")
	}
	return zerr.Wrap(causedError{sentinel: sentinel, cause: cause}, "")
}
