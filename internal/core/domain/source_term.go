package domain

import "strings"

// SourceDelimiter separates source terms in a binding's sources string.
const SourceDelimiter = ";"

// SourceKind identifies how a source term is resolved. It is decided once at parse time.
type SourceKind uint8

const (
	// SourceInvalid is a term that could not be parsed; it always resolves to an error value.
	SourceInvalid SourceKind = iota
	// SourceViewModel walks a property path off the data context.
	SourceViewModel
	// SourceNodeProperty reads a property of a host node located relative to the target.
	SourceNodeProperty
	// SourceNodeEvent captures the most recent payload of a host node event.
	SourceNodeEvent
)

// String returns the kind name.
func (k SourceKind) String() string {
	switch k {
	case SourceViewModel:
		return "view-model"
	case SourceNodeProperty:
		return "node-property"
	case SourceNodeEvent:
		return "node-event"
	default:
		return "invalid"
	}
}

// SourceTerm is one parsed binding source.
type SourceTerm struct {
	raw  string
	kind SourceKind
	path PropertyPath
	ref  NodeReference
	err  error
}

// Raw returns the unparsed term.
func (t SourceTerm) Raw() string { return t.raw }

// Kind returns the term kind.
func (t SourceTerm) Kind() SourceKind { return t.kind }

// Path returns the view-model path. It is zero for other kinds.
func (t SourceTerm) Path() PropertyPath { return t.path }

// Reference returns the node reference. It is zero for view-model terms.
func (t SourceTerm) Reference() NodeReference { return t.ref }

// Err returns the parse error of an invalid term.
func (t SourceTerm) Err() error { return t.err }

// IsValid reports whether the term parsed successfully.
func (t SourceTerm) IsValid() bool { return t.kind != SourceInvalid }

// SplitSources splits a delimiter-separated sources string, trimming each term and
// dropping empty ones.
func SplitSources(sources string) []string {
	parts := strings.Split(sources, SourceDelimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseSourceTerm parses a single source term. It never fails; parse errors produce a
// SourceInvalid term carrying the error.
func ParseSourceTerm(raw string) SourceTerm {
	raw = strings.TrimSpace(raw)
	term := SourceTerm{raw: raw}

	if IsNodeReference(raw) {
		ref := ParseNodeReference(raw)
		if !ref.IsValid() {
			term.err = withPath(ErrInvalidPath, raw)
			return term
		}
		term.ref = ref
		if ref.Event {
			term.kind = SourceNodeEvent
		} else {
			term.kind = SourceNodeProperty
		}
		return term
	}

	path, err := ParsePath(raw)
	if err != nil {
		term.err = err
		return term
	}
	term.path = path
	term.kind = SourceViewModel
	return term
}

// ParseSourceTerms splits and parses a sources string.
func ParseSourceTerms(sources string) []SourceTerm {
	raw := SplitSources(sources)
	terms := make([]SourceTerm, len(raw))
	for i, r := range raw {
		terms[i] = ParseSourceTerm(r)
	}
	return terms
}
