// Package domain contains the value types of the binding engine: paths, source terms,
// binding specifications, resolved hops and the tagged values that flow between them.
package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// LevelMark separates the segments of a property path.
const LevelMark = '.'

// PropertyPath is a parsed dotted/indexed path. Index accessors are stored as their own
// segments in bracket form, so "Items[2].Name" becomes ["Items", "[2]", "Name"].
type PropertyPath struct {
	Segments []string
}

// Len returns the number of hops in the path.
func (p PropertyPath) Len() int {
	return len(p.Segments)
}

// IsZero reports whether the path has no segments.
func (p PropertyPath) IsZero() bool {
	return len(p.Segments) == 0
}

// Last returns the final segment, which names the actually bound property.
func (p PropertyPath) Last() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}

// String renders the path back to its dotted form.
func (p PropertyPath) String() string {
	var b strings.Builder
	for i, s := range p.Segments {
		if i > 0 && !IsIndexSegment(s) {
			b.WriteByte(LevelMark)
		}
		b.WriteString(s)
	}
	return b.String()
}

// IsIndexSegment reports whether a segment is an index accessor such as "[2]" or "[key]".
func IsIndexSegment(s string) bool {
	return len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']'
}

// IndexKey returns the key inside an index segment, unquoting it if necessary.
func IndexKey(s string) string {
	if !IsIndexSegment(s) {
		return s
	}
	key := s[1 : len(s)-1]
	if unq, err := strconv.Unquote(key); err == nil {
		return unq
	}
	return key
}

// ParsePath parses a property path. Empty segments are discarded; a path that is empty
// after discarding returns ErrEmptyPath.
func ParsePath(path string) (PropertyPath, error) {
	var segments []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			segments = append(segments, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		c := path[i]
		switch c {
		case LevelMark:
			flush()
		case '[':
			flush()
			end, err := scanIndex(path, i)
			if err != nil {
				return PropertyPath{}, err
			}
			segments = append(segments, path[i:end+1])
			i = end
		case ']':
			return PropertyPath{}, Annotate(ErrInvalidPath, "path", path)
		default:
			cur.WriteByte(c)
		}
	}
	flush()

	out := segments[:0]
	for _, s := range segments {
		if s != "" && s != "[]" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return PropertyPath{}, Annotate(ErrEmptyPath, "path", path)
	}
	return PropertyPath{Segments: out}, nil
}

// MustParsePath is like ParsePath but panics on error. It is meant for literals.
func MustParsePath(path string) PropertyPath {
	p, err := ParsePath(path)
	if err != nil {
		panic(err)
	}
	return p
}

// scanIndex returns the position of the bracket closing the index that opens at start.
// Quoted keys may contain dots and brackets.
func scanIndex(path string, start int) (int, error) {
	inQuote := false
	for j := start + 1; j < len(path); j++ {
		switch path[j] {
		case '\\':
			if inQuote {
				j++
			}
		case '"':
			inQuote = !inQuote
		case ']':
			if !inQuote {
				return j, nil
			}
		}
	}
	return 0, Annotate(ErrInvalidPath, "path", path)
}

// SelfSource is the literal naming the binding's own node in a node reference.
const SelfSource = "self"

// EventMark prefixes a node reference property that names an event instead of a property.
const EventMark = '@'

var nodeRefPattern = regexp.MustCompile(`^\$\[\[([^\[\]]*)\]\.?(.*)\]$`)

// NodeReference is a parsed `$[[Source].Property]` expression.
type NodeReference struct {
	// Raw is the original expression.
	Raw string
	// Source is the raw source part between the inner brackets.
	Source string
	// Self is set when Source is the "self" literal.
	Self bool
	// TypeName and Depth are set when Source has the form "Type/Depth".
	TypeName string
	Depth    int
	// Name is set when Source is a plain element name.
	Name string
	// Property is the property (or event, see Event) read from the source node.
	Property string
	// Event marks a node event reference.
	Event bool
	// OptionalPath is applied to the retrieved property value, if non-empty.
	OptionalPath PropertyPath

	valid bool
}

// IsValid reports whether both Source and Property were captured.
func (r NodeReference) IsValid() bool {
	return r.valid
}

// IsNodeReference reports whether s uses the bracketed node reference syntax.
func IsNodeReference(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "$[[")
}

// ParseNodeReference parses a `$[[Source].Property]` expression. It never fails; an
// unparseable expression yields a reference whose IsValid reports false.
func ParseNodeReference(s string) NodeReference {
	s = strings.TrimSpace(s)
	ref := NodeReference{Raw: s}

	m := nodeRefPattern.FindStringSubmatch(s)
	if m == nil {
		return ref
	}
	ref.Source = strings.TrimSpace(m[1])

	prop := strings.TrimSpace(m[2])
	if strings.HasPrefix(prop, string(EventMark)) {
		ref.Event = true
		prop = strings.TrimSpace(prop[1:])
	}
	if prop != "" {
		path, err := ParsePath(prop)
		if err != nil {
			return ref
		}
		ref.Property = path.Segments[0]
		if path.Len() > 1 {
			ref.OptionalPath = PropertyPath{Segments: path.Segments[1:]}
		}
	}
	if ref.Event && !ref.OptionalPath.IsZero() {
		// Events carry their payload as the value; there is nothing to walk.
		return ref
	}

	switch {
	case ref.Source == "":
		return ref
	case strings.EqualFold(ref.Source, SelfSource):
		ref.Self = true
	case strings.Contains(ref.Source, "/"):
		typeName, depthStr, _ := strings.Cut(ref.Source, "/")
		depth, err := strconv.Atoi(strings.TrimSpace(depthStr))
		if err != nil || depth < 1 || strings.TrimSpace(typeName) == "" {
			return ref
		}
		ref.TypeName = strings.TrimSpace(typeName)
		ref.Depth = depth
	default:
		ref.Name = ref.Source
	}

	ref.valid = ref.Property != ""
	return ref
}
