// Package path parses binding paths. Only flat field names are accepted;
// the other segment forms are recognized so they can be rejected with a
// precise message.
package path

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNestedPath is returned for anything other than a single property segment.
var ErrNestedPath = errors.New("only flat field paths are supported")

// SegmentType identifies the type of path segment.
type SegmentType int

const (
	SegmentProperty SegmentType = iota // Simple property: name
	SegmentIndex                       // Array index: 1, 2
	SegmentParent                      // Parent traversal: ..
	SegmentMethod                      // Method call: getName()
	SegmentStandard                    // Standard variable: @name
)

// String returns the string representation of a SegmentType.
func (t SegmentType) String() string {
	switch t {
	case SegmentProperty:
		return "property"
	case SegmentIndex:
		return "index"
	case SegmentParent:
		return "parent"
	case SegmentMethod:
		return "method"
	case SegmentStandard:
		return "standard"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// Path is a validated flat field name.
type Path struct {
	Name string
}

var (
	propertyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	methodPattern   = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)\(\)$`)
	standardPattern = regexp.MustCompile(`^@([a-zA-Z_][a-zA-Z0-9_]*)$`)
	indexPattern    = regexp.MustCompile(`^[0-9]+$`)
)

// Classify returns the segment type of a single dot-free part.
func Classify(part string) SegmentType {
	switch {
	case part == "..":
		return SegmentParent
	case standardPattern.MatchString(part):
		return SegmentStandard
	case methodPattern.MatchString(part):
		return SegmentMethod
	case indexPattern.MatchString(part):
		return SegmentIndex
	default:
		return SegmentProperty
	}
}

// Parse validates a binding path.
// Examples:
//   - "Price" -> ok
//   - "Order.Price" -> ErrNestedPath
//   - "Items.1" -> ErrNestedPath
//   - "getName()" -> ErrNestedPath
func Parse(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrNestedPath)
	}
	if strings.Contains(raw, ".") {
		return Path{}, fmt.Errorf("%w: %q has more than one segment", ErrNestedPath, raw)
	}
	if t := Classify(raw); t != SegmentProperty {
		return Path{}, fmt.Errorf("%w: %q is a %s segment", ErrNestedPath, raw, t)
	}
	if !propertyPattern.MatchString(raw) {
		return Path{}, fmt.Errorf("%w: %q is not a field name", ErrNestedPath, raw)
	}
	return Path{Name: raw}, nil
}

// Validate checks every path, skipping empty ones when allowEmpty is set.
func Validate(allowEmpty bool, paths ...string) error {
	for _, p := range paths {
		if p == "" && allowEmpty {
			continue
		}
		if _, err := Parse(p); err != nil {
			return err
		}
	}
	return nil
}

// String returns the field name.
func (p Path) String() string {
	return p.Name
}
