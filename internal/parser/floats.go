package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pwatools/urdfc/pkg/core"
)

// parseScalar parses one float attribute with strict semantics: any
// non-numeric content fails with a ParseError naming the element and
// attribute.
func parseScalar(element, attr, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &core.ParseError{Element: element, Attr: attr, Err: fmt.Errorf("not a number: %q", s)}
	}
	return v, nil
}

// parseScalarDefault parses a float attribute, returning def when the
// attribute is absent.
func parseScalarDefault(element, attr, s string, def float64) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return parseScalar(element, attr, s)
}

// parseTriple parses a whitespace-separated xyz/rpy triple.
func parseTriple(element, attr, s string) (core.Vec3, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return core.Vec3{}, &core.ParseError{
			Element: element, Attr: attr,
			Err: fmt.Errorf("expected 3 values, got %d in %q", len(fields), s),
		}
	}
	var out core.Vec3
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return core.Vec3{}, &core.ParseError{Element: element, Attr: attr, Err: fmt.Errorf("not a number: %q", f)}
		}
		out[i] = v
	}
	return out, nil
}

// parseTripleDefault parses a triple, returning def when absent.
func parseTripleDefault(element, attr, s string, def core.Vec3) (core.Vec3, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return parseTriple(element, attr, s)
}

// parseRGBA parses a 4-component color tuple.
func parseRGBA(element, attr, s string) ([4]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return [4]float64{}, &core.ParseError{
			Element: element, Attr: attr,
			Err: fmt.Errorf("expected 4 values, got %d in %q", len(fields), s),
		}
	}
	var out [4]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return [4]float64{}, &core.ParseError{Element: element, Attr: attr, Err: fmt.Errorf("not a number: %q", f)}
		}
		out[i] = v
	}
	return out, nil
}
