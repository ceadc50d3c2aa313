// Package column maps loosely named record columns onto the semantic fields
// the analytics engine reads.
package column

import (
	"strings"
	"unicode"
)

// Normalize lower-cases name and strips underscores, hyphens and whitespace.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Resolve returns the first column, in enumeration order, whose normalized
// name contains any normalized keyword. Keyword order does not outrank
// column order.
func Resolve(columns []string, keywords ...string) (string, bool) {
	if len(columns) == 0 || len(keywords) == 0 {
		return "", false
	}
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if n := Normalize(kw); n != "" {
			normalized = append(normalized, n)
		}
	}
	for _, col := range columns {
		name := Normalize(col)
		if name == "" {
			continue
		}
		for _, kw := range normalized {
			if strings.Contains(name, kw) {
				return col, true
			}
		}
	}
	return "", false
}

// ResolveExcluding behaves like Resolve over columns minus the excluded names.
func ResolveExcluding(columns []string, exclude []string, keywords ...string) (string, bool) {
	if len(exclude) == 0 {
		return Resolve(columns, keywords...)
	}
	filtered := make([]string, 0, len(columns))
	for _, col := range columns {
		if !contains(exclude, col) {
			filtered = append(filtered, col)
		}
	}
	return Resolve(filtered, keywords...)
}

// resolveExact returns the first column whose normalized name equals one of
// the keywords.
func resolveExact(columns []string, keywords ...string) (string, bool) {
	for _, col := range columns {
		name := Normalize(col)
		for _, kw := range keywords {
			if name == Normalize(kw) {
				return col, true
			}
		}
	}
	return "", false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item != "" && item == v {
			return true
		}
	}
	return false
}
