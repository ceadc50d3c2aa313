package record

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/spf13/cast"
)

// ToNumber coerces a raw value into a finite number. Missing, empty and
// non-numeric values yield 0. Strings are stripped of everything except
// digits, '.' and '-' before parsing the leading numeric prefix.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToFloat64(n)
	case bool:
		return 0
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return 0
	}
	return parseNumericPrefix(stripNonNumeric(s))
}

// Number reads the value under key as a number. An empty key reads as 0.
func Number(r Record, key string) float64 {
	if key == "" {
		return 0
	}
	v, _ := r.Get(key)
	return ToNumber(v)
}

// Text reads the value under key as a trimmed string.
func Text(r Record, key string) string {
	if key == "" {
		return ""
	}
	v, ok := r.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func stripNonNumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseNumericPrefix parses the longest leading [-]digits[.digits] run.
func parseNumericPrefix(s string) float64 {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			frac++
		}
		if frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

var dateConfig = &now.Config{
	TimeLocation: time.UTC,
	TimeFormats: []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05-0700",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05 -0700",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"1/2/2006",
		"01/02/2006 15:04",
		"1/2/2006 15:04",
		"Jan 2, 2006",
		"Jan 2 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"02 Jan 2006",
		time.RFC1123Z,
		time.RFC1123,
	},
}

// ParseDate parses a raw value permissively. Numbers are read as unix
// milliseconds.
func ParseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case float64, float32, int, int64, int32:
		ms := cast.ToInt64(t)
		if ms <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	parsed, err := dateConfig.With(time.Unix(0, 0).UTC()).Parse(s)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

// ToDate returns the UTC calendar day of v as YYYY-MM-DD.
func ToDate(v any) (string, bool) {
	t, ok := ParseDate(v)
	if !ok {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

// StatusMatches reports whether the status column contains any candidate,
// case-insensitively.
func StatusMatches(r Record, statusKey string, candidates ...string) bool {
	status := strings.ToLower(Text(r, statusKey))
	if status == "" {
		return false
	}
	for _, c := range candidates {
		if c != "" && strings.Contains(status, strings.ToLower(c)) {
			return true
		}
	}
	return false
}
