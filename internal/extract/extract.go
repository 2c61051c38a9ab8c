// Package extract provides total, never-failing accessors over decoded JSON trees.
package extract

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// DateLayout is the normalized release date format
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"20060102",
}

var currencyGlyphs = []string{"円", "¥", "$", ","}

// Get walks path through a tree of map[string]any, []any and scalars.
// String steps descend maps and int steps index slices. Any mismatch returns nil.
func Get(tree any, path ...any) any {
	cur := tree
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			v, ok := m[key]
			if !ok {
				return nil
			}
			cur = v
		case int:
			s, ok := cur.([]any)
			if !ok || key < 0 || key >= len(s) {
				return nil
			}
			cur = s[key]
		default:
			return nil
		}
	}
	return cur
}

// GetOr is Get with a default for missing or null values
func GetOr(tree any, def any, path ...any) any {
	v := Get(tree, path...)
	if v == nil {
		return def
	}
	return v
}

// CleanString converts a scalar to a trimmed string. Blank values are absent (nil).
func CleanString(v any) *string {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case json.Number:
		s = val.String()
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		s = strconv.Itoa(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	default:
		return nil
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ParseDate parses YYYY-MM-DD, YYYY/MM/DD or YYYYMMDD, in that order
func ParseDate(v any) (time.Time, bool) {
	s := CleanString(v)
	if s == nil {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, *s)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a date in DateLayout
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseCurrency parses a price such as "1,500円" or "～2,000円".
// For a range the first bound present is used. Unparseable input yields 0,
// and so do NaN and infinities.
func ParseCurrency(v any) float64 {
	f := parseCurrency(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseCurrency(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		return parseCurrencyString(val)
	default:
		return 0
	}
}

func parseCurrencyString(s string) float64 {
	// full-width digits, commas, tilde and yen sign fold to ASCII
	s = width.Narrow.String(s)
	for _, g := range currencyGlyphs {
		s = strings.ReplaceAll(s, g, "")
	}

	parts := strings.FieldsFunc(s, isRangeDash)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func isRangeDash(r rune) bool {
	return r == '~' || r == '〜' || r == '～'
}

// ToInt converts numbers and numeric strings to int, returning def otherwise.
// Non-finite floats and floats outside the int64 range also yield def.
func ToInt(v any, def int) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return floatToInt(val, def)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		if f, err := val.Float64(); err == nil {
			return floatToInt(f, def)
		}
		return def
	case string:
		s := strings.TrimSpace(width.Narrow.String(val))
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f, def)
		}
		return def
	default:
		return def
	}
}

func floatToInt(f float64, def int) int {
	// 2^63 is exact in float64; anything at or beyond it overflows int64
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return def
	}
	return int(f)
}
