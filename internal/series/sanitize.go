// Package series turns raw backend records into date-keyed series and aligns
// actual and forecast series on a shared date axis.
package series

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"DemandBoard/internal/model"
)

// DateLayout is the canonical date key format.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a record's date cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

// dateLayouts are tried in order. RFC1123 covers what Flask's jsonify emits
// for datetime columns.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

// CanonicalDate parses a date-like string and returns its UTC calendar day
// as a YYYY-MM-DD key.
func CanonicalDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// CoerceValue applies the silent-repair policy for numeric fields. The
// leading decimal number of the token (or of the string it holds) is used
// and any trailing text ignored, so "12.5kg" reads as 12.5. Tokens with no
// leading number, and negative, NaN or infinite results, become 0.
func CoerceValue(raw model.RawValue) float64 {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return 0
	}
	text := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0
		}
		text = s
	}
	prefix := leadingDecimal(strings.TrimSpace(text))
	if prefix == "" {
		return 0
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}

// leadingDecimal returns the longest prefix of s of the form
// [sign] digits [. digits] [e [sign] digits], with at least one mantissa
// digit. Hex, underscores and named values are not numbers here.
func leadingDecimal(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
			digits++
		}
		if digits > 0 {
			i = j
		}
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return s[:i]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Sanitize converts raw records into a Series. Any unparsable date aborts
// the whole batch; malformed values are repaired to 0. Duplicate dates keep
// the position of their first occurrence and the value of the last.
func Sanitize(records []model.RawRecord) (model.Series, error) {
	out := make(model.Series, 0, len(records))
	index := make(map[string]int, len(records))
	for i, rec := range records {
		key, err := CanonicalDate(rec.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		v := CoerceValue(rec.Sales)
		if pos, ok := index[key]; ok {
			out[pos].Value = v
			continue
		}
		index[key] = len(out)
		out = append(out, model.DatedValue{Date: key, Value: v})
	}
	return out, nil
}
