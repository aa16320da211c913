package engine

import (
	"encoding/json"
	"math"
	"strings"
)

// ClampScore turns an arbitrary caller-supplied value into a non-negative
// score. Strings contribute their leading integer ("12abc" is 12), numbers are
// truncated, and anything unparsable is 0. Negative results become 0.
func ClampScore(v any) int {
	n := 0
	switch x := v.(type) {
	case nil:
		n = 0
	case int:
		n = clampInt(int64(x))
	case int32:
		n = clampInt(int64(x))
	case int64:
		n = clampInt(x)
	case float32:
		n = clampFloat(float64(x))
	case float64:
		n = clampFloat(x)
	case json.Number:
		n = leadingInt(x.String())
	case string:
		n = leadingInt(x)
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(x, &decoded); err != nil {
			return 0
		}
		return ClampScore(decoded)
	default:
		n = 0
	}
	if n < 0 {
		return 0
	}
	return n
}

// clampInt bounds an integer score to [0, MaxInt32], the same range every
// other input type lands in
func clampInt(i int64) int {
	if i > math.MaxInt32 {
		return math.MaxInt32
	}
	if i < 0 {
		return 0
	}
	return int(i)
}

func clampFloat(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	if f < 0 {
		return 0
	}
	return int(f)
}

// leadingInt parses an optional sign followed by decimal digits, ignoring
// leading whitespace and anything after the digits.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n := 0
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		digits++
		if n < math.MaxInt32 {
			n = n*10 + int(r-'0')
		}
	}
	if digits == 0 || neg {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return n
}
