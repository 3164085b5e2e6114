package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
)

// num reads a provider number. Strings are parsed by their numeric prefix
// and anything missing or unparsable becomes 0.
func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case string:
		m := leadingFloat.FindString(strings.TrimSpace(n))
		if m == "" {
			return 0
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if n {
			return 1
		}
	}
	return 0
}

// integer reads a provider volume; fractional parts are truncated.
func integer(v any) int64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int64(n)
	case string:
		m := leadingInt.FindString(strings.TrimSpace(n))
		if m == "" {
			return 0
		}
		i, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	}
	return ""
}

// percentOf formats (part/whole)*100 with two decimals and a trailing %.
func percentOf(part, whole float64) string {
	if whole == 0 {
		return "0.00%"
	}
	return strconv.FormatFloat(part/whole*100, 'f', 2, 64) + "%"
}

func isNumber(v any) bool {
	_, ok := v.(float64)
	return ok
}
