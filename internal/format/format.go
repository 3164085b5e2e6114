// Package format renders payload fields as display strings.
package format

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Field types as returned by InferType.
const (
	TypeString     = "string"
	TypeNumber     = "number"
	TypeCurrency   = "currency"
	TypePercentage = "percentage"
	TypeDate       = "date"
	TypeBoolean    = "boolean"
	TypeObject     = "object"
	TypeArray      = "array"
	TypeNull       = "null"
)

// Formats lists every supported format id.
var Formats = []string{
	"default",
	"uppercase", "lowercase", "capitalize",
	"currency", "currency-usd", "currency-eur", "currency-compact",
	"percentage", "percentage-2", "percentage-0", "percentage-sign",
	"decimal-0", "decimal-2", "scientific",
	"date-short", "date-long", "date-iso", "date-relative",
}

var (
	euroFormatter  = money.NewFormatter(2, ",", ".", "€", "1\u00a0$")
	leadingFloat   = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	currencyDigits = regexp.MustCompile(`[\d,]+\.?\d*`)

	now = time.Now
)

// FormatValue renders value with formatID. Unknown ids fall back to a
// default chosen by fieldType. It never panics; input that cannot be
// formatted comes back as its plain string form.
func FormatValue(value any, formatID, fieldType string) (out string) {
	if value == nil {
		return "N/A"
	}
	defer func() {
		if r := recover(); r != nil {
			out = Stringify(value)
		}
	}()

	switch formatID {
	case "uppercase":
		return strings.ToUpper(Stringify(value))
	case "lowercase":
		return strings.ToLower(Stringify(value))
	case "capitalize":
		s := Stringify(value)
		if s == "" {
			return s
		}
		r := []rune(s)
		return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
	}

	if strings.HasPrefix(formatID, "date-") {
		t, ok := parseTime(value)
		if !ok {
			return Stringify(value)
		}
		switch formatID {
		case "date-short":
			return shortDate(t)
		case "date-long":
			return t.UTC().Format("Monday, January 2, 2006")
		case "date-iso":
			return t.UTC().Format("2006-01-02")
		case "date-relative":
			return relative(t, now())
		}
	}

	switch formatID {
	case "currency", "currency-usd", "currency-eur", "currency-compact",
		"percentage", "percentage-2", "percentage-0", "percentage-sign",
		"decimal-0", "decimal-2", "scientific":
		f, ok := parseFloat(value)
		if !ok {
			return Stringify(value)
		}
		return formatNumber(f, formatID)
	}
	return formatDefault(value, fieldType)
}

func formatNumber(f float64, formatID string) string {
	switch formatID {
	case "currency", "currency-usd":
		return usd(f)
	case "currency-eur":
		return euroFormatter.Format(minorUnits(f))
	case "currency-compact":
		switch {
		case f >= 1e9:
			return "$" + fixed(f/1e9, 1) + "B"
		case f >= 1e6:
			return "$" + fixed(f/1e6, 1) + "M"
		case f >= 1e3:
			return "$" + fixed(f/1e3, 1) + "K"
		}
		return "$" + fixed(f, 2)
	case "percentage-0":
		return strconv.FormatInt(jsRound(f), 10) + "%"
	case "percentage-sign":
		sign := ""
		if f >= 0 {
			sign = "+"
		}
		return sign + fixed(f, 2) + "%"
	case "decimal-0":
		return humanize.Comma(jsRound(f))
	case "decimal-2":
		return fixed(f, 2)
	case "scientific":
		return exponential(f, 2)
	}
	return fixed(f, 2) + "%"
}

func formatDefault(value any, fieldType string) string {
	switch fieldType {
	case TypeNumber:
		if f, ok := numeric(value); ok {
			return humanize.Commaf(decimal.NewFromFloat(f).Round(3).InexactFloat64())
		}
	case TypeCurrency:
		m := currencyDigits.FindString(Stringify(value))
		if m == "" {
			break
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err == nil {
			return usd(f)
		}
	case TypeDate:
		if t, ok := parseTime(value); ok {
			return shortDate(t)
		}
	}
	return Stringify(value)
}

func usd(f float64) string {
	return money.New(minorUnits(f), money.USD).Display()
}

func minorUnits(f float64) int64 {
	return decimal.NewFromFloat(f).Round(2).Shift(2).IntPart()
}

func fixed(f float64, places int32) string {
	return decimal.NewFromFloat(f).StringFixed(places)
}

func jsRound(f float64) int64 {
	return int64(math.Floor(f + 0.5))
}

// exponential mimics toExponential: one digit exponent when it fits.
func exponential(f float64, digits int) string {
	s := strconv.FormatFloat(f, 'e', digits, 64)
	i := strings.IndexByte(s, 'e')
	if i < 0 {
		return s
	}
	mant, exp := s[:i], s[i+1:]
	sign := exp[:1]
	exp = strings.TrimLeft(exp[1:], "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + sign + exp
}

func shortDate(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

var relativeUnits = []struct {
	label   string
	seconds int64
}{
	{"year", 31536000},
	{"month", 2592000},
	{"week", 604800},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
}

func relative(t, ref time.Time) string {
	diff := int64(ref.Sub(t) / time.Second)
	for _, u := range relativeUnits {
		if n := diff / u.seconds; n > 0 {
			if n == 1 {
				return fmt.Sprintf("1 %s ago", u.label)
			}
			return fmt.Sprintf("%d %ss ago", n, u.label)
		}
	}
	return "just now"
}

// parseFloat reads the numeric prefix of value the way a browser would.
func parseFloat(value any) (float64, bool) {
	if f, ok := numeric(value); ok {
		return f, true
	}
	s, ok := value.(string)
	if !ok {
		return 0, false
	}
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func numeric(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case decimal.Decimal:
		f = v.InexactFloat64()
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	if f, ok := numeric(value); ok {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Time{}, false
}

// Stringify returns the plain string form of a field value.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	}
	return fmt.Sprint(value)
}
