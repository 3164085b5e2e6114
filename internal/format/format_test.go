package format

import (
	"strings"
	"testing"
	"time"

	"TickerBoard/internal/model"
)

func TestFormatValue_Determinism(t *testing.T) {
	tests := []struct {
		value     any
		format    string
		fieldType string
		want      string
	}{
		{12345.678, "currency-usd", TypeNumber, "$12,345.68"},
		{-3.14159, "percentage-sign", TypePercentage, "-3.14%"},
		{1_500_000, "currency-compact", TypeNumber, "$1.5M"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.value, tt.format, tt.fieldType); got != tt.want {
			t.Errorf("FormatValue(%v, %q) = %q, want %q", tt.value, tt.format, got, tt.want)
		}
	}
}

func TestFormatValue_Numbers(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		format string
		want   string
	}{
		{"usd negative", -12.345, "currency", "-$12.35"},
		{"usd from string", "99.5", "currency-usd", "$99.50"},
		{"eur", 12345.678, "currency-eur", "12.345,68\u00a0€"},
		{"compact billions", 2.25e9, "currency-compact", "$2.3B"},
		{"compact thousands", 1500, "currency-compact", "$1.5K"},
		{"compact small", 12.3, "currency-compact", "$12.30"},
		{"percentage", "1.2345%", "percentage", "1.23%"},
		{"percentage-2", 0.5, "percentage-2", "0.50%"},
		{"percentage-0 half up", 2.5, "percentage-0", "3%"},
		{"percentage-0 negative half", -2.5, "percentage-0", "-2%"},
		{"percentage-sign positive", 0, "percentage-sign", "+0.00%"},
		{"decimal-0", 1234567.6, "decimal-0", "1,234,568"},
		{"decimal-2", "3.14159", "decimal-2", "3.14"},
		{"scientific", 12345, "scientific", "1.23e+4"},
		{"scientific small", 0.000123, "scientific", "1.23e-4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.value, tt.format, TypeNumber); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatValue_Malformed(t *testing.T) {
	if got := FormatValue(nil, "currency-usd", TypeNumber); got != "N/A" {
		t.Errorf("nil = %q, want N/A", got)
	}
	if got := FormatValue("abc", "currency-usd", TypeString); got != "abc" {
		t.Errorf("non-numeric currency = %q, want raw value", got)
	}
	if got := FormatValue("not a date", "date-iso", TypeDate); got != "not a date" {
		t.Errorf("bad date = %q, want raw value", got)
	}
	if got := FormatValue(true, "decimal-2", TypeBoolean); got != "true" {
		t.Errorf("bool = %q, want true", got)
	}
}

func TestFormatValue_Strings(t *testing.T) {
	if got := FormatValue("aapl", "uppercase", TypeString); got != "AAPL" {
		t.Errorf("uppercase = %q", got)
	}
	if got := FormatValue("NASDAQ", "lowercase", TypeString); got != "nasdaq" {
		t.Errorf("lowercase = %q", got)
	}
	if got := FormatValue("hELLO wORLD", "capitalize", TypeString); got != "Hello world" {
		t.Errorf("capitalize = %q", got)
	}
}

func TestFormatValue_Dates(t *testing.T) {
	if got := FormatValue("2024-01-02", "date-short", TypeDate); got != "1/2/2024" {
		t.Errorf("date-short = %q", got)
	}
	if got := FormatValue("2024-01-02", "date-long", TypeDate); got != "Tuesday, January 2, 2024" {
		t.Errorf("date-long = %q", got)
	}
	if got := FormatValue("2024-01-02 16:00:00", "date-iso", TypeDate); got != "2024-01-02" {
		t.Errorf("date-iso = %q", got)
	}

	ref := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return ref }
	defer func() { now = time.Now }()

	tests := []struct {
		at   time.Time
		want string
	}{
		{ref.Add(-30 * time.Second), "just now"},
		{ref.Add(-time.Hour), "1 hour ago"},
		{ref.Add(-72 * time.Hour), "3 days ago"},
		{ref.Add(-15 * 24 * time.Hour), "2 weeks ago"},
		{ref.AddDate(-2, 0, 0), "2 years ago"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.at, "date-relative", TypeDate); got != tt.want {
			t.Errorf("relative(%s) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestFormatValue_Defaults(t *testing.T) {
	tests := []struct {
		value     any
		fieldType string
		want      string
	}{
		{1234.5678, TypeNumber, "1,234.568"},
		{"12", TypeNumber, "12"},
		{"Price: $1,234.5", TypeCurrency, "$1,234.50"},
		{"1.00%", TypePercentage, "1.00%"},
		{"2024-01-02", TypeDate, "1/2/2024"},
		{"IBM", TypeString, "IBM"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.value, "default", tt.fieldType); got != tt.want {
			t.Errorf("default(%v, %s) = %q, want %q", tt.value, tt.fieldType, got, tt.want)
		}
	}
	if got := FormatValue(42.0, "no-such-format", TypeNumber); got != "42" {
		t.Errorf("unknown format = %q, want 42", got)
	}
}

func TestFieldValue(t *testing.T) {
	data := map[string]any{
		"quote": map[string]any{"price": 150.25, "meta": nil},
		"items": []any{map[string]any{"symbol": "A"}},
		"Global Quote": map[string]any{
			"05. price": "150.25",
		},
	}
	if got := FieldValue(data, "quote.price"); got != 150.25 {
		t.Errorf("quote.price = %v", got)
	}
	if got := FieldValue(data, "items.0.symbol"); got != "A" {
		t.Errorf("items.0.symbol = %v", got)
	}
	for _, path := range []string{"quote.missing", "quote.price.deeper", "nope.x", "items.5.symbol", ""} {
		if got := FieldValue(data, path); got != nil {
			t.Errorf("FieldValue(%q) = %v, want nil", path, got)
		}
	}
	if got := FieldValue(data, `$["Global Quote"]["05. price"]`); got != "150.25" {
		t.Errorf("jsonpath lookup = %v", got)
	}
	if IsValidFieldPath(data, "quote.meta") {
		t.Error("null leaf should not be a valid path")
	}
	if !IsValidFieldPath(&model.Quote{Symbol: "IBM"}, "symbol") {
		t.Error("payloads should be addressable directly")
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"changePercent":       "Change Percent",
		"quote.previousClose": "Previous Close",
		"change_amount":       "Change Amount",
		"items.0.symbol":      "Symbol",
		"":                    "",
	}
	tests[`$["Global Quote"]["05. price"]`] = "05. Price"
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{nil, TypeNull},
		{[]any{1.0}, TypeArray},
		{map[string]any{}, TypeObject},
		{1.5, TypeNumber},
		{true, TypeBoolean},
		{"2024-01-02", TypeDate},
		{"1.00%", TypePercentage},
		{"$12.50", TypeCurrency},
		{"150", TypeCurrency},
		{"Apple Inc", TypeString},
	}
	for _, tt := range tests {
		if got := InferType(tt.value); got != tt.want {
			t.Errorf("InferType(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestRenderFields(t *testing.T) {
	w := model.Widget{
		Title: "Card Widget",
		Type:  model.WidgetCard,
		Config: model.WidgetConfig{
			Symbol:        "AAPL",
			DisplayFields: []string{"price", "changePercent", "volume", "missing"},
			FieldFormats:  map[string]string{"price": "currency-usd", "volume": "decimal-0"},
		},
		Data: &model.Quote{Symbol: "AAPL", Price: 12345.678, ChangePercent: "1.00%", Volume: 1234567},
	}
	got := RenderFields(w)
	want := []string{"$12,345.68", "1.00%", "1,234,567", "N/A"}
	if len(got) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(got))
	}
	for i, f := range got {
		if f.Value != want[i] {
			t.Errorf("field %s = %q, want %q", f.Path, f.Value, want[i])
		}
	}
	if got[1].Label != "Change Percent" {
		t.Errorf("label = %q", got[1].Label)
	}
}

func TestFields(t *testing.T) {
	fields := Fields(&model.Quote{Symbol: "IBM", ChangePercent: "1%"})
	byPath := make(map[string]FieldInfo, len(fields))
	for _, f := range fields {
		byPath[f.Path] = f
	}
	if byPath["changePercent"].Type != TypePercentage {
		t.Errorf("changePercent type = %q", byPath["changePercent"].Type)
	}
	if byPath["price"].Type != TypeNumber {
		t.Errorf("price type = %q", byPath["price"].Type)
	}
}

func TestRenderTextTimeSeries(t *testing.T) {
	w := model.Widget{
		Title:  "Chart",
		Type:   model.WidgetChart,
		Config: model.WidgetConfig{Symbol: "IBM"},
		Data: &model.TimeSeries{Symbol: "IBM", Interval: "daily", Points: []model.OHLCV{
			{Date: "2024-01-02", High: 11, Low: 9, Close: 10},
			{Date: "2024-01-03", High: 13, Low: 11, Close: 12},
			{Date: "2024-01-04", High: 15, Low: 13, Close: 14},
		}},
	}
	got := RenderText(w)
	for _, want := range []string{
		"Chart [chart] IBM",
		"3 points, last close $14.00 on 2024-01-04",
		"SMA(3) $12.00, range $9.00 - $15.00 (at 83%)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderText missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "RSI") {
		t.Errorf("short series should not print RSI:\n%s", got)
	}
}
