package provider

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"TickerBoard/internal/model"
)

// Endpoint operations.
const (
	OpQuote    = "quote"
	OpSearch   = "search"
	OpIntraday = "intraday"
	OpDaily    = "daily"
	OpWeekly   = "weekly"
	OpMonthly  = "monthly"
	OpMovers   = "movers"
	OpCandles  = "candles"
	OpCustom   = "custom"
)

// CandleWindow is how far back {from} reaches.
const CandleWindow = 30 * 24 * time.Hour

// ErrNoEndpoint means the provider has no template for the operation.
var ErrNoEndpoint = errors.New("endpoint not configured")

// Request is a rendered provider call.
type Request struct {
	Provider  string
	Operation string
	Symbol    string
	URL       string
}

// BuildRequest renders the endpoint template for op. Custom widget
// endpoints may be absolute URLs or paths relative to the base URL.
func BuildRequest(p model.ProviderConfig, op string, w model.Widget, now time.Time) (Request, error) {
	tmpl := p.Endpoints[op]
	if op == OpCustom {
		tmpl = w.Config.APIEndpoint
	}
	if tmpl == "" {
		return Request{}, fmt.Errorf("%s %s: %w", p.ID, op, ErrNoEndpoint)
	}
	symbol := w.Config.SymbolOrDefault()
	rendered := strings.NewReplacer(
		"{symbol}", url.QueryEscape(symbol),
		"{apiKey}", url.QueryEscape(p.APIKey),
		"{from}", strconv.FormatInt(now.Add(-CandleWindow).Unix(), 10),
		"{to}", strconv.FormatInt(now.Unix(), 10),
	).Replace(tmpl)

	full := rendered
	if !strings.HasPrefix(rendered, "http://") && !strings.HasPrefix(rendered, "https://") {
		full = strings.TrimRight(p.BaseURL, "/") + ensureLeading(rendered)
	}
	if _, err := url.Parse(full); err != nil {
		return Request{}, fmt.Errorf("%s %s: invalid URL: %w", p.ID, op, err)
	}
	return Request{Provider: p.ID, Operation: op, Symbol: symbol, URL: full}, nil
}

// ensureLeading keeps "?query" templates attached to the base path and
// gives bare paths a slash.
func ensureLeading(s string) string {
	if s == "" || strings.HasPrefix(s, "/") || strings.HasPrefix(s, "?") {
		return s
	}
	return "/" + s
}
