package provider

import (
	"errors"
	"time"

	"TickerBoard/internal/errs"
	"TickerBoard/internal/model"
	"TickerBoard/internal/normalizer"
)

// Strategy is what one provider contributes to a fetch cycle.
type Strategy struct {
	// Operations lists the operations to try for w, best first.
	Operations func(w model.Widget) []string
	// Normalize maps a raw response into a payload.
	Normalize func(raw []byte, w model.Widget, now time.Time) (model.Payload, error)
	// Explain rewrites a failed call into the message shown on the widget.
	Explain func(err error) error
}

var strategies = map[string]Strategy{
	AlphaVantage: {Operations: alphaVantageOperations, Normalize: normalize(AlphaVantage), Explain: passThrough},
	Finnhub:      {Operations: finnhubOperations, Normalize: normalize(Finnhub), Explain: explainFinnhub},
}

// StrategyFor returns the strategy registered for id. Custom providers get
// a generic one that speaks either response dialect.
func StrategyFor(id string) Strategy {
	if s, ok := strategies[id]; ok {
		return s
	}
	return Strategy{Operations: genericOperations, Normalize: normalize(id), Explain: passThrough}
}

// CanFallBack reports whether a failed operation should give way to the
// next candidate instead of failing the cycle.
func CanFallBack(err error) bool {
	return errors.Is(err, ErrNoEndpoint) || errs.KindOf(err) == errs.KindPremium
}

func normalize(id string) func([]byte, model.Widget, time.Time) (model.Payload, error) {
	return func(raw []byte, w model.Widget, now time.Time) (model.Payload, error) {
		return normalizer.Normalize(raw, normalizer.Request{
			WidgetType: w.Type,
			Provider:   id,
			Symbol:     w.Config.SymbolOrDefault(),
			Category:   category(w),
			Now:        now,
		})
	}
}

func category(w model.Widget) string {
	if w.Type == model.WidgetCard {
		switch w.Config.CardType {
		case "gainers", "losers", "active":
			return w.Config.CardType
		}
	}
	return ""
}

func seriesOperation(interval string) string {
	switch interval {
	case OpIntraday, OpWeekly, OpMonthly:
		return interval
	}
	return OpDaily
}

func alphaVantageOperations(w model.Widget) []string {
	if w.Config.APIEndpoint != "" {
		return []string{OpCustom}
	}
	switch w.Type {
	case model.WidgetChart:
		return []string{seriesOperation(w.Config.Interval)}
	case model.WidgetCard:
		if category(w) != "" {
			return []string{OpMovers}
		}
	case model.WidgetTable:
		switch w.Config.TableType {
		case "search":
			return []string{OpSearch}
		case "gainers_losers":
			return []string{OpMovers}
		case "timeseries":
			return []string{seriesOperation(w.Config.Interval)}
		}
	}
	return []string{OpQuote}
}

func finnhubOperations(w model.Widget) []string {
	if w.Config.APIEndpoint != "" {
		return []string{OpCustom}
	}
	switch w.Type {
	case model.WidgetChart:
		return []string{OpCandles, OpQuote}
	case model.WidgetTable:
		switch w.Config.TableType {
		case "search":
			return []string{OpSearch}
		case "timeseries":
			return []string{OpCandles, OpQuote}
		}
	}
	return []string{OpQuote}
}

func genericOperations(w model.Widget) []string {
	if w.Config.APIEndpoint != "" {
		return []string{OpCustom}
	}
	switch w.Type {
	case model.WidgetChart:
		return []string{OpCandles, seriesOperation(w.Config.Interval), OpQuote}
	case model.WidgetTable:
		if w.Config.TableType == "search" {
			return []string{OpSearch}
		}
	}
	return []string{OpQuote}
}

func passThrough(err error) error { return err }

const finnhubPremiumMessage = "Finnhub API: This endpoint requires a premium subscription. Try switching to Alpha Vantage or upgrade your Finnhub plan."

func explainFinnhub(err error) error {
	if errs.KindOf(err) != errs.KindPremium {
		return err
	}
	return &errs.Error{Kind: errs.KindPremium, Provider: Finnhub, Message: finnhubPremiumMessage, Err: err}
}
