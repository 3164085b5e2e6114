package model

import (
	"encoding/json"
	"fmt"

	"TickerBoard/internal/errs"
)

// PayloadKind tags a canonical payload variant.
type PayloadKind string

const (
	KindQuote      PayloadKind = "quote"
	KindList       PayloadKind = "list"
	KindTimeSeries PayloadKind = "timeSeries"
	KindSearch     PayloadKind = "searchResults"
	KindError      PayloadKind = "error"
)

// Payload is the provider-agnostic shape written into a widget.
type Payload interface {
	Kind() PayloadKind
}

// Quote is a single-symbol snapshot.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent string  `json:"changePercent"` // kept as formatted by the provider, e.g. "1.00%"
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Volume        int64   `json:"volume"`
	PreviousClose float64 `json:"previousClose"`
	TradingDay    string  `json:"tradingDay"`
}

// ListItem is one row of a movers list.
type ListItem struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent string  `json:"changePercent"`
	Volume        int64   `json:"volume"`
}

// List holds top gainers, losers or most active symbols.
type List struct {
	Category string     `json:"category"`
	Items    []ListItem `json:"items"`
}

// TimeSeries holds bars in chronological order, oldest first.
type TimeSeries struct {
	Symbol        string  `json:"symbol"`
	Interval      string  `json:"interval"`
	LastRefreshed string  `json:"lastRefreshed"`
	Points        []OHLCV `json:"points"`
}

// Latest returns the most recent bar, if any.
func (ts *TimeSeries) Latest() (OHLCV, bool) {
	if len(ts.Points) == 0 {
		return OHLCV{}, false
	}
	return ts.Points[len(ts.Points)-1], true
}

type SearchMatch struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Region      string  `json:"region"`
	MarketOpen  string  `json:"marketOpen"`
	MarketClose string  `json:"marketClose"`
	Timezone    string  `json:"timezone"`
	Currency    string  `json:"currency"`
	MatchScore  float64 `json:"matchScore"`
}

type SearchResults struct {
	Matches []SearchMatch `json:"matches"`
}

// ErrorPayload is produced when a provider answers 2xx with an embedded error.
type ErrorPayload struct {
	Message   string    `json:"message"`
	Provider  string    `json:"provider"`
	ErrorKind errs.Kind `json:"errorKind"`
}

func (*Quote) Kind() PayloadKind         { return KindQuote }
func (*List) Kind() PayloadKind          { return KindList }
func (*TimeSeries) Kind() PayloadKind    { return KindTimeSeries }
func (*SearchResults) Kind() PayloadKind { return KindSearch }
func (*ErrorPayload) Kind() PayloadKind  { return KindError }

// Err converts the payload into a refresh error.
func (p *ErrorPayload) Err() error {
	return errs.Provider(p.Provider, p.ErrorKind, p.Message)
}

type payloadEnvelope struct {
	Kind  PayloadKind     `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// EncodePayload wraps p with its kind tag so it can be decoded back.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	v, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(payloadEnvelope{Kind: p.Kind(), Value: v})
}

// DecodePayload is the inverse of EncodePayload.
func DecodePayload(data []byte) (Payload, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env payloadEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}
	var p Payload
	switch env.Kind {
	case KindQuote:
		p = &Quote{}
	case KindList:
		p = &List{}
	case KindTimeSeries:
		p = &TimeSeries{}
	case KindSearch:
		p = &SearchResults{}
	case KindError:
		p = &ErrorPayload{}
	default:
		return nil, fmt.Errorf("unknown payload kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Value, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Kind, err)
	}
	return p, nil
}
