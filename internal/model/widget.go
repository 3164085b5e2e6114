package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"TickerBoard/internal/errs"
)

// WidgetType selects how a widget renders and which operation it polls.
type WidgetType string

const (
	WidgetTable WidgetType = "table"
	WidgetChart WidgetType = "chart"
	WidgetCard  WidgetType = "card"
)

// Valid reports whether t is a known widget type.
func (t WidgetType) Valid() bool {
	switch t {
	case WidgetTable, WidgetChart, WidgetCard:
		return true
	}
	return false
}

const (
	DefaultSymbol          = "AAPL"
	DefaultRefreshInterval = 30 * time.Second
)

// WidgetConfig is owned by its widget and only edited by user actions.
type WidgetConfig struct {
	Symbol            string            `json:"symbol" yaml:"symbol"`
	APIProvider       string            `json:"apiProvider" yaml:"api_provider"`
	RefreshIntervalMs int64             `json:"refreshIntervalMs" yaml:"refresh_interval_ms"`
	ChartType         string            `json:"chartType,omitempty" yaml:"chart_type,omitempty"`
	Interval          string            `json:"interval,omitempty" yaml:"interval,omitempty"` // daily, weekly, monthly, intraday
	CardType          string            `json:"cardType,omitempty" yaml:"card_type,omitempty"` // quote, gainers, losers, active
	TableType         string            `json:"tableType,omitempty" yaml:"table_type,omitempty"` // quote, search, gainers_losers, timeseries
	DisplayFields     []string          `json:"displayFields" yaml:"display_fields"`
	FieldFormats      map[string]string `json:"fieldFormats,omitempty" yaml:"field_formats,omitempty"`
	APIEndpoint       string            `json:"apiEndpoint,omitempty" yaml:"api_endpoint,omitempty"`
}

// RefreshInterval returns the polling cadence, falling back to the default.
func (c WidgetConfig) RefreshInterval() time.Duration {
	if c.RefreshIntervalMs <= 0 {
		return DefaultRefreshInterval
	}
	return time.Duration(c.RefreshIntervalMs) * time.Millisecond
}

// SymbolOrDefault returns the configured symbol or AAPL.
func (c WidgetConfig) SymbolOrDefault() string {
	if s := strings.TrimSpace(c.Symbol); s != "" {
		return s
	}
	return DefaultSymbol
}

// Fingerprint identifies the data-relevant part of the config. Display
// settings and the refresh interval are excluded.
func (c WidgetConfig) Fingerprint() string {
	return strings.Join([]string{
		c.SymbolOrDefault(), c.APIProvider, c.Interval, c.CardType, c.TableType, c.APIEndpoint,
	}, "|")
}

// Clone deep-copies slices and maps.
func (c WidgetConfig) Clone() WidgetConfig {
	out := c
	if c.DisplayFields != nil {
		out.DisplayFields = make([]string, len(c.DisplayFields))
		copy(out.DisplayFields, c.DisplayFields)
	}
	if c.FieldFormats != nil {
		out.FieldFormats = make(map[string]string, len(c.FieldFormats))
		for k, v := range c.FieldFormats {
			out.FieldFormats[k] = v
		}
	}
	return out
}

// FormatFor returns the format id configured for path, or "default".
func (c WidgetConfig) FormatFor(path string) string {
	if f, ok := c.FieldFormats[path]; ok && f != "" {
		return f
	}
	return "default"
}

// Widget is one dashboard unit. Config is user-owned; Data, Loading,
// Error, ErrorKind and LastUpdated are written by the refresh scheduler.
type Widget struct {
	ID          string
	Type        WidgetType
	Title       string
	Config      WidgetConfig
	Data        Payload
	Loading     bool
	Error       string
	ErrorKind   errs.Kind
	LastUpdated *time.Time
}

// Clone returns a copy safe to hand out of the store. Payloads are never
// mutated after normalization, so they are shared.
func (w Widget) Clone() Widget {
	out := w
	out.Config = w.Config.Clone()
	if w.LastUpdated != nil {
		t := *w.LastUpdated
		out.LastUpdated = &t
	}
	return out
}

type widgetJSON struct {
	ID          string          `json:"id"`
	Type        WidgetType      `json:"type"`
	Title       string          `json:"title"`
	Config      WidgetConfig    `json:"config"`
	Data        json.RawMessage `json:"data"`
	Loading     bool            `json:"loading"`
	Error       *string         `json:"error"`
	ErrorKind   errs.Kind       `json:"errorKind,omitempty"`
	LastUpdated *time.Time      `json:"lastUpdated"`
}

func (w Widget) MarshalJSON() ([]byte, error) {
	data, err := EncodePayload(w.Data)
	if err != nil {
		return nil, fmt.Errorf("encode widget %s data: %w", w.ID, err)
	}
	out := widgetJSON{
		ID: w.ID, Type: w.Type, Title: w.Title, Config: w.Config, Data: data,
		Loading: w.Loading, ErrorKind: w.ErrorKind, LastUpdated: w.LastUpdated,
	}
	if w.Error != "" {
		msg := w.Error
		out.Error = &msg
	}
	return json.Marshal(out)
}

func (w *Widget) UnmarshalJSON(b []byte) error {
	var in widgetJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	data, err := DecodePayload(in.Data)
	if err != nil {
		return fmt.Errorf("decode widget %s data: %w", in.ID, err)
	}
	*w = Widget{
		ID: in.ID, Type: in.Type, Title: in.Title, Config: in.Config, Data: data,
		Loading: in.Loading, ErrorKind: in.ErrorKind, LastUpdated: in.LastUpdated,
	}
	if in.Error != nil {
		w.Error = *in.Error
	}
	return nil
}
