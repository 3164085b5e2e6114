// Package provider holds the market-data provider definitions and decides
// which provider and endpoint serve a widget.
package provider

import (
	"fmt"
	"sync"
	"time"

	"TickerBoard/internal/errs"
	"TickerBoard/internal/model"
)

const (
	AlphaVantage = "alphavantage"
	Finnhub      = "finnhub"
)

// Defaults returns the built-in providers in registry order. Both start
// enabled without a key.
func Defaults() []model.ProviderConfig {
	return []model.ProviderConfig{
		{
			ID:      AlphaVantage,
			Name:    "Alpha Vantage",
			BaseURL: "https://www.alphavantage.co/query",
			Enabled: true,
			Endpoints: map[string]string{
				OpQuote:    "?function=GLOBAL_QUOTE&symbol={symbol}&apikey={apiKey}",
				OpSearch:   "?function=SYMBOL_SEARCH&keywords={symbol}&apikey={apiKey}",
				OpIntraday: "?function=TIME_SERIES_INTRADAY&symbol={symbol}&interval=5min&apikey={apiKey}",
				OpDaily:    "?function=TIME_SERIES_DAILY&symbol={symbol}&apikey={apiKey}",
				OpWeekly:   "?function=TIME_SERIES_WEEKLY&symbol={symbol}&apikey={apiKey}",
				OpMonthly:  "?function=TIME_SERIES_MONTHLY&symbol={symbol}&apikey={apiKey}",
				OpMovers:   "?function=TOP_GAINERS_LOSERS&apikey={apiKey}",
			},
		},
		{
			ID:      Finnhub,
			Name:    "Finnhub",
			BaseURL: "https://finnhub.io/api/v1",
			Enabled: true,
			Endpoints: map[string]string{
				OpQuote:   "/quote?symbol={symbol}&token={apiKey}",
				OpSearch:  "/search?q={symbol}&token={apiKey}",
				OpCandles: "/stock/candle?symbol={symbol}&resolution=D&from={from}&to={to}&token={apiKey}",
			},
		},
	}
}

// Patch carries a partial provider update. Nil fields are left alone.
type Patch struct {
	Name      *string           `json:"name,omitempty"`
	BaseURL   *string           `json:"baseUrl,omitempty"`
	APIKey    *string           `json:"apiKey,omitempty"`
	Enabled   *bool             `json:"enabled,omitempty"`
	Endpoints map[string]string `json:"endpoints,omitempty"`
}

// Stats is the display-only call counter.
type Stats struct {
	Calls       int64            `json:"calls"`
	LastCall    *time.Time       `json:"lastCall"`
	PerProvider map[string]int64 `json:"perProvider"`
}

// Registry is the mutex-guarded provider table.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	providers map[string]model.ProviderConfig
	stats     Stats
	onChange  []func([]model.ProviderConfig)
	now       func() time.Time
}

// NewRegistry starts from the built-in defaults and overlays overrides by id.
// Unknown ids are appended as custom providers.
func NewRegistry(overrides []model.ProviderConfig) *Registry {
	r := &Registry{
		providers: make(map[string]model.ProviderConfig),
		stats:     Stats{PerProvider: make(map[string]int64)},
		now:       time.Now,
	}
	r.replace(overrides)
	return r
}

func (r *Registry) replace(overrides []model.ProviderConfig) {
	r.order = r.order[:0]
	r.providers = make(map[string]model.ProviderConfig)
	for _, p := range Defaults() {
		r.order = append(r.order, p.ID)
		r.providers[p.ID] = p
	}
	for _, o := range overrides {
		if o.ID == "" {
			continue
		}
		base, known := r.providers[o.ID]
		if !known {
			r.order = append(r.order, o.ID)
			r.providers[o.ID] = o.Clone()
			continue
		}
		r.providers[o.ID] = merge(base, o)
	}
}

// merge overlays non-empty fields of o onto base. Enabled always comes
// from o since false is meaningful.
func merge(base, o model.ProviderConfig) model.ProviderConfig {
	out := base.Clone()
	if o.Name != "" {
		out.Name = o.Name
	}
	if o.BaseURL != "" {
		out.BaseURL = o.BaseURL
	}
	if o.APIKey != "" {
		out.APIKey = o.APIKey
	}
	out.Enabled = o.Enabled
	for op, tmpl := range o.Endpoints {
		out.Endpoints[op] = tmpl
	}
	return out
}

// OnChange registers fn to run after every mutation with the full list.
func (r *Registry) OnChange(fn func([]model.ProviderConfig)) {
	r.mu.Lock()
	r.onChange = append(r.onChange, fn)
	r.mu.Unlock()
}

func (r *Registry) notify() {
	r.mu.RLock()
	fns := append([]func([]model.ProviderConfig){}, r.onChange...)
	r.mu.RUnlock()
	if len(fns) == 0 {
		return
	}
	list := r.List()
	for _, fn := range fns {
		fn(list)
	}
}

// Get returns a copy of the provider with id.
func (r *Registry) Get(id string) (model.ProviderConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return model.ProviderConfig{}, false
	}
	return p.Clone(), true
}

// List returns every provider in registry order.
func (r *Registry) List() []model.ProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ProviderConfig, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id].Clone())
	}
	return out
}

// Resolve picks the provider for a widget. The preferred provider is used
// when it is enabled; otherwise the first enabled provider in registry order.
// Missing keys and an empty registry fail with a configuration error.
func (r *Registry) Resolve(preferred string) (model.ProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.providers[preferred]; ok && p.Enabled {
		if p.APIKey == "" {
			return model.ProviderConfig{}, errs.Configuration("%s API key not configured", p.Name)
		}
		return p.Clone(), nil
	}

	var keyless *model.ProviderConfig
	for _, id := range r.order {
		p := r.providers[id]
		if !p.Enabled {
			continue
		}
		if p.APIKey != "" {
			return p.Clone(), nil
		}
		if keyless == nil {
			keyless = &p
		}
	}
	if keyless != nil {
		return model.ProviderConfig{}, errs.Configuration("%s API key not configured", keyless.Name)
	}
	return model.ProviderConfig{}, errs.Configuration("no enabled API provider available")
}

// IncrementCalls records one successful outbound call.
func (r *Registry) IncrementCalls(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.now()
	r.stats.Calls++
	r.stats.LastCall = &t
	r.stats.PerProvider[id]++
}

// Stats returns a snapshot of the call counter.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := Stats{Calls: r.stats.Calls, PerProvider: make(map[string]int64, len(r.stats.PerProvider))}
	if r.stats.LastCall != nil {
		t := *r.stats.LastCall
		out.LastCall = &t
	}
	for k, v := range r.stats.PerProvider {
		out.PerProvider[k] = v
	}
	return out
}

// Update applies a partial update to provider id.
func (r *Registry) Update(id string, patch Patch) (model.ProviderConfig, error) {
	r.mu.Lock()
	p, ok := r.providers[id]
	if !ok {
		r.mu.Unlock()
		return model.ProviderConfig{}, errs.NewNotFoundError(fmt.Sprintf("provider %s not found", id))
	}
	p = p.Clone()
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.BaseURL != nil {
		p.BaseURL = *patch.BaseURL
	}
	if patch.APIKey != nil {
		p.APIKey = *patch.APIKey
	}
	if patch.Enabled != nil {
		p.Enabled = *patch.Enabled
	}
	if p.Endpoints == nil && len(patch.Endpoints) > 0 {
		p.Endpoints = make(map[string]string, len(patch.Endpoints))
	}
	for op, tmpl := range patch.Endpoints {
		if tmpl == "" {
			delete(p.Endpoints, op)
			continue
		}
		p.Endpoints[op] = tmpl
	}
	r.providers[id] = p
	r.mu.Unlock()

	r.notify()
	return p.Clone(), nil
}

// Toggle flips the enabled flag of provider id.
func (r *Registry) Toggle(id string) (model.ProviderConfig, error) {
	r.mu.RLock()
	p, ok := r.providers[id]
	r.mu.RUnlock()
	if !ok {
		return model.ProviderConfig{}, errs.NewNotFoundError(fmt.Sprintf("provider %s not found", id))
	}
	enabled := !p.Enabled
	return r.Update(id, Patch{Enabled: &enabled})
}

// Add registers a custom provider.
func (r *Registry) Add(p model.ProviderConfig) error {
	if p.ID == "" || p.BaseURL == "" {
		return errs.NewValidationError("provider id and base URL are required")
	}
	r.mu.Lock()
	if _, exists := r.providers[p.ID]; exists {
		r.mu.Unlock()
		return errs.NewValidationError(fmt.Sprintf("provider %s already exists", p.ID))
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	r.order = append(r.order, p.ID)
	r.providers[p.ID] = p.Clone()
	r.mu.Unlock()

	r.notify()
	return nil
}

// Reset restores the built-in providers and drops custom ones. API keys
// are cleared as well.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.replace(nil)
	r.mu.Unlock()
	r.notify()
}

// Reload applies a config file change. Only the fields that differ between
// prev and next overrides are written, so runtime edits such as API keys
// set through the API and custom providers survive unrelated file edits.
// Providers that disappear from the file are left as they are.
func (r *Registry) Reload(prev, next []model.ProviderConfig) {
	before := make(map[string]model.ProviderConfig, len(prev))
	for _, p := range prev {
		before[p.ID] = p
	}

	r.mu.Lock()
	changed := false
	for _, o := range next {
		if o.ID == "" {
			continue
		}
		cur, exists := r.providers[o.ID]
		old, listed := before[o.ID]
		switch {
		case !exists:
			r.order = append(r.order, o.ID)
			r.providers[o.ID] = o.Clone()
			changed = true
		case !listed:
			r.providers[o.ID] = merge(cur, o)
			changed = true
		default:
			if p, ok := applyDiff(cur, old, o); ok {
				r.providers[o.ID] = p
				changed = true
			}
		}
	}
	r.mu.Unlock()

	if changed {
		r.notify()
	}
}

// applyDiff copies onto cur every field that changed from old to next.
func applyDiff(cur, old, next model.ProviderConfig) (model.ProviderConfig, bool) {
	out := cur.Clone()
	changed := false
	if next.Name != old.Name && next.Name != "" {
		out.Name, changed = next.Name, true
	}
	if next.BaseURL != old.BaseURL && next.BaseURL != "" {
		out.BaseURL, changed = next.BaseURL, true
	}
	if next.APIKey != old.APIKey {
		out.APIKey, changed = next.APIKey, true
	}
	if next.Enabled != old.Enabled {
		out.Enabled, changed = next.Enabled, true
	}
	for op, tmpl := range next.Endpoints {
		if old.Endpoints[op] != tmpl {
			out.Endpoints[op], changed = tmpl, true
		}
	}
	return out, changed
}
