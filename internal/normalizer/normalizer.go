// Package normalizer maps provider-native JSON into canonical payloads.
package normalizer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"TickerBoard/internal/errs"
	"TickerBoard/internal/model"
)

// Request carries what the normalizer needs to know about the widget.
type Request struct {
	WidgetType model.WidgetType
	Provider   string
	Symbol     string
	Category   string // gainers, losers, active; empty means every list
	Now        time.Time
}

func (r Request) now() time.Time {
	if r.Now.IsZero() {
		return time.Now()
	}
	return r.Now
}

func (r Request) symbol() string {
	if r.Symbol == "" {
		return "N/A"
	}
	return r.Symbol
}

// Normalize decodes raw and maps it to a payload. A nil payload with a nil
// error means the shape was not recognized and there is nothing to render.
func Normalize(raw []byte, req Request) (model.Payload, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errs.Provider(req.Provider, errs.KindProvider, fmt.Sprintf("%s: invalid JSON response: %v", req.Provider, err))
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, nil
	}
	if p := nativeShape(obj, req); p != nil {
		return p, nil
	}
	if p := errorMarkers(obj, req.Provider); p != nil {
		return p, nil
	}
	if p := minimalQuote(obj, req); p != nil {
		return p, nil
	}
	if p := candles(obj, req); p != nil {
		return p, nil
	}
	if p := search(obj); p != nil {
		return p, nil
	}
	return nil, nil
}

// DetectError reports a provider-embedded error in an otherwise successful
// response. Responses carrying data are never treated as errors.
func DetectError(raw []byte, provider string) *model.ErrorPayload {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	if nativeShape(obj, Request{Provider: provider}) != nil {
		return nil
	}
	return errorMarkers(obj, provider)
}

func nativeShape(obj map[string]any, req Request) model.Payload {
	if gq, ok := obj["Global Quote"].(map[string]any); ok && len(gq) > 0 {
		return globalQuote(gq, req)
	}
	for key, v := range obj {
		if !strings.Contains(key, "Time Series") {
			continue
		}
		if series, ok := v.(map[string]any); ok {
			return timeSeries(obj, key, series, req)
		}
	}
	if matches, ok := obj["bestMatches"].([]any); ok {
		return bestMatches(matches)
	}
	if hasAny(obj, "top_gainers", "top_losers", "most_actively_traded") {
		return movers(obj, req)
	}
	return nil
}

func globalQuote(gq map[string]any, req Request) *model.Quote {
	symbol := str(gq["01. symbol"])
	if symbol == "" {
		symbol = req.symbol()
	}
	return &model.Quote{
		Symbol:        symbol,
		Open:          num(gq["02. open"]),
		High:          num(gq["03. high"]),
		Low:           num(gq["04. low"]),
		Price:         num(gq["05. price"]),
		Volume:        integer(gq["06. volume"]),
		TradingDay:    str(gq["07. latest trading day"]),
		PreviousClose: num(gq["08. previous close"]),
		Change:        num(gq["09. change"]),
		ChangePercent: orString(str(gq["10. change percent"]), "0%"),
	}
}

func timeSeries(obj map[string]any, key string, series map[string]any, req Request) *model.TimeSeries {
	ts := &model.TimeSeries{Symbol: req.symbol(), Interval: intervalFromKey(key)}
	if meta, ok := obj["Meta Data"].(map[string]any); ok {
		if s := str(meta["2. Symbol"]); s != "" {
			ts.Symbol = s
		}
		ts.LastRefreshed = str(meta["3. Last Refreshed"])
	}
	dates := make([]string, 0, len(series))
	for d := range series {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	ts.Points = make([]model.OHLCV, 0, len(dates))
	for _, d := range dates {
		bar, _ := series[d].(map[string]any)
		ts.Points = append(ts.Points, model.OHLCV{
			Date:   d,
			Time:   parseDate(d),
			Open:   num(bar["1. open"]),
			High:   num(bar["2. high"]),
			Low:    num(bar["3. low"]),
			Close:  num(bar["4. close"]),
			Volume: integer(bar["5. volume"]),
		})
	}
	if ts.LastRefreshed == "" && len(dates) > 0 {
		ts.LastRefreshed = dates[len(dates)-1]
	}
	return ts
}

func intervalFromKey(key string) string {
	switch {
	case strings.Contains(key, "Weekly"):
		return "weekly"
	case strings.Contains(key, "Monthly"):
		return "monthly"
	case strings.Contains(key, "min)"):
		return "intraday"
	}
	return "daily"
}

func parseDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", model.DateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

func bestMatches(matches []any) *model.SearchResults {
	out := &model.SearchResults{Matches: make([]model.SearchMatch, 0, len(matches))}
	for _, m := range matches {
		item, ok := m.(map[string]any)
		if !ok {
			continue
		}
		out.Matches = append(out.Matches, model.SearchMatch{
			Symbol:      str(item["1. symbol"]),
			Name:        str(item["2. name"]),
			Type:        str(item["3. type"]),
			Region:      str(item["4. region"]),
			MarketOpen:  str(item["5. marketOpen"]),
			MarketClose: str(item["6. marketClose"]),
			Timezone:    str(item["7. timezone"]),
			Currency:    str(item["8. currency"]),
			MatchScore:  num(item["9. matchScore"]),
		})
	}
	return out
}

// cardListLimit caps how many movers a card shows.
const cardListLimit = 5

var moverKeys = map[string]string{
	"gainers": "top_gainers",
	"losers":  "top_losers",
	"active":  "most_actively_traded",
}

func movers(obj map[string]any, req Request) *model.List {
	var keys []string
	category := req.Category
	if key, ok := moverKeys[category]; ok {
		keys = []string{key}
	} else {
		category = "all"
		keys = []string{"top_gainers", "top_losers", "most_actively_traded"}
	}
	out := &model.List{Category: category, Items: []model.ListItem{}}
	for _, key := range keys {
		items, _ := obj[key].([]any)
		for _, it := range items {
			row, ok := it.(map[string]any)
			if !ok {
				continue
			}
			out.Items = append(out.Items, model.ListItem{
				Symbol:        str(row["ticker"]),
				Price:         num(row["price"]),
				Change:        num(row["change_amount"]),
				ChangePercent: str(row["change_percentage"]),
				Volume:        integer(row["volume"]),
			})
		}
	}
	if req.WidgetType == model.WidgetCard && len(out.Items) > cardListLimit {
		out.Items = out.Items[:cardListLimit]
	}
	return out
}

const rateLimitMessage = "API call frequency limit reached. Please try again later."

func errorMarkers(obj map[string]any, provider string) *model.ErrorPayload {
	if _, ok := obj["Note"]; ok {
		return &model.ErrorPayload{Message: rateLimitMessage, Provider: provider, ErrorKind: errs.KindRateLimit}
	}
	if info, ok := obj["Information"].(string); ok && info != "" {
		return &model.ErrorPayload{Message: info, Provider: provider, ErrorKind: classify(info)}
	}
	if msg, ok := obj["Error Message"].(string); ok && msg != "" {
		return &model.ErrorPayload{Message: msg, Provider: provider, ErrorKind: errs.KindProvider}
	}
	if v, ok := obj["error"]; ok && v != nil {
		msg := str(v)
		if m, ok := v.(map[string]any); ok {
			msg = str(m["message"])
		}
		if msg == "" {
			msg = fmt.Sprintf("%v", v)
		}
		return &model.ErrorPayload{Message: msg, Provider: provider, ErrorKind: classify(msg)}
	}
	return nil
}

func classify(msg string) errs.Kind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "premium"), strings.Contains(lower, "don't have access"):
		return errs.KindPremium
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "frequency"), strings.Contains(lower, "requests per"):
		return errs.KindRateLimit
	}
	return errs.KindProvider
}

func minimalQuote(obj map[string]any, req Request) model.Payload {
	if !isNumber(obj["c"]) {
		return nil
	}
	if _, series := obj["t"].([]any); series {
		return nil
	}
	c, pc := num(obj["c"]), num(obj["pc"])
	today := req.now().UTC().Format(model.DateLayout)
	if req.WidgetType == model.WidgetChart {
		day, _ := time.ParseInLocation(model.DateLayout, today, time.UTC)
		return &model.TimeSeries{
			Symbol:        req.symbol(),
			Interval:      "daily",
			LastRefreshed: today,
			Points: []model.OHLCV{{
				Date: today, Time: day,
				Open: num(obj["o"]), High: num(obj["h"]), Low: num(obj["l"]), Close: c,
			}},
		}
	}
	return &model.Quote{
		Symbol:        req.symbol(),
		Price:         c,
		Change:        c - pc,
		ChangePercent: percentOf(c-pc, pc),
		Open:          num(obj["o"]),
		High:          num(obj["h"]),
		Low:           num(obj["l"]),
		PreviousClose: pc,
		TradingDay:    today,
	}
}

func candles(obj map[string]any, req Request) model.Payload {
	ts, ok := obj["t"].([]any)
	if !ok {
		return nil
	}
	if _, ok := obj["c"].([]any); !ok {
		return nil
	}
	if s, _ := obj["s"].(string); s == "no_data" {
		return nil
	}
	at := func(key string, i int) any {
		arr, _ := obj[key].([]any)
		if i < len(arr) {
			return arr[i]
		}
		return nil
	}
	points := make([]model.OHLCV, 0, len(ts))
	for i, raw := range ts {
		t := time.Unix(integer(raw), 0).UTC()
		points = append(points, model.OHLCV{
			Date:   t.Format(model.DateLayout),
			Time:   t,
			Open:   num(at("o", i)),
			High:   num(at("h", i)),
			Low:    num(at("l", i)),
			Close:  num(at("c", i)),
			Volume: integer(at("v", i)),
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	out := &model.TimeSeries{Symbol: req.symbol(), Interval: "daily", Points: points}
	if last, ok := out.Latest(); ok {
		out.LastRefreshed = last.Date
	}
	return out
}

func search(obj map[string]any) model.Payload {
	results, ok := obj["result"].([]any)
	if !ok {
		return nil
	}
	out := &model.SearchResults{Matches: make([]model.SearchMatch, 0, len(results))}
	for _, r := range results {
		item, ok := r.(map[string]any)
		if !ok {
			continue
		}
		out.Matches = append(out.Matches, model.SearchMatch{
			Symbol:     str(item["symbol"]),
			Name:       str(item["description"]),
			Type:       str(item["type"]),
			MatchScore: 1,
		})
	}
	return out
}

func hasAny(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func orString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
