package normalizer

import (
	"encoding/json"
	"fmt"
	"strconv"

	"TickerBoard/internal/model"
)

// Denormalize renders a payload back into the native shape of provider.
// It is used by fixtures and by the snapshot export.
func Denormalize(p model.Payload, provider string) ([]byte, error) {
	var doc any
	switch v := p.(type) {
	case *model.Quote:
		if provider == "finnhub" {
			doc = map[string]any{
				"c": v.Price, "o": v.Open, "h": v.High, "l": v.Low, "pc": v.PreviousClose,
				"d": v.Change,
			}
			break
		}
		doc = map[string]any{"Global Quote": map[string]string{
			"01. symbol":             v.Symbol,
			"02. open":               ftoa(v.Open),
			"03. high":               ftoa(v.High),
			"04. low":                ftoa(v.Low),
			"05. price":              ftoa(v.Price),
			"06. volume":             strconv.FormatInt(v.Volume, 10),
			"07. latest trading day": v.TradingDay,
			"08. previous close":     ftoa(v.PreviousClose),
			"09. change":             ftoa(v.Change),
			"10. change percent":     v.ChangePercent,
		}}
	case *model.TimeSeries:
		if provider == "finnhub" {
			doc = candleDoc(v)
			break
		}
		bars := make(map[string]map[string]string, len(v.Points))
		for _, pt := range v.Points {
			bars[pt.Date] = map[string]string{
				"1. open":   ftoa(pt.Open),
				"2. high":   ftoa(pt.High),
				"3. low":    ftoa(pt.Low),
				"4. close":  ftoa(pt.Close),
				"5. volume": strconv.FormatInt(pt.Volume, 10),
			}
		}
		doc = map[string]any{
			"Meta Data": map[string]string{
				"2. Symbol":         v.Symbol,
				"3. Last Refreshed": v.LastRefreshed,
			},
			seriesKey(v.Interval): bars,
		}
	case *model.SearchResults:
		if provider == "finnhub" {
			res := make([]map[string]string, 0, len(v.Matches))
			for _, m := range v.Matches {
				res = append(res, map[string]string{"symbol": m.Symbol, "description": m.Name, "type": m.Type})
			}
			doc = map[string]any{"count": len(res), "result": res}
			break
		}
		matches := make([]map[string]string, 0, len(v.Matches))
		for _, m := range v.Matches {
			matches = append(matches, map[string]string{
				"1. symbol":      m.Symbol,
				"2. name":        m.Name,
				"3. type":        m.Type,
				"4. region":      m.Region,
				"5. marketOpen":  m.MarketOpen,
				"6. marketClose": m.MarketClose,
				"7. timezone":    m.Timezone,
				"8. currency":    m.Currency,
				"9. matchScore":  ftoa(m.MatchScore),
			})
		}
		doc = map[string]any{"bestMatches": matches}
	case *model.List:
		key, ok := moverKeys[v.Category]
		if !ok {
			key = "top_gainers"
		}
		rows := make([]map[string]string, 0, len(v.Items))
		for _, it := range v.Items {
			rows = append(rows, map[string]string{
				"ticker":            it.Symbol,
				"price":             ftoa(it.Price),
				"change_amount":     ftoa(it.Change),
				"change_percentage": it.ChangePercent,
				"volume":            strconv.FormatInt(it.Volume, 10),
			})
		}
		doc = map[string]any{key: rows}
	case *model.ErrorPayload:
		if provider == "finnhub" {
			doc = map[string]string{"error": v.Message}
			break
		}
		doc = map[string]string{"Error Message": v.Message}
	case nil:
		return []byte("{}"), nil
	default:
		return nil, fmt.Errorf("denormalize: unsupported payload %T", p)
	}
	return json.Marshal(doc)
}

func candleDoc(ts *model.TimeSeries) map[string]any {
	n := len(ts.Points)
	t, o, h, l, c, v := make([]int64, n), make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n), make([]int64, n)
	for i, pt := range ts.Points {
		t[i] = pt.Time.Unix()
		o[i], h[i], l[i], c[i], v[i] = pt.Open, pt.High, pt.Low, pt.Close, pt.Volume
	}
	status := "ok"
	if n == 0 {
		status = "no_data"
	}
	return map[string]any{"s": status, "t": t, "o": o, "h": h, "l": l, "c": c, "v": v}
}

func seriesKey(interval string) string {
	switch interval {
	case "weekly":
		return "Weekly Time Series"
	case "monthly":
		return "Monthly Time Series"
	case "intraday":
		return "Time Series (5min)"
	}
	return "Time Series (Daily)"
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
