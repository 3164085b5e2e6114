package calculator

import "TickerBoard/internal/model"

const (
	smaPeriod = 20
	rsiPeriod = 14
)

// Summary is the indicator line printed under a time-series widget.
type Summary struct {
	Points    int     `json:"points"`
	Last      float64 `json:"last"`
	SMAPeriod int     `json:"smaPeriod"`
	SMA       float64 `json:"sma"`
	RSI       float64 `json:"rsi"`
	HasRSI    bool    `json:"hasRsi"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Position  float64 `json:"position"`
}

// Summarize computes indicators over the whole series. Short series use a
// shorter moving average and skip RSI. ok is false for an empty series.
func Summarize(ts *model.TimeSeries) (s Summary, ok bool) {
	if ts == nil || len(ts.Points) == 0 {
		return Summary{}, false
	}
	bars := ts.Points
	last := bars[len(bars)-1]
	s = Summary{Points: len(bars), Last: last.Close, SMAPeriod: min(smaPeriod, len(bars))}

	s.SMA, _ = SMA(closes(bars), s.SMAPeriod)
	if len(bars) > rsiPeriod {
		s.RSI, _ = RSI(bars, rsiPeriod)
		s.HasRSI = true
	}
	s.High, s.Low, _ = Range(bars, 0)
	s.Position, _ = Position(last.Close, s.High, s.Low)
	return s, true
}
