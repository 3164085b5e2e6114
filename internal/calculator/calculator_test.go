package calculator

import (
	"math"
	"testing"

	"TickerBoard/internal/model"
)

func bars(closes ...float64) []model.OHLCV {
	out := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = model.OHLCV{Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return out
}

func TestSMA(t *testing.T) {
	got, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != 4 {
		t.Errorf("SMA = %v, want 4", got)
	}
	if _, err := SMA([]float64{1}, 3); err == nil {
		t.Error("expected error for short input")
	}
	if _, err := SMA([]float64{1}, 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	got, err := RSI(bars(rising...), 14)
	if err != nil {
		t.Fatal(err)
	}
	if got != 100 {
		t.Errorf("RSI of rising series = %v, want 100", got)
	}

	got, _ = RSI(bars(1, 2, 3), 14)
	if got != 50 {
		t.Errorf("RSI of short series = %v, want 50", got)
	}
}

func TestRangeAndPosition(t *testing.T) {
	high, low, err := Range(bars(10, 20, 15), 0)
	if err != nil {
		t.Fatal(err)
	}
	if high != 21 || low != 9 {
		t.Errorf("Range = %v/%v, want 21/9", high, low)
	}
	high, low, _ = Range(bars(10, 20, 15), 1)
	if high != 16 || low != 14 {
		t.Errorf("windowed Range = %v/%v, want 16/14", high, low)
	}
	if _, _, err := Range(nil, 0); err == nil {
		t.Error("expected error for empty bars")
	}

	pos, _ := Position(15, 20, 10)
	if pos != 0.5 {
		t.Errorf("Position = %v, want 0.5", pos)
	}
	pos, _ = Position(30, 20, 10)
	if pos != 1 {
		t.Errorf("Position clamps to %v, want 1", pos)
	}
	if _, err := Position(1, 0, 10); err == nil {
		t.Error("expected error when high < low")
	}
}

func TestSummarize(t *testing.T) {
	if _, ok := Summarize(&model.TimeSeries{}); ok {
		t.Error("empty series should not summarize")
	}

	s, ok := Summarize(&model.TimeSeries{Points: bars(10, 12, 14)})
	if !ok {
		t.Fatal("expected summary")
	}
	if s.SMAPeriod != 3 || s.SMA != 12 || s.Last != 14 {
		t.Errorf("summary = %+v", s)
	}
	if s.HasRSI {
		t.Error("RSI should be skipped for short series")
	}
	if math.Abs(s.Position-5.0/6.0) > 1e-9 {
		t.Errorf("Position = %v, want 5/6", s.Position)
	}
}
