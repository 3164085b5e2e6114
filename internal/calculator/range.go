package calculator

import (
	"errors"
	"math"

	"TickerBoard/internal/model"
)

// Range scans the most recent window bars and returns the high and low.
// A window of zero or less scans every bar.
func Range(bars []model.OHLCV, window int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	start := 0
	if window > 0 && len(bars) > window {
		start = len(bars) - window
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars[start:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// Position returns where current sits within [low, high], clamped to 0..1.
func Position(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	return math.Max(0, math.Min(1, (current-low)/(high-low))), nil
}
