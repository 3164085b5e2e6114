package calculator

import (
	"errors"

	"TickerBoard/internal/model"
)

// RSI computes the Wilder-smoothed relative strength index over period.
// It needs at least period+1 bars; with fewer it returns 50.
func RSI(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 50.0, nil
	}

	c := closes(bars)

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := c[i] - c[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(c); i++ {
		change := c[i] - c[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0, nil
	}
	return 100.0 - 100.0/(1.0+avgGain/avgLoss), nil
}
