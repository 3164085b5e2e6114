package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Date   string    `json:"date"`
	Time   time.Time `json:"-"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// DateLayout is the day key used for series points.
const DateLayout = "2006-01-02"
