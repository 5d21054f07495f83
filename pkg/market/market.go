// Package market is the read-only query layer over the historical data
// store (spec.md §6): OHLCV bars, computed daily metrics, and universe
// membership. The core never writes to this store.
package market

import "time"

// Timeframe is one of the supported bar granularities.
type Timeframe string

const (
	Timeframe1Min Timeframe = "1min"
	Timeframe5Min Timeframe = "5min"
	Timeframe1Day Timeframe = "1day"
)

// Bar is one OHLCV row keyed by (ticker, timestamp, timeframe) (spec.md §6).
type Bar struct {
	Ticker    string    `json:"ticker"`
	Timestamp time.Time `json:"timestamp"`
	Timeframe Timeframe `json:"timeframe"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	// TimeOfDay is populated only for intraday bars, e.g. "09:30".
	TimeOfDay string `json:"time_of_day,omitempty"`
}

// DailyMetrics is the computed-metrics row keyed by (ticker, date) (spec.md §6).
type DailyMetrics struct {
	Ticker             string    `json:"ticker"`
	Date               time.Time `json:"date"`
	ChangePercent      float64   `json:"change_percent"`
	RSI14              float64   `json:"rsi_14"`
	SMA20              float64   `json:"sma_20"`
	SMA50              float64   `json:"sma_50"`
	SMA200             float64   `json:"sma_200"`
	VolumeRatio        float64   `json:"volume_ratio"`
	ConsecutiveUpDays  int       `json:"consecutive_up_days"`
	ConsecutiveDnDays  int       `json:"consecutive_down_days"`
	MultiDayChangePct5 float64   `json:"multi_day_change_pct_5"`
}
