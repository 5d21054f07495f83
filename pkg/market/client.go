package market

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Client is the core's and the evaluator's read path over the `bars`,
// `daily_metrics`, and `universe_members` views (spec.md §6). It never
// issues a write.
type Client struct {
	db *sql.DB
}

// NewClient wraps an existing connection pool. The pool is expected to
// point at a database where the core only has SELECT grants on the
// market-data views — enforcement lives at the database-role level, not
// in this client.
func NewClient(db *sql.DB) *Client {
	return &Client{db: db}
}

// BarsBetween returns bars for a ticker/timeframe in [from, to], ascending
// by timestamp — the window the execution templates and the sandboxed
// scanner both read from.
func (c *Client) BarsBetween(ctx context.Context, ticker string, timeframe Timeframe, from, to time.Time) ([]Bar, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT ticker, timestamp, timeframe, open, high, low, close, volume, coalesce(time_of_day, '')
		FROM bars
		WHERE ticker = $1 AND timeframe = $2 AND timestamp BETWEEN $3 AND $4
		ORDER BY timestamp ASC`, ticker, timeframe, from, to)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var out []Bar
	for rows.Next() {
		var b Bar
		if err := rows.Scan(&b.Ticker, &b.Timestamp, &b.Timeframe, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.TimeOfDay); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DailyMetrics returns the computed metrics row for a ticker/date, if any.
func (c *Client) DailyMetrics(ctx context.Context, ticker string, date time.Time) (*DailyMetrics, error) {
	var m DailyMetrics
	err := c.db.QueryRowContext(ctx, `
		SELECT ticker, date, change_percent, rsi_14, sma_20, sma_50, sma_200,
		       volume_ratio, consecutive_up_days, consecutive_down_days, multi_day_change_pct_5
		FROM daily_metrics WHERE ticker = $1 AND date = $2`, ticker, date,
	).Scan(&m.Ticker, &m.Date, &m.ChangePercent, &m.RSI14, &m.SMA20, &m.SMA50, &m.SMA200,
		&m.VolumeRatio, &m.ConsecutiveUpDays, &m.ConsecutiveDnDays, &m.MultiDayChangePct5)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query daily metrics: %w", err)
	}
	return &m, nil
}

// UniverseMembers returns the tickers belonging to a named universe.
func (c *Client) UniverseMembers(ctx context.Context, universe string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT ticker FROM universe_members WHERE universe = $1`, universe)
	if err != nil {
		return nil, fmt.Errorf("query universe members: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("scan universe member: %w", err)
		}
		out = append(out, ticker)
	}
	return out, rows.Err()
}
