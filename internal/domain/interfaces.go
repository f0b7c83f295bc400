package domain

import (
	"context"
	"time"
)

// MarketData is the read-only view of the futures exchange the monitor needs.
// Every method fails with a *FetchError.
type MarketData interface {
	ListTickers(ctx context.Context) ([]Ticker, error)
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
	GetOpenInterest(ctx context.Context, symbol string) (float64, error)
	// GetFundingRate returns the latest funding rate already scaled to percent.
	GetFundingRate(ctx context.Context, symbol string) (float64, error)
}

// Notifier pushes a formatted message to the operator. It reports delivery
// failure through the return value and never panics.
type Notifier interface {
	Send(ctx context.Context, message string) bool
}

// AlertJournal records dispatched alerts for auditing. It is never read back
// into monitor state.
type AlertJournal interface {
	SaveAlert(ctx context.Context, alert *Alert) error
	ListAlerts(ctx context.Context, limit int) ([]*Alert, error)
}

// MetricsRecorder receives monitor observations.
type MetricsRecorder interface {
	ObserveCycle(d time.Duration, err error)
	SetWatchlistSize(n int)
	IncFetchError(op string)
	IncAlert(cross Cross, highProbability bool, delivered bool)
}
