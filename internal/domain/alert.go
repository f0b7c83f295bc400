package domain

import "time"

// Cross is the outcome of one breakout evaluation.
type Cross string

const (
	NoCross          Cross = ""
	CrossedAboveHigh Cross = "HIGH"
	CrossedBelowLow  Cross = "LOW"
)

// SetupMetrics describes a qualifying high-probability setup. All values are percent.
type SetupMetrics struct {
	VolatilityRatio float64 `json:"volatility_ratio"` // current range as % of the recent average
	OIChangePct     float64 `json:"oi_change_pct"`
	PriceMovePct    float64 `json:"price_move_pct"`
	FundingRatePct  float64 `json:"funding_rate_pct"`
}

// Alert is a dispatched breakout notification.
type Alert struct {
	ID         string        `json:"id"`
	Symbol     string        `json:"symbol"`
	Tier       Tier          `json:"tier"`
	Cross      Cross         `json:"cross"`
	Price      float64       `json:"price"`
	Reference  float64       `json:"reference"`
	Gain24h    float64       `json:"gain_24h"`
	Persistent bool          `json:"persistent"`
	Setup      *SetupMetrics `json:"setup,omitempty"`
	Delivered  bool          `json:"delivered"`
	CreatedAt  time.Time     `json:"created_at"`
}

// HighProbability reports whether the alert carries a qualifying setup.
func (a *Alert) HighProbability() bool {
	return a.Setup != nil
}
