package domain

import "time"

// Tier is a capitalization bucket assigned by relative 24h quote volume.
type Tier int

const (
	TierLarge Tier = iota
	TierMid
	TierLow
)

func (t Tier) String() string {
	switch t {
	case TierLarge:
		return "large"
	case TierMid:
		return "mid"
	case TierLow:
		return "low"
	default:
		return "unknown"
	}
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// WatchlistEntry is a symbol picked by the watchlist selector.
type WatchlistEntry struct {
	Symbol      string    `json:"symbol"`
	Tier        Tier      `json:"tier"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	Gain24h     float64   `json:"gain_24h"`
	QuoteVolume float64   `json:"quote_volume"`
}

// BreakoutState holds the reference range a symbol is compared against.
type BreakoutState struct {
	Symbol        string
	ReferenceHigh float64
	ReferenceLow  float64
}
