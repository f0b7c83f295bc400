package usecase

import (
	"math"

	"github.com/vitos/breakout_monitor/internal/domain"
)

// SetupThresholds tune the high-probability setup scorer. Ratios are fractions
// except MinFundingPct which is in percent.
type SetupThresholds struct {
	Lookback         int     `yaml:"lookback"`
	CompressionRatio float64 `yaml:"compression_ratio"`
	MaxPriceMove     float64 `yaml:"max_price_move"`
	MinOIChange      float64 `yaml:"min_oi_change"`
	MinFundingPct    float64 `yaml:"min_funding_pct"`
}

func DefaultSetupThresholds() SetupThresholds {
	return SetupThresholds{
		Lookback:         7,
		CompressionRatio: 0.30,
		MaxPriceMove:     0.01,
		MinOIChange:      0.15,
		MinFundingPct:    0.10,
	}
}

// SetupScorer detects volatility compression with flat price, an open interest
// surge and stretched funding, all at once.
type SetupScorer struct {
	th    SetupThresholds
	state *StateStore
}

func NewSetupScorer(th SetupThresholds, state *StateStore) *SetupScorer {
	if th.Lookback < 3 {
		th.Lookback = DefaultSetupThresholds().Lookback
	}
	return &SetupScorer{th: th, state: state}
}

// Lookback is the number of candles Score inspects.
func (s *SetupScorer) Lookback() int {
	return s.th.Lookback
}

// Score returns the setup metrics when every check passes. Checks run in order
// and stop at the first failure; the stored open interest is refreshed only
// when the open interest check is reached.
func (s *SetupScorer) Score(symbol string, candles []domain.Candle, openInterest, fundingPct float64) (*domain.SetupMetrics, bool) {
	n := s.th.Lookback
	if len(candles) < n {
		return nil, false
	}
	recent := candles[len(candles)-n:]

	var sum float64
	for _, c := range recent[:n-1] {
		sum += c.Range()
	}
	avgRange := sum / float64(n-1)
	currentRange := recent[n-1].Range()
	if avgRange <= 0 || currentRange > s.th.CompressionRatio*avgRange {
		return nil, false
	}

	prevClose := recent[n-2].Close
	if prevClose <= 0 {
		return nil, false
	}
	priceMove := math.Abs(recent[n-1].Close-prevClose) / prevClose
	if priceMove > s.th.MaxPriceMove {
		return nil, false
	}

	prevOI, ok := s.state.previousOI[symbol]
	if !ok {
		prevOI = openInterest
	}
	s.state.previousOI[symbol] = openInterest
	var oiChange float64
	if prevOI > 0 {
		oiChange = (openInterest - prevOI) / prevOI
	}
	if oiChange < s.th.MinOIChange {
		return nil, false
	}

	if math.Abs(fundingPct) < s.th.MinFundingPct {
		return nil, false
	}

	return &domain.SetupMetrics{
		VolatilityRatio: currentRange / avgRange * 100,
		OIChangePct:     oiChange * 100,
		PriceMovePct:    priceMove * 100,
		FundingRatePct:  fundingPct,
	}, true
}
