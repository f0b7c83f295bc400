package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/breakout_monitor/internal/domain"
)

// setupCandles returns six candles with a range of 10 followed by lastCandle.
func setupCandles(last domain.Candle) []domain.Candle {
	out := make([]domain.Candle, 0, 7)
	for i := 0; i < 6; i++ {
		out = append(out, domain.Candle{Open: 100, High: 105, Low: 95, Close: 100})
	}
	return append(out, last)
}

func quietCandle() domain.Candle {
	return domain.Candle{Open: 100, High: 101, Low: 99, Close: 100.5}
}

func newSeededScorer(prevOI float64) (*SetupScorer, *StateStore) {
	state := NewStateStore()
	state.previousOI["XUSDT"] = prevOI
	return NewSetupScorer(DefaultSetupThresholds(), state), state
}

func TestSetupScorer_Qualifies(t *testing.T) {
	s, state := newSeededScorer(1000)

	m, ok := s.Score("XUSDT", setupCandles(quietCandle()), 1200, 0.12)
	require.True(t, ok)
	assert.InDelta(t, 20.0, m.VolatilityRatio, 1e-9)
	assert.InDelta(t, 20.0, m.OIChangePct, 1e-9)
	assert.InDelta(t, 0.5, m.PriceMovePct, 1e-9)
	assert.Equal(t, 0.12, m.FundingRatePct)
	assert.Equal(t, 1200.0, state.previousOI["XUSDT"])
}

func TestSetupScorer_NegativeFundingQualifies(t *testing.T) {
	s, _ := newSeededScorer(1000)

	_, ok := s.Score("XUSDT", setupCandles(quietCandle()), 1200, -0.12)
	assert.True(t, ok)
}

func TestSetupScorer_EachCheckGates(t *testing.T) {
	tests := []struct {
		name    string
		last    domain.Candle
		oi      float64
		funding float64
	}{
		{"range not compressed", domain.Candle{High: 102, Low: 98, Close: 100.5}, 1200, 0.12},
		{"price moved", domain.Candle{High: 101, Low: 99, Close: 102}, 1200, 0.12},
		{"open interest flat", quietCandle(), 1100, 0.12},
		{"funding neutral", quietCandle(), 1200, 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSeededScorer(1000)
			m, ok := s.Score("XUSDT", setupCandles(tt.last), tt.oi, tt.funding)
			assert.False(t, ok)
			assert.Nil(t, m)
		})
	}
}

func TestSetupScorer_InclusiveThresholds(t *testing.T) {
	tests := []struct {
		name    string
		last    domain.Candle
		oi      float64
		funding float64
	}{
		// Range 3 against an average of 10.
		{"range at compression ratio", domain.Candle{High: 101.5, Low: 98.5, Close: 100.5}, 1200, 0.12},
		{"price move at limit", domain.Candle{High: 101.5, Low: 99.5, Close: 101}, 1200, 0.12},
		{"open interest change at minimum", quietCandle(), 1150, 0.12},
		{"funding at minimum", quietCandle(), 1200, 0.10},
		{"negative funding at minimum", quietCandle(), 1200, -0.10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSeededScorer(1000)
			m, ok := s.Score("XUSDT", setupCandles(tt.last), tt.oi, tt.funding)
			assert.True(t, ok)
			assert.NotNil(t, m)
		})
	}
}

func TestSetupScorer_CoilingSetup(t *testing.T) {
	state := NewStateStore()
	state.previousOI["AUSDT"] = 1000
	s := NewSetupScorer(DefaultSetupThresholds(), state)

	candles := make([]domain.Candle, 0, 7)
	for i := 0; i < 6; i++ {
		candles = append(candles, domain.Candle{Open: 100, High: 104, Low: 96, Close: 100})
	}
	candles = append(candles, domain.Candle{Open: 100, High: 101, Low: 99, Close: 100.4})

	m, ok := s.Score("AUSDT", candles, 1200, 0.15)
	require.True(t, ok)
	assert.InDelta(t, 20.0, m.OIChangePct, 1e-9)
	assert.InDelta(t, 25.0, m.VolatilityRatio, 1e-9)
	assert.InDelta(t, 0.4, m.PriceMovePct, 1e-9)
	assert.Equal(t, 0.15, m.FundingRatePct)
}

func TestSetupScorer_OpenInterestStoredOnlyWhenChecked(t *testing.T) {
	s, state := newSeededScorer(1000)

	_, ok := s.Score("XUSDT", setupCandles(domain.Candle{High: 110, Low: 90, Close: 100}), 5000, 0.5)
	assert.False(t, ok)
	assert.Equal(t, 1000.0, state.previousOI["XUSDT"])

	_, ok = s.Score("XUSDT", setupCandles(quietCandle()), 1100, 0.5)
	assert.False(t, ok)
	assert.Equal(t, 1100.0, state.previousOI["XUSDT"])
}

func TestSetupScorer_FirstObservationHasNoChange(t *testing.T) {
	s := NewSetupScorer(DefaultSetupThresholds(), NewStateStore())

	_, ok := s.Score("XUSDT", setupCandles(quietCandle()), 1200, 0.5)
	assert.False(t, ok)

	_, ok = s.Score("XUSDT", setupCandles(quietCandle()), 1500, 0.5)
	assert.True(t, ok)
}

func TestSetupScorer_TooFewCandles(t *testing.T) {
	s, _ := newSeededScorer(1000)
	candles := setupCandles(quietCandle())

	_, ok := s.Score("XUSDT", candles[1:], 1200, 0.12)
	assert.False(t, ok)
}

func TestSetupScorer_FlatHistory(t *testing.T) {
	s, _ := newSeededScorer(1000)
	flat := make([]domain.Candle, 7)
	for i := range flat {
		flat[i] = domain.Candle{High: 100, Low: 100, Close: 100}
	}

	_, ok := s.Score("XUSDT", flat, 1200, 0.12)
	assert.False(t, ok)
}

func TestNewSetupScorer_LookbackFloor(t *testing.T) {
	th := DefaultSetupThresholds()
	th.Lookback = 1
	assert.Equal(t, 7, NewSetupScorer(th, NewStateStore()).Lookback())
}
