package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/breakout_monitor/internal/domain"
	"go.uber.org/zap"
)

func newTestSelector(limits TierLimits) (*WatchlistSelector, *StateStore) {
	state := NewStateStore()
	return NewWatchlistSelector("USDT", limits, state, zap.NewNop()), state
}

func TestTierCutoffs(t *testing.T) {
	large, mid := TierCutoffs(0)
	assert.Equal(t, 0, large)
	assert.Equal(t, 0, mid)

	large, mid = TierCutoffs(1)
	assert.Equal(t, 1, large)
	assert.Equal(t, 1, mid)

	large, mid = TierCutoffs(10)
	assert.Equal(t, 3, large)
	assert.Equal(t, 7, mid)

	for n := 2; n <= 200; n++ {
		large, mid := TierCutoffs(n)
		require.GreaterOrEqual(t, large, 1, "n=%d", n)
		require.Less(t, large, mid, "n=%d", n)
		require.LessOrEqual(t, mid, n, "n=%d", n)
	}
}

func TestWatchlistSelector_TwoSymbols(t *testing.T) {
	sel, _ := newTestSelector(TierLimits{Large: 1, Mid: 1, Low: 0})
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := sel.Select([]domain.Ticker{
		{Symbol: "AUSDT", PriceChangePercent: 8, QuoteVolume: 9e6},
		{Symbol: "BUSDT", PriceChangePercent: 3, QuoteVolume: 1e5},
	}, now)

	require.Len(t, entries, 2)
	assert.Equal(t, "AUSDT", entries[0].Symbol)
	assert.Equal(t, domain.TierLarge, entries[0].Tier)
	assert.Equal(t, "BUSDT", entries[1].Symbol)
	assert.Equal(t, domain.TierMid, entries[1].Tier)
	assert.Equal(t, now, entries[0].FirstSeenAt)
}

func TestWatchlistSelector_FiltersQuoteAsset(t *testing.T) {
	sel, _ := newTestSelector(TierLimits{Large: 5, Mid: 5, Low: 5})

	assert.Empty(t, sel.Select(nil, time.Now()))
	assert.Empty(t, sel.Select([]domain.Ticker{
		{Symbol: "BTCBUSD", QuoteVolume: 1e9},
		{Symbol: "ETHBTC", QuoteVolume: 1e8},
	}, time.Now()))

	entries := sel.Select([]domain.Ticker{
		{Symbol: "BTCBUSD", QuoteVolume: 1e9},
		{Symbol: "ETHUSDT", QuoteVolume: 1e8},
	}, time.Now())
	require.Len(t, entries, 1)
	assert.Equal(t, "ETHUSDT", entries[0].Symbol)
}

func manyTickers(n int) []domain.Ticker {
	tickers := make([]domain.Ticker, 0, n)
	for i := 0; i < n; i++ {
		tickers = append(tickers, domain.Ticker{
			Symbol:             fmt.Sprintf("S%03dUSDT", i),
			PriceChangePercent: float64((i*37)%23) - 11,
			QuoteVolume:        float64(1000 - (i % 17)),
		})
	}
	return tickers
}

func TestWatchlistSelector_TierOrderAndLimits(t *testing.T) {
	limits := TierLimits{Large: 3, Mid: 2, Low: 4}
	sel, _ := newTestSelector(limits)

	entries := sel.Select(manyTickers(40), time.Now())
	require.Len(t, entries, limits.Total())

	seen := make(map[string]bool)
	counts := make(map[domain.Tier]int)
	for i, e := range entries {
		assert.False(t, seen[e.Symbol], "duplicate %s", e.Symbol)
		seen[e.Symbol] = true
		counts[e.Tier]++
		if i > 0 {
			prev := entries[i-1]
			assert.LessOrEqual(t, int(prev.Tier), int(e.Tier), "tiers must be grouped in order")
			if prev.Tier == e.Tier {
				assert.GreaterOrEqual(t, prev.Gain24h, e.Gain24h, "gainers first within a tier")
			}
		}
	}
	assert.Equal(t, 3, counts[domain.TierLarge])
	assert.Equal(t, 2, counts[domain.TierMid])
	assert.Equal(t, 4, counts[domain.TierLow])
}

func TestWatchlistSelector_Deterministic(t *testing.T) {
	limits := TierLimits{Large: 4, Mid: 4, Low: 4}
	a, _ := newTestSelector(limits)
	b, _ := newTestSelector(limits)
	now := time.Now()

	tickers := manyTickers(30)
	reversed := make([]domain.Ticker, len(tickers))
	for i, tk := range tickers {
		reversed[len(tickers)-1-i] = tk
	}

	assert.Equal(t, a.Select(tickers, now), b.Select(reversed, now))
}

func TestWatchlistSelector_FirstSeenIsStable(t *testing.T) {
	sel, state := newTestSelector(TierLimits{Large: 1, Mid: 1, Low: 1})
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tickers := []domain.Ticker{
		{Symbol: "AUSDT", PriceChangePercent: 1, QuoteVolume: 300},
		{Symbol: "BUSDT", PriceChangePercent: 2, QuoteVolume: 200},
		{Symbol: "CUSDT", PriceChangePercent: 3, QuoteVolume: 100},
	}

	sel.Select(tickers, t0)
	entries := sel.Select(tickers, t0.Add(3*time.Hour))

	for _, e := range entries {
		assert.Equal(t, t0, e.FirstSeenAt, e.Symbol)
		seen, ok := state.FirstSeen(e.Symbol)
		assert.True(t, ok)
		assert.Equal(t, t0, seen)
	}
}
