package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/vitos/breakout_monitor/internal/domain"
	"go.uber.org/zap"
)

const (
	largeTierFraction = 0.3
	midTierFraction   = 0.7
)

// TierLimits caps how many symbols each tier contributes to the watchlist.
type TierLimits struct {
	Large int `yaml:"large"`
	Mid   int `yaml:"mid"`
	Low   int `yaml:"low"`
}

func (l TierLimits) Total() int {
	return l.Large + l.Mid + l.Low
}

func (l TierLimits) forTier(t domain.Tier) int {
	switch t {
	case domain.TierLarge:
		return l.Large
	case domain.TierMid:
		return l.Mid
	default:
		return l.Low
	}
}

// WatchlistSelector picks momentum symbols from each volume tier.
type WatchlistSelector struct {
	quoteAsset string
	limits     TierLimits
	state      *StateStore
	logger     *zap.Logger
}

func NewWatchlistSelector(quoteAsset string, limits TierLimits, state *StateStore, logger *zap.Logger) *WatchlistSelector {
	return &WatchlistSelector{
		quoteAsset: quoteAsset,
		limits:     limits,
		state:      state,
		logger:     logger,
	}
}

// TierCutoffs returns the exclusive end indexes of the Large and Mid tiers for
// a volume-sorted list of n symbols. For n >= 2 it holds 1 <= large < mid <= n.
func TierCutoffs(n int) (large, mid int) {
	if n <= 0 {
		return 0, 0
	}
	large = max(1, int(float64(n)*largeTierFraction))
	mid = max(large+1, int(float64(n)*midTierFraction))
	return min(large, n), min(mid, n)
}

// Select builds the ordered watchlist (Large gainers, then Mid, then Low) and
// records first-seen timestamps for new symbols.
func (s *WatchlistSelector) Select(tickers []domain.Ticker, now time.Time) []domain.WatchlistEntry {
	filtered := make([]domain.Ticker, 0, len(tickers))
	for _, t := range tickers {
		if strings.HasSuffix(t.Symbol, s.quoteAsset) {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].QuoteVolume != filtered[j].QuoteVolume {
			return filtered[i].QuoteVolume > filtered[j].QuoteVolume
		}
		return filtered[i].Symbol < filtered[j].Symbol
	})

	largeEnd, midEnd := TierCutoffs(len(filtered))
	tiers := []struct {
		tier    domain.Tier
		tickers []domain.Ticker
	}{
		{domain.TierLarge, filtered[:largeEnd]},
		{domain.TierMid, filtered[largeEnd:midEnd]},
		{domain.TierLow, filtered[midEnd:]},
	}

	selected := make(map[string]bool)
	entries := make([]domain.WatchlistEntry, 0, s.limits.Total())

	for _, bucket := range tiers {
		ranked := make([]domain.Ticker, len(bucket.tickers))
		copy(ranked, bucket.tickers)
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].PriceChangePercent != ranked[j].PriceChangePercent {
				return ranked[i].PriceChangePercent > ranked[j].PriceChangePercent
			}
			return ranked[i].Symbol < ranked[j].Symbol
		})

		limit := s.limits.forTier(bucket.tier)
		taken := 0
		for _, t := range ranked {
			if taken >= limit {
				break
			}
			if selected[t.Symbol] {
				continue
			}
			selected[t.Symbol] = true
			taken++

			entries = append(entries, domain.WatchlistEntry{
				Symbol:      t.Symbol,
				Tier:        bucket.tier,
				FirstSeenAt: s.markSeen(t.Symbol, now),
				Gain24h:     t.PriceChangePercent,
				QuoteVolume: t.QuoteVolume,
			})
		}
	}

	return entries
}

func (s *WatchlistSelector) markSeen(symbol string, now time.Time) time.Time {
	if seen, ok := s.state.firstSeen[symbol]; ok {
		return seen
	}
	s.state.firstSeen[symbol] = now
	s.logger.Info("New watchlist symbol", zap.String("symbol", symbol), zap.Time("first_seen", now))
	return now
}
