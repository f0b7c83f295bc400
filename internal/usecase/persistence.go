package usecase

import (
	"time"

	"github.com/vitos/breakout_monitor/internal/domain"
)

// DefaultPersistenceThreshold is how long a symbol must stay listed to count as persistent.
const DefaultPersistenceThreshold = 48 * time.Hour

// IsPersistent reports whether a symbol first seen at firstSeenAt has stayed
// on the watchlist for longer than threshold.
func IsPersistent(firstSeenAt, now time.Time, threshold time.Duration) bool {
	if firstSeenAt.IsZero() {
		return false
	}
	return now.Sub(firstSeenAt) > threshold
}

// PersistenceClassifier flags watchlist entries that outlived the threshold and
// remembers which ones were already announced.
type PersistenceClassifier struct {
	threshold time.Duration
	state     *StateStore
}

func NewPersistenceClassifier(threshold time.Duration, state *StateStore) *PersistenceClassifier {
	if threshold <= 0 {
		threshold = DefaultPersistenceThreshold
	}
	return &PersistenceClassifier{threshold: threshold, state: state}
}

func (p *PersistenceClassifier) Threshold() time.Duration {
	return p.threshold
}

func (p *PersistenceClassifier) Classify(e domain.WatchlistEntry, now time.Time) bool {
	return IsPersistent(e.FirstSeenAt, now, p.threshold)
}

// NewlyPersistent returns the entries that became persistent since the last
// call and marks them announced.
func (p *PersistenceClassifier) NewlyPersistent(entries []domain.WatchlistEntry, now time.Time) []domain.WatchlistEntry {
	var out []domain.WatchlistEntry
	for _, e := range entries {
		if p.state.persistentNotified[e.Symbol] || !p.Classify(e, now) {
			continue
		}
		p.state.persistentNotified[e.Symbol] = true
		out = append(out, e)
	}
	return out
}
