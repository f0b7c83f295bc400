package usecase

import (
	"time"

	"github.com/vitos/breakout_monitor/internal/domain"
)

// StateStore holds every per-symbol map the monitor mutates. It is owned by
// a single MonitorService and only touched from its cycle goroutine.
type StateStore struct {
	firstSeen          map[string]time.Time
	references         map[string]domain.BreakoutState
	previousOI         map[string]float64
	persistentNotified map[string]bool
	alerted            map[string]bool
}

func NewStateStore() *StateStore {
	return &StateStore{
		firstSeen:          make(map[string]time.Time),
		references:         make(map[string]domain.BreakoutState),
		previousOI:         make(map[string]float64),
		persistentNotified: make(map[string]bool),
		alerted:            make(map[string]bool),
	}
}

// FirstSeen returns when symbol first entered the watchlist.
func (s *StateStore) FirstSeen(symbol string) (time.Time, bool) {
	t, ok := s.firstSeen[symbol]
	return t, ok
}

// Evict drops all state of a symbol that left the watchlist.
func (s *StateStore) Evict(symbol string) {
	delete(s.firstSeen, symbol)
	delete(s.references, symbol)
	delete(s.previousOI, symbol)
	delete(s.persistentNotified, symbol)
	delete(s.alerted, symbol)
}

// ForgetSignals drops the breakout reference and open interest history of a
// symbol while keeping its first-seen timestamp.
func (s *StateStore) ForgetSignals(symbol string) {
	delete(s.references, symbol)
	delete(s.previousOI, symbol)
	delete(s.alerted, symbol)
}

// ClearAlerted forgets which symbols already alerted.
func (s *StateStore) ClearAlerted() {
	s.alerted = make(map[string]bool)
}

func (s *StateStore) markAlerted(symbol string) {
	s.alerted[symbol] = true
}

func (s *StateStore) wasAlerted(symbol string) bool {
	return s.alerted[symbol]
}
