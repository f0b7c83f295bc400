package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/breakout_monitor/internal/domain"
	"go.uber.org/zap"
)

// SetupMode controls how the high-probability scorer gates alerts.
type SetupMode string

const (
	SetupOff      SetupMode = "off"      // never scored
	SetupAnnotate SetupMode = "annotate" // scored, attached to the alert when it qualifies
	SetupRequire  SetupMode = "require"  // only qualifying breakouts alert
)

func ParseSetupMode(s string) (SetupMode, error) {
	switch SetupMode(s) {
	case "", SetupAnnotate:
		return SetupAnnotate, nil
	case SetupOff, SetupRequire:
		return SetupMode(s), nil
	default:
		return "", fmt.Errorf("unknown setup mode %q", s)
	}
}

type MonitorConfig struct {
	Interval             time.Duration
	AlignToClock         bool
	SettleDelay          time.Duration
	QuoteAsset           string
	CandleInterval       string
	Tiers                TierLimits
	FirstEvaluation      FirstEvaluation
	DedupeAlerts         bool
	ResetFirstSeenOnExit bool
	PersistenceThreshold time.Duration
	SetupMode            SetupMode
	Setup                SetupThresholds
}

// MonitorService runs the evaluation cycles: refresh the watchlist, check each
// symbol for a breakout, score and dispatch alerts.
type MonitorService struct {
	cfg      MonitorConfig
	market   domain.MarketData
	notifier domain.Notifier
	journal  domain.AlertJournal
	metrics  domain.MetricsRecorder
	logger   *zap.Logger

	state       *StateStore
	selector    *WatchlistSelector
	tracker     *BreakoutTracker
	scorer      *SetupScorer
	persistence *PersistenceClassifier

	watchlist   []domain.WatchlistEntry
	lastRefresh time.Time

	mu        sync.RWMutex
	published []domain.WatchlistEntry

	timeNow func() time.Time // For testing
}

func NewMonitorService(
	cfg MonitorConfig,
	market domain.MarketData,
	notifier domain.Notifier,
	journal domain.AlertJournal,
	metrics domain.MetricsRecorder,
	logger *zap.Logger,
) *MonitorService {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.CandleInterval == "" {
		cfg.CandleInterval = "1h"
	}
	if cfg.FirstEvaluation == "" {
		cfg.FirstEvaluation = FirstEvaluationSkip
	}
	if cfg.SetupMode == "" {
		cfg.SetupMode = SetupAnnotate
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}

	state := NewStateStore()
	return &MonitorService{
		cfg:         cfg,
		market:      market,
		notifier:    notifier,
		journal:     journal,
		metrics:     metrics,
		logger:      logger,
		state:       state,
		selector:    NewWatchlistSelector(cfg.QuoteAsset, cfg.Tiers, state, logger),
		tracker:     NewBreakoutTracker(cfg.FirstEvaluation, state),
		scorer:      NewSetupScorer(cfg.Setup, state),
		persistence: NewPersistenceClassifier(cfg.PersistenceThreshold, state),
		timeNow:     time.Now,
	}
}

// Watchlist returns a copy of the last published watchlist. Safe for concurrent use.
func (s *MonitorService) Watchlist() []domain.WatchlistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WatchlistEntry, len(s.published))
	copy(out, s.published)
	return out
}

// Start runs cycles until ctx is cancelled. A cycle in flight when ctx is
// cancelled runs to completion.
func (s *MonitorService) Start(ctx context.Context) {
	s.logger.Info("Starting breakout monitor",
		zap.Duration("interval", s.cfg.Interval),
		zap.Bool("align_to_clock", s.cfg.AlignToClock),
		zap.String("setup_mode", string(s.cfg.SetupMode)),
		zap.String("first_evaluation", string(s.cfg.FirstEvaluation)))

	if !s.notifier.Send(ctx, FormatStartupMessage(s.cfg)) {
		s.logger.Warn("Startup notice not delivered")
	}

	for {
		if ctx.Err() != nil {
			s.logger.Info("Breakout monitor stopped")
			return
		}

		if err := s.RunCycle(context.WithoutCancel(ctx)); err != nil {
			if domain.IsRecoverable(err) {
				s.logger.Warn("Monitor cycle skipped", zap.Error(err))
			} else {
				s.logger.Error("Monitor cycle failed", zap.Error(err))
			}
		}

		timer := time.NewTimer(s.nextDelay(s.timeNow()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Breakout monitor stopped")
			return
		case <-timer.C:
		}
	}
}

// nextDelay returns how long to sleep before the next cycle.
func (s *MonitorService) nextDelay(now time.Time) time.Duration {
	if !s.cfg.AlignToClock {
		return s.cfg.Interval
	}
	next := now.Truncate(s.cfg.Interval).Add(s.cfg.Interval).Add(s.cfg.SettleDelay)
	if d := next.Sub(now); d > s.cfg.Interval {
		// Still inside the settle window of the boundary we just passed.
		return d - s.cfg.Interval
	} else if d > 0 {
		return d
	}
	return s.cfg.Interval
}

// RunCycle performs one evaluation pass over the watchlist.
func (s *MonitorService) RunCycle(ctx context.Context) (err error) {
	start := s.timeNow()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
		s.metrics.ObserveCycle(s.timeNow().Sub(start), err)
	}()

	if s.needsRefresh(start) {
		if err := s.refreshWatchlist(ctx, start); err != nil {
			if len(s.watchlist) == 0 {
				return err
			}
			s.logger.Warn("Keeping previous watchlist", zap.Int("symbols", len(s.watchlist)), zap.Error(err))
		}
	}

	for _, entry := range s.watchlist {
		s.evaluateSymbol(ctx, entry, start)
	}
	return nil
}

func (s *MonitorService) needsRefresh(now time.Time) bool {
	if len(s.watchlist) == 0 {
		return true
	}
	return now.Truncate(time.Hour).After(s.lastRefresh.Truncate(time.Hour))
}

func (s *MonitorService) refreshWatchlist(ctx context.Context, now time.Time) error {
	tickers, err := s.market.ListTickers(ctx)
	if err != nil {
		s.metrics.IncFetchError("tickers")
		return fmt.Errorf("refresh watchlist: %w", err)
	}

	entries := s.selector.Select(tickers, now)

	listed := make(map[string]bool, len(entries))
	for _, e := range entries {
		listed[e.Symbol] = true
	}
	for _, prev := range s.watchlist {
		if listed[prev.Symbol] {
			continue
		}
		if s.cfg.ResetFirstSeenOnExit {
			s.state.Evict(prev.Symbol)
		} else {
			s.state.ForgetSignals(prev.Symbol)
		}
	}
	s.state.ClearAlerted()

	s.watchlist = entries
	s.lastRefresh = now
	s.metrics.SetWatchlistSize(len(entries))
	s.logger.Info("Updated watchlist", zap.Int("symbols", len(entries)))

	s.notePersistent(entries, now)

	s.mu.Lock()
	s.published = append([]domain.WatchlistEntry(nil), entries...)
	s.mu.Unlock()
	return nil
}

func (s *MonitorService) notePersistent(entries []domain.WatchlistEntry, now time.Time) {
	for _, e := range s.persistence.NewlyPersistent(entries, now) {
		s.logger.Info("Symbol became persistent",
			zap.String("symbol", e.Symbol),
			zap.Time("first_seen", e.FirstSeenAt),
			zap.Duration("threshold", s.persistence.Threshold()))
	}
}

func (s *MonitorService) candleLimit() int {
	if s.cfg.SetupMode == SetupOff {
		return 2
	}
	return max(2, s.scorer.Lookback())
}

func (s *MonitorService) evaluateSymbol(ctx context.Context, entry domain.WatchlistEntry, now time.Time) {
	sym := entry.Symbol

	candles, err := s.market.GetCandles(ctx, sym, s.cfg.CandleInterval, s.candleLimit())
	if err != nil {
		s.metrics.IncFetchError("candles")
		s.logger.Warn("Skipping symbol: candles unavailable", zap.String("symbol", sym), zap.Error(err))
		return
	}
	closed, err := LatestClosed(candles)
	if err != nil {
		s.logger.Debug("Skipping symbol: not enough candles", zap.String("symbol", sym), zap.Int("candles", len(candles)))
		return
	}

	price, err := s.market.GetCurrentPrice(ctx, sym)
	if err != nil {
		s.metrics.IncFetchError("price")
		s.logger.Warn("Skipping symbol: price unavailable", zap.String("symbol", sym), zap.Error(err))
		return
	}
	if price <= 0 {
		return
	}

	// Scored every cycle so the open interest history advances whether or
	// not the symbol crosses.
	var setup *domain.SetupMetrics
	if s.cfg.SetupMode != SetupOff {
		setup = s.scoreSetup(ctx, sym, candles)
	}

	cross, reference := s.tracker.Evaluate(sym, closed, price)
	if cross == domain.NoCross {
		return
	}
	if s.cfg.DedupeAlerts && s.state.wasAlerted(sym) {
		s.logger.Debug("Breakout already alerted", zap.String("symbol", sym), zap.String("cross", string(cross)))
		return
	}
	if setup == nil && s.cfg.SetupMode == SetupRequire {
		s.logger.Info("Breakout without setup ignored", zap.String("symbol", sym), zap.String("cross", string(cross)))
		return
	}

	s.dispatch(ctx, &domain.Alert{
		ID:         uuid.NewString(),
		Symbol:     sym,
		Tier:       entry.Tier,
		Cross:      cross,
		Price:      price,
		Reference:  reference,
		Gain24h:    entry.Gain24h,
		Persistent: s.persistence.Classify(entry, now),
		Setup:      setup,
		CreatedAt:  now,
	})
}

func (s *MonitorService) scoreSetup(ctx context.Context, sym string, candles []domain.Candle) *domain.SetupMetrics {
	oi, err := s.market.GetOpenInterest(ctx, sym)
	if err != nil {
		s.metrics.IncFetchError("open_interest")
		s.logger.Warn("Setup not scored: open interest unavailable", zap.String("symbol", sym), zap.Error(err))
		return nil
	}
	funding, err := s.market.GetFundingRate(ctx, sym)
	if err != nil {
		s.metrics.IncFetchError("funding_rate")
		s.logger.Warn("Setup not scored: funding rate unavailable", zap.String("symbol", sym), zap.Error(err))
		return nil
	}

	setup, ok := s.scorer.Score(sym, candles, oi, funding)
	if !ok {
		return nil
	}
	return setup
}

func (s *MonitorService) dispatch(ctx context.Context, alert *domain.Alert) {
	s.logger.Info(FormatAlertLog(alert, s.cfg.CandleInterval),
		zap.String("symbol", alert.Symbol),
		zap.String("alert_id", alert.ID))

	alert.Delivered = s.notifier.Send(ctx, FormatAlertMessage(alert, s.cfg.CandleInterval))
	if !alert.Delivered {
		s.logger.Warn("Alert not delivered", zap.String("symbol", alert.Symbol), zap.String("alert_id", alert.ID))
	}

	s.state.markAlerted(alert.Symbol)
	s.metrics.IncAlert(alert.Cross, alert.HighProbability(), alert.Delivered)

	if s.journal != nil {
		if err := s.journal.SaveAlert(ctx, alert); err != nil {
			s.logger.Error("Failed to journal alert", zap.String("alert_id", alert.ID), zap.Error(err))
		}
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveCycle(time.Duration, error) {}
func (nopRecorder) SetWatchlistSize(int) {}
func (nopRecorder) IncFetchError(string) {}
func (nopRecorder) IncAlert(domain.Cross, bool, bool) {}
