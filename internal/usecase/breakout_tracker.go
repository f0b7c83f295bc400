package usecase

import (
	"fmt"

	"github.com/vitos/breakout_monitor/internal/domain"
)

// FirstEvaluation selects what the tracker reports the first time it sees a symbol.
type FirstEvaluation string

const (
	// FirstEvaluationSkip seeds the reference and reports NoCross.
	FirstEvaluationSkip FirstEvaluation = "skip"
	// FirstEvaluationCompare seeds the reference and compares against it immediately.
	FirstEvaluationCompare FirstEvaluation = "compare"
)

func ParseFirstEvaluation(s string) (FirstEvaluation, error) {
	switch FirstEvaluation(s) {
	case "", FirstEvaluationSkip:
		return FirstEvaluationSkip, nil
	case FirstEvaluationCompare:
		return FirstEvaluationCompare, nil
	default:
		return "", fmt.Errorf("unknown first evaluation policy %q", s)
	}
}

// BreakoutTracker compares the current price to the range of the candle that
// closed before the previous evaluation.
type BreakoutTracker struct {
	policy FirstEvaluation
	state  *StateStore
}

func NewBreakoutTracker(policy FirstEvaluation, state *StateStore) *BreakoutTracker {
	return &BreakoutTracker{policy: policy, state: state}
}

// Evaluate reports whether price crossed the stored reference and then replaces
// the reference with latestClosed's range, whatever the outcome.
// It returns the reference value that was crossed (0 for NoCross).
func (t *BreakoutTracker) Evaluate(symbol string, latestClosed domain.Candle, price float64) (domain.Cross, float64) {
	ref, seen := t.state.references[symbol]
	defer func() {
		t.state.references[symbol] = domain.BreakoutState{
			Symbol:        symbol,
			ReferenceHigh: latestClosed.High,
			ReferenceLow:  latestClosed.Low,
		}
	}()

	if !seen {
		if t.policy != FirstEvaluationCompare {
			return domain.NoCross, 0
		}
		ref = domain.BreakoutState{
			Symbol:        symbol,
			ReferenceHigh: latestClosed.High,
			ReferenceLow:  latestClosed.Low,
		}
	}

	// High wins when both hold.
	if ref.ReferenceHigh > 0 && price > ref.ReferenceHigh {
		return domain.CrossedAboveHigh, ref.ReferenceHigh
	}
	if ref.ReferenceLow > 0 && price < ref.ReferenceLow {
		return domain.CrossedBelowLow, ref.ReferenceLow
	}
	return domain.NoCross, 0
}

// Reference returns the stored reference range of symbol.
func (t *BreakoutTracker) Reference(symbol string) (domain.BreakoutState, bool) {
	ref, ok := t.state.references[symbol]
	return ref, ok
}

// LatestClosed returns the newest closed candle of an oldest-first series whose
// last element is still forming.
func LatestClosed(candles []domain.Candle) (domain.Candle, error) {
	if len(candles) < 2 {
		return domain.Candle{}, domain.ErrInsufficientData
	}
	return candles[len(candles)-2], nil
}
