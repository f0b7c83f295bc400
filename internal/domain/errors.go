package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDelivery marks a notification that could not be delivered.
	ErrDelivery = errors.New("delivery failed")

	// ErrInsufficientData is returned when a computation lacks the candles or
	// prices it needs. Callers treat it as "no signal".
	ErrInsufficientData = errors.New("insufficient data")
)

// FetchError wraps any network, HTTP or decode failure of the market data
// gateway. It is always recoverable: the symbol or cycle is skipped.
type FetchError struct {
	Op     string
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err for op, returning nil when err is nil.
func NewFetchError(op, symbol string, err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{Op: op, Symbol: symbol, Err: err}
}

// IsRecoverable reports whether err came from the market data gateway.
func IsRecoverable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
