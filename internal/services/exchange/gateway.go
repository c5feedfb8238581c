// Package exchange provides gateway adapters for the exchanges the bot can
// trade on. All adapters implement the same Gateway contract and classify
// their failures into the shared error taxonomy, so the rest of the bot never
// sees exchange-specific error shapes.
package exchange

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
)

// Gateway is the exchange contract the bot consumes: point-in-time reads of
// account and market state, plus idempotent market-order submission.
type Gateway interface {
	// GetPortfolioSnapshot reads balances and the current reference price.
	GetPortfolioSnapshot(ctx context.Context) (*domain.PortfolioSnapshot, error)
	// GetRecentTrades returns the most recent fills for the traded pair.
	GetRecentTrades(ctx context.Context, limit int) ([]domain.ExchangeTrade, error)
	// GetOrderBook returns a truncated order book snapshot.
	GetOrderBook(ctx context.Context, depth int) (*domain.OrderBookSnapshot, error)
	// SubmitMarketOrder places a market order carrying the client order id.
	SubmitMarketOrder(ctx context.Context, clientOrderID string, side domain.Side, size decimal.Decimal) (*OrderResult, error)
}

// OrderResult is the exchange's acknowledgement of a submitted order.
type OrderResult struct {
	OrderID       string
	ClientOrderID string
}

// ErrorKind classifies gateway failures for the executor.
type ErrorKind int

const (
	// KindOther is any unclassified gateway failure, fatal for the cycle.
	KindOther ErrorKind = iota
	// KindInsufficientFunds means the account could not cover the order.
	// Recovered locally: the cycle completes without a trade.
	KindInsufficientFunds
	// KindTransient covers rate limits, timeouts and server errors. The
	// caller may retry; the gateway itself never does.
	KindTransient
)

// String returns the kind's log representation.
func (k ErrorKind) String() string {
	switch k {
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindTransient:
		return "transient"
	default:
		return "other"
	}
}

// Error is a classified gateway failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Op, e.Err.Error(), e.Kind.String())
}

// Unwrap exposes the underlying exchange error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsInsufficientFunds reports whether err is a funds-exhausted gateway error.
func IsInsufficientFunds(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == KindInsufficientFunds
}

// IsTransient reports whether err is a retryable gateway error.
func IsTransient(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == KindTransient
}
