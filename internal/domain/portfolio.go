package domain

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PortfolioSnapshot is an immutable point-in-time view of exchange holdings
// together with the reference price used to value them.
type PortfolioSnapshot struct {
	pair           Pair
	balances       map[string]decimal.Decimal
	referencePrice decimal.Decimal
	capturedAt     time.Time
}

// NewPortfolioSnapshot builds a snapshot from raw exchange balances.
// The reference price is the base asset's value in the quote currency and
// must be strictly positive. Balances for absent symbols default to zero.
func NewPortfolioSnapshot(pair Pair, balances map[string]decimal.Decimal, referencePrice decimal.Decimal, capturedAt time.Time) (*PortfolioSnapshot, error) {
	if !referencePrice.IsPositive() {
		return nil, errors.Errorf("reference price must be positive, got %s", referencePrice.String())
	}

	copied := make(map[string]decimal.Decimal, len(balances))
	for symbol, available := range balances {
		copied[symbol] = available
	}

	return &PortfolioSnapshot{
		pair:           pair,
		balances:       copied,
		referencePrice: referencePrice,
		capturedAt:     capturedAt,
	}, nil
}

// Pair returns the trading pair the snapshot was captured for.
func (s *PortfolioSnapshot) Pair() Pair {
	return s.pair
}

// Balance returns the available balance for a symbol, zero when absent.
func (s *PortfolioSnapshot) Balance(symbol string) decimal.Decimal {
	return s.balances[symbol]
}

// ReferencePrice returns the base asset price in the quote currency.
func (s *PortfolioSnapshot) ReferencePrice() decimal.Decimal {
	return s.referencePrice
}

// CapturedAt returns the time the balances were read from the exchange.
func (s *PortfolioSnapshot) CapturedAt() time.Time {
	return s.capturedAt
}

// BaseValueInQuote returns the base asset holding valued at the reference price.
func (s *PortfolioSnapshot) BaseValueInQuote() decimal.Decimal {
	return s.Balance(s.pair.Base).Mul(s.referencePrice)
}

// TotalValue returns the whole portfolio valued in the quote currency.
func (s *PortfolioSnapshot) TotalValue() decimal.Decimal {
	return s.BaseValueInQuote().Add(s.Balance(s.pair.Quote))
}

// AllocationPct returns the share of total portfolio value held in the base
// asset, in percent. An empty portfolio has an allocation of zero.
func (s *PortfolioSnapshot) AllocationPct() decimal.Decimal {
	total := s.TotalValue()
	if !total.IsPositive() {
		return decimal.Zero
	}
	return s.BaseValueInQuote().Div(total).Mul(hundred)
}

// Formatted returns one human-readable line per held symbol, e.g. "0.5 BTC".
func (s *PortfolioSnapshot) Formatted() []string {
	lines := make([]string, 0, len(s.balances))
	for _, symbol := range []string{s.pair.Base, s.pair.Quote} {
		if available, ok := s.balances[symbol]; ok {
			lines = append(lines, fmt.Sprintf("%s %s", available.String(), symbol))
		}
	}
	return lines
}
