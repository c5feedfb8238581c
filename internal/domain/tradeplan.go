package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a planned trade.
type Side int

const (
	// SideNone means the cycle requires no trade.
	SideNone Side = iota
	// SideBuy converts quote currency into the base asset.
	SideBuy
	// SideSell converts the base asset into quote currency.
	SideSell
)

const (
	sideStringNone = "none"
	sideStringBuy  = "buy"
	sideStringSell = "sell"
)

// String returns the wire representation of the side.
func (s Side) String() string {
	switch s {
	case SideBuy:
		return sideStringBuy
	case SideSell:
		return sideStringSell
	default:
		return sideStringNone
	}
}

// TradePlan is the planner's output: the single bounded trade (or explicit
// absence of one) that moves the portfolio toward the recommended allocation.
type TradePlan struct {
	// Side is buy, sell or none.
	Side Side
	// Size is the trade size in base-asset units, rounded to the exchange increment.
	Size decimal.Decimal
	// NotionalFiat is the estimated trade value in the quote currency.
	NotionalFiat decimal.Decimal
	// ClientOrderID is the caller-assigned identifier attached to the order.
	ClientOrderID string
}

// IsNoop reports whether executing the plan would place no order.
func (p TradePlan) IsNoop() bool {
	return p.Side == SideNone || p.Size.IsZero()
}

// String returns a log-friendly representation.
func (p TradePlan) String() string {
	return fmt.Sprintf("side=%s size=%s notional=%s order_id=%s",
		p.Side.String(), p.Size.String(), p.NotionalFiat.String(), p.ClientOrderID)
}

// NewClientOrderID synthesizes the order identifier attached to a submission:
// a sub-second timestamp plus size and side, unique and traceable per attempt.
func NewClientOrderID(now time.Time, size decimal.Decimal, side Side) string {
	return fmt.Sprintf("%d_%s_%s", now.UnixNano()/100_000, size.String(), side.String())
}
