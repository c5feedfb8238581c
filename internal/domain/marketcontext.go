package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeTrade is one historical fill read back from the exchange, shown to
// the decision engine as recent trading activity.
type ExchangeTrade struct {
	Symbol    string
	Side      string
	Price     decimal.Decimal
	Size      decimal.Decimal
	Fee       string
	CreatedAt time.Time
}

// PriceLevel is one side entry of an order book.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBookSnapshot is a truncated view of the order book at capture time.
type OrderBookSnapshot struct {
	Bids       []PriceLevel
	Asks       []PriceLevel
	CapturedAt time.Time
}

// MarketContext is the formatted-text bundle handed to the decision engine.
// The engine treats it as opaque context; only the AllocationRecommendation
// coming back is interpreted.
type MarketContext struct {
	// HourlyIndicators is the formatted hourly indicator history.
	HourlyIndicators string
	// DailyIndicators is the formatted daily indicator history, including the
	// fear & greed classification per day.
	DailyIndicators string
	// News is the formatted latest-news block.
	News string
	// Portfolio is one line per held symbol.
	Portfolio []string
	// AllocationPct is the current base-asset allocation of the portfolio.
	AllocationPct decimal.Decimal
	// LastTrades is the formatted recent fill history.
	LastTrades string
	// OrderBook is the formatted order book snapshot.
	OrderBook string
	// PreviousRecommendation is last cycle's recommendation, carried only as
	// additional context for the engine, never as a correctness input.
	PreviousRecommendation *AllocationRecommendation
}
