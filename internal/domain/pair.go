// Package domain defines the core data structures of the rebalancing bot.
package domain

import "fmt"

// Pair is a trading pair: a volatile base asset priced in a fiat quote currency.
type Pair struct {
	// Base volatile asset symbol, e.g. "BTC".
	Base string
	// Quote fiat currency symbol, e.g. "GBP".
	Quote string
}

// String returns the underscore-separated representation, e.g. "BTC_GBP".
func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", p.Base, p.Quote)
}

// Symbol returns the concatenated exchange symbol, e.g. "BTCGBP".
func (p Pair) Symbol() string {
	return fmt.Sprintf("%s%s", p.Base, p.Quote)
}
