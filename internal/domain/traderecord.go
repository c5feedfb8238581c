package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OutcomeStatus classifies how a cycle's trade attempt ended.
type OutcomeStatus string

const (
	// OutcomeExecuted means the market order was submitted successfully.
	OutcomeExecuted OutcomeStatus = "executed"
	// OutcomeNoTrade means the plan required no order (deadband or zero size).
	OutcomeNoTrade OutcomeStatus = "no_trade"
	// OutcomeInsufficientFunds means the exchange rejected the order for lack
	// of funds; the cycle still completes normally.
	OutcomeInsufficientFunds OutcomeStatus = "insufficient_funds"
)

// TradeOutcome is the realized result of executing a TradePlan.
type TradeOutcome struct {
	Status        OutcomeStatus   `json:"status"`
	Side          string          `json:"side"`
	Size          decimal.Decimal `json:"size"`
	NotionalFiat  decimal.Decimal `json:"notional_fiat"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
}

// NoTradeOutcome is the outcome recorded when no order was placed.
func NoTradeOutcome() TradeOutcome {
	return TradeOutcome{
		Status: OutcomeNoTrade,
		Side:   SideNone.String(),
		Size:   decimal.Zero,
	}
}

// TradeRecord is the audit entity persisted once per cycle. Records are
// append-only: the bot never mutates or deletes history.
type TradeRecord struct {
	Timestamp    time.Time       `json:"ts"`
	Pair         string          `json:"pair"`
	TargetPct    decimal.Decimal `json:"target_pct"`
	Rationale    string          `json:"rationale"`
	DataRequests string          `json:"data_requests"`
	DataIssues   string          `json:"data_issues"`
	Outcome      TradeOutcome    `json:"outcome"`
}

// TradeRecordEntry bundles a persisted record with its store index.
type TradeRecordEntry struct {
	Index  uint64
	Record TradeRecord
}

// PortfolioRecord is the post-trade portfolio state persisted alongside the
// trade record, so audit rows reflect reality even after partial failures.
type PortfolioRecord struct {
	Timestamp      time.Time       `json:"ts"`
	Pair           string          `json:"pair"`
	BaseBalance    decimal.Decimal `json:"base_balance"`
	QuoteBalance   decimal.Decimal `json:"quote_balance"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	TotalValue     decimal.Decimal `json:"total_value"`
	AllocationPct  decimal.Decimal `json:"allocation_pct"`
}

// NewPortfolioRecord flattens a snapshot into its persisted form.
func NewPortfolioRecord(snapshot *PortfolioSnapshot, referenceTS time.Time) PortfolioRecord {
	pair := snapshot.Pair()
	return PortfolioRecord{
		Timestamp:      referenceTS,
		Pair:           pair.String(),
		BaseBalance:    snapshot.Balance(pair.Base),
		QuoteBalance:   snapshot.Balance(pair.Quote),
		ReferencePrice: snapshot.ReferencePrice(),
		TotalValue:     snapshot.TotalValue(),
		AllocationPct:  snapshot.AllocationPct(),
	}
}

// PortfolioRecordEntry bundles a persisted portfolio record with its store index.
type PortfolioRecordEntry struct {
	Index  uint64
	Record PortfolioRecord
}
