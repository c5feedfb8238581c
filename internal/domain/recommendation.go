package domain

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidRecommendation marks a decision-engine response that must never
// reach the exchange: a target percentage outside [0,100] or a response with
// required fields missing.
var ErrInvalidRecommendation = errors.New("invalid allocation recommendation")

// AllocationRecommendation is the decision engine's answer: what share of
// total portfolio value should be held in the base asset. The producer does
// not range-check the percentage; Validate is the boundary that does.
type AllocationRecommendation struct {
	// TargetPct is the requested base-asset allocation in percent.
	TargetPct decimal.Decimal `json:"target_pct"`
	// Rationale is the engine's free-text justification.
	Rationale string `json:"rationale"`
	// DataRequests lists extra data the engine said it wanted, "-" when empty.
	DataRequests string `json:"data_requests"`
	// DataIssues lists problems the engine spotted in its input, "-" when empty.
	DataIssues string `json:"data_issues"`
	// DecidedAt is when the recommendation was produced.
	DecidedAt time.Time `json:"decided_at"`
}

// Validate rejects recommendations a trade must never be planned from.
func (r *AllocationRecommendation) Validate() error {
	if r.Rationale == "" {
		return errors.Wrap(ErrInvalidRecommendation, "rationale is required")
	}
	if r.TargetPct.IsNegative() || r.TargetPct.GreaterThan(hundred) {
		return errors.Wrapf(ErrInvalidRecommendation, "target percentage %s outside [0,100]", r.TargetPct.String())
	}
	return nil
}

// String returns a log-friendly one-line representation.
func (r *AllocationRecommendation) String() string {
	return fmt.Sprintf("target=%s%% rationale=%q data_requests=%q data_issues=%q",
		r.TargetPct.String(), r.Rationale, orDash(r.DataRequests), orDash(r.DataIssues))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
