// Package planner computes the single rebalancing trade that moves the
// portfolio from its current base-asset allocation toward a recommended one.
// Planning is pure: no I/O, no side effects, fully determined by its inputs.
package planner

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
)

const (
	// DeadbandPct is the minimum percentage-point gap between current and
	// target allocation worth trading. Smaller moves are skipped so taker
	// fees do not erode the portfolio on minor signal changes.
	DeadbandPct = 10

	// sizeDecimals is the exchange's minimum tradable increment for the
	// base asset.
	sizeDecimals = 4
)

var deadband = decimal.NewFromInt(DeadbandPct)
var hundred = decimal.NewFromInt(100)

// Plan turns a validated recommendation plus the current snapshot into a
// TradePlan. now is an explicit input so identical inputs always produce the
// identical plan, client order id included.
//
// The computed sell size is deliberately not capped to the held base-asset
// balance; an oversized sell is the executor's problem to surface as an
// insufficient-funds outcome.
func Plan(snapshot *domain.PortfolioSnapshot, rec *domain.AllocationRecommendation, now time.Time) (domain.TradePlan, error) {
	if err := rec.Validate(); err != nil {
		return domain.TradePlan{}, err
	}

	currentPct := snapshot.AllocationPct()
	difference := rec.TargetPct.Sub(currentPct)

	if difference.Abs().LessThan(deadband) {
		return domain.TradePlan{Side: domain.SideNone, Size: decimal.Zero, NotionalFiat: decimal.Zero}, nil
	}

	side := domain.SideSell
	if difference.IsPositive() {
		side = domain.SideBuy
	}

	notional := snapshot.TotalValue().Mul(difference.Abs()).Div(hundred)
	size := notional.Div(snapshot.ReferencePrice()).Round(sizeDecimals)

	return domain.TradePlan{
		Side:          side,
		Size:          size,
		NotionalFiat:  notional,
		ClientOrderID: domain.NewClientOrderID(now, size, side),
	}, nil
}
