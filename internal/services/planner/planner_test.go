package planner

import (
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
)

var pair = domain.Pair{Base: "BTC", Quote: "GBP"}

func snapshotWith(t *testing.T, btc, gbp float64, price int64) *domain.PortfolioSnapshot {
	t.Helper()

	snapshot, err := domain.NewPortfolioSnapshot(pair, map[string]decimal.Decimal{
		"BTC": decimal.NewFromFloat(btc),
		"GBP": decimal.NewFromFloat(gbp),
	}, decimal.NewFromInt(price), time.Now())
	require.NoError(t, err)

	return snapshot
}

func recommendation(targetPct float64) *domain.AllocationRecommendation {
	return &domain.AllocationRecommendation{
		TargetPct: decimal.NewFromFloat(targetPct),
		Rationale: "test recommendation",
		DecidedAt: time.Now(),
	}
}

func TestPlanRejectsOutOfRangeTarget(t *testing.T) {
	snapshot := snapshotWith(t, 0.5, 1000, 30000)

	for _, target := range []float64{-1, 100.01, 150} {
		_, err := Plan(snapshot, recommendation(target), time.Now())
		require.Error(t, err, "target %v must be rejected", target)
		assert.True(t, errors.Is(err, domain.ErrInvalidRecommendation))
	}
}

func TestPlanDeadbandSkipsSmallMoves(t *testing.T) {
	// 0.5 BTC at 30000 + 1000 GBP: allocation 93.75%
	snapshot := snapshotWith(t, 0.5, 1000, 30000)

	tests := []struct {
		target   float64
		wantSide domain.Side
	}{
		{target: 90, wantSide: domain.SideNone},    // gap 3.75
		{target: 93.75, wantSide: domain.SideNone}, // gap 0
		{target: 84, wantSide: domain.SideNone},    // gap 9.75, still inside
		{target: 83.75, wantSide: domain.SideSell}, // gap exactly 10
		{target: 50, wantSide: domain.SideSell},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("target_%v", tt.target), func(t *testing.T) {
			plan, err := Plan(snapshot, recommendation(tt.target), time.Now())
			require.NoError(t, err)
			assert.Equal(t, tt.wantSide, plan.Side)
			if tt.wantSide == domain.SideNone {
				assert.True(t, plan.Size.IsZero())
				assert.True(t, plan.IsNoop())
			}
		})
	}
}

func TestPlanSideFollowsGapDirection(t *testing.T) {
	// 1 BTC at 30000 + 30000 GBP: allocation 50%
	snapshot := snapshotWith(t, 1, 30000, 30000)

	buyPlan, err := Plan(snapshot, recommendation(80), time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.SideBuy, buyPlan.Side)

	sellPlan, err := Plan(snapshot, recommendation(20), time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.SideSell, sellPlan.Side)
}

func TestPlanSizesTradeFromTotalValue(t *testing.T) {
	// 1 BTC at 30000 + 30000 GBP: total 60000, allocation 50%.
	// Target 80% -> gap 30 points -> notional 18000 GBP -> 0.6 BTC.
	snapshot := snapshotWith(t, 1, 30000, 30000)

	plan, err := Plan(snapshot, recommendation(80), time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.SideBuy, plan.Side)
	assert.True(t, plan.NotionalFiat.Equal(decimal.NewFromInt(18000)), "got %s", plan.NotionalFiat.String())
	assert.True(t, plan.Size.Equal(decimal.NewFromFloat(0.6)), "got %s", plan.Size.String())
}

func TestPlanRoundsSizeToFourDecimals(t *testing.T) {
	// total 10000 GBP, allocation 0, target 33 -> notional 3300,
	// size 3300/30000 = 0.11 exactly; use a price that forces rounding.
	snapshot := snapshotWith(t, 0, 10000, 29311)

	plan, err := Plan(snapshot, recommendation(33), time.Now())
	require.NoError(t, err)

	expected := decimal.NewFromFloat(3300).Div(decimal.NewFromInt(29311)).Round(4)
	assert.True(t, plan.Size.Equal(expected), "got %s want %s", plan.Size.String(), expected.String())
	assert.True(t, plan.Size.Exponent() >= -4, "size must not exceed 4 decimal places")
}

func TestPlanDoesNotCapSellToHeldBalance(t *testing.T) {
	// Almost no BTC held but a sell gap computed from total value: the
	// planner must emit the oversized sell and leave rejection to the
	// exchange.
	snapshot := snapshotWith(t, 0.001, 10000, 30000)

	plan, err := Plan(snapshot, recommendation(0), time.Now())
	require.NoError(t, err)

	require.Equal(t, domain.SideSell, plan.Side)
	assert.True(t, plan.Size.GreaterThan(snapshot.Balance("BTC")),
		"planned size %s should exceed held %s", plan.Size.String(), snapshot.Balance("BTC").String())
}

func TestPlanZeroValuePortfolio(t *testing.T) {
	snapshot := snapshotWith(t, 0, 0, 30000)

	plan, err := Plan(snapshot, recommendation(60), time.Now())
	require.NoError(t, err)

	assert.Equal(t, domain.SideBuy, plan.Side)
	assert.True(t, plan.Size.IsZero(), "zero-value portfolio must plan a zero-size trade")
	assert.True(t, plan.IsNoop(), "executor must treat the plan as a no-op")
}

func TestPlanIsDeterministic(t *testing.T) {
	snapshot := snapshotWith(t, 1, 30000, 30000)
	now := time.Date(2026, 5, 1, 12, 0, 0, 123456789, time.UTC)

	first, err := Plan(snapshot, recommendation(80), now)
	require.NoError(t, err)
	second, err := Plan(snapshot, recommendation(80), now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.ClientOrderID, second.ClientOrderID)
}

func TestPlanClientOrderIDShape(t *testing.T) {
	snapshot := snapshotWith(t, 1, 30000, 30000)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	plan, err := Plan(snapshot, recommendation(80), now)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("%d_0.6_buy", now.UnixNano()/100_000), plan.ClientOrderID)
}
