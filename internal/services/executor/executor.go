// Package executor submits trade plans to the exchange gateway and classifies
// the result into a realized trade outcome.
package executor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
	"github.com/jonasdebeukelaer/bot-1/internal/services/exchange"
)

type gateway interface {
	GetPortfolioSnapshot(ctx context.Context) (*domain.PortfolioSnapshot, error)
	SubmitMarketOrder(ctx context.Context, clientOrderID string, side domain.Side, size decimal.Decimal) (*exchange.OrderResult, error)
}

// TradeExecutor turns a TradePlan into at most one market order. It never
// retries: transient failures are propagated with their classification intact
// so the caller can decide.
type TradeExecutor struct {
	gateway gateway
	logger  *zap.Logger
}

// NewTradeExecutor creates an executor bound to a gateway.
func NewTradeExecutor(gateway gateway, logger *zap.Logger) *TradeExecutor {
	return &TradeExecutor{gateway: gateway, logger: logger}
}

// Execute submits the plan. No-op plans (side none or zero size) return
// without any gateway call. After a real submission attempt that ends in
// success or insufficient funds, the portfolio snapshot is re-read exactly
// once so the recorded post-trade state reflects reality; the returned
// snapshot is nil when no attempt was made or the re-read failed.
//
// Insufficient funds is a business outcome, not an error: the attempted
// parameters are logged and the cycle completes without a trade. Transient
// and fatal gateway errors are returned to the caller unmodified.
func (e *TradeExecutor) Execute(ctx context.Context, plan domain.TradePlan) (domain.TradeOutcome, *domain.PortfolioSnapshot, error) {
	if plan.IsNoop() {
		e.logger.Info("no trade wanted", zap.String("plan", plan.String()))
		return domain.NoTradeOutcome(), nil, nil
	}

	e.logger.Info("executing trade",
		zap.String("side", plan.Side.String()),
		zap.String("size", plan.Size.String()),
		zap.String("notional_fiat", plan.NotionalFiat.String()),
		zap.String("client_order_id", plan.ClientOrderID))

	outcome := domain.TradeOutcome{
		Side:          plan.Side.String(),
		Size:          plan.Size,
		NotionalFiat:  plan.NotionalFiat,
		ClientOrderID: plan.ClientOrderID,
	}

	result, err := e.gateway.SubmitMarketOrder(ctx, plan.ClientOrderID, plan.Side, plan.Size)
	switch {
	case err == nil:
		outcome.Status = domain.OutcomeExecuted
		e.logger.Info("trade executed",
			zap.String("order_id", result.OrderID),
			zap.String("client_order_id", result.ClientOrderID))

	case exchange.IsInsufficientFunds(err):
		outcome.Status = domain.OutcomeInsufficientFunds
		e.logger.Error("insufficient funds to execute trade",
			zap.String("side", plan.Side.String()),
			zap.String("size", plan.Size.String()),
			zap.String("notional_fiat", plan.NotionalFiat.String()),
			zap.Error(err))

	case exchange.IsTransient(err):
		return domain.TradeOutcome{}, nil, errors.Wrap(err, "transient gateway failure submitting order")

	default:
		return domain.TradeOutcome{}, nil, errors.Wrap(err, "failed to submit market order")
	}

	snapshot, err := e.gateway.GetPortfolioSnapshot(ctx)
	if err != nil {
		// The order attempt already happened; losing the re-read must not
		// turn a completed cycle into a failed one.
		e.logger.Error("failed to re-read portfolio after trade attempt", zap.Error(err))
		return outcome, nil, nil
	}

	return outcome, snapshot, nil
}
