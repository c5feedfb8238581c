package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jonasdebeukelaer/bot-1/config"
	"github.com/jonasdebeukelaer/bot-1/internal/services/exchange"
	"github.com/jonasdebeukelaer/bot-1/pkg/retrier"
)

type cycleRunner interface {
	RunCycle(ctx context.Context) error
}

// TradingBot runs decision cycles on a fixed interval.
type TradingBot struct {
	Config       config.Config
	orchestrator cycleRunner
	retrier      *retrier.Retrier
}

// NewTradingBot creates a bot for the configured platform. client must be a
// *binance.Client or *bybit.Client matching conf.Platform.
func NewTradingBot(conf config.Config, client any, llmAPIKey string, stores *Stores) (*TradingBot, error) {
	logger := zap.L().With(zap.String("pair", conf.Pair.String()))

	orchestrator, err := createOrchestrator(logger, conf, client, llmAPIKey, stores)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create orchestrator")
	}

	return &TradingBot{
		Config:       conf,
		orchestrator: orchestrator,
		// Only transient exchange errors are worth retrying inside a cycle
		// window; anything else waits for the next tick.
		retrier: retrier.New(
			retrier.WithMaxRetries(3),
			retrier.WithInitialInterval(5*time.Second),
			retrier.WithRetryIf(exchange.IsTransient),
		),
	}, nil
}

// Run executes decision cycles until the context is cancelled. The first
// cycle starts immediately; subsequent cycles follow the configured interval.
func (b *TradingBot) Run(ctx context.Context, logger *zap.Logger) error {
	logger.Info("starting decision loop",
		zap.String("pair", b.Config.Pair.String()),
		zap.Duration("cycle_interval", b.Config.CycleInterval))

	b.runCycle(ctx, logger)

	ticker := time.NewTicker(b.Config.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("context done, stopping decision loop", zap.String("pair", b.Config.Pair.String()))
			return ctx.Err()
		case <-ticker.C:
			b.runCycle(ctx, logger)
		}
	}
}

func (b *TradingBot) runCycle(ctx context.Context, logger *zap.Logger) {
	err := b.retrier.Do(ctx, func(ctx context.Context) error {
		return b.orchestrator.RunCycle(ctx)
	})
	if err != nil {
		// Cycles are independent; a failed one never stops the loop.
		logger.Error("decision cycle failed", zap.String("pair", b.Config.Pair.String()), zap.Error(err))
	}
}
