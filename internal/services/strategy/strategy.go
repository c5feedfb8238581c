// Package strategy runs the decision cycle: gather context, ask the decision
// engine for a target allocation, plan at most one trade, execute it and
// record the result.
package strategy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
	"github.com/jonasdebeukelaer/bot-1/internal/services/market/collector"
	"github.com/jonasdebeukelaer/bot-1/internal/services/market/fearly"
	"github.com/jonasdebeukelaer/bot-1/internal/services/marketcontext"
	"github.com/jonasdebeukelaer/bot-1/internal/services/news"
	"github.com/jonasdebeukelaer/bot-1/internal/services/planner"
)

// cycleState tracks where a cycle is in its lifecycle, for logging and tests.
type cycleState string

const (
	stateIdle             cycleState = "idle"
	stateFetchingContext  cycleState = "fetching_context"
	stateAwaitingDecision cycleState = "awaiting_decision"
	statePlanning         cycleState = "planning"
	stateExecuting        cycleState = "executing"
	stateRecording        cycleState = "recording"
	stateAborted          cycleState = "aborted"
)

type marketGateway interface {
	GetPortfolioSnapshot(ctx context.Context) (*domain.PortfolioSnapshot, error)
	GetRecentTrades(ctx context.Context, limit int) ([]domain.ExchangeTrade, error)
	GetOrderBook(ctx context.Context, depth int) (*domain.OrderBookSnapshot, error)
}

type decisionEngine interface {
	Decide(ctx context.Context, mc domain.MarketContext) (*domain.AllocationRecommendation, error)
}

type tradeExecutor interface {
	Execute(ctx context.Context, plan domain.TradePlan) (domain.TradeOutcome, *domain.PortfolioSnapshot, error)
}

type indicatorCollector interface {
	FetchIndicatorHistory(ctx context.Context, interval string, lookback, rows int) ([]collector.IndicatorPoint, error)
}

type newsFetcher interface {
	Fetch(ctx context.Context) ([]news.Item, error)
}

type fearGreedClient interface {
	FetchIndex(ctx context.Context, limit int) ([]fearly.IndexEntry, error)
}

type tradeRecorder interface {
	Save(record domain.TradeRecord) error
}

type portfolioRecorder interface {
	Save(record domain.PortfolioRecord) error
}

// Config holds the per-cycle data-gathering knobs.
type Config struct {
	// TradesLimit is how many recent fills to show the decision engine.
	TradesLimit int
	// OrderBookDepth is how many levels per side to show.
	OrderBookDepth int
	// IndicatorLookback is how many candles to fetch per timeframe.
	IndicatorLookback int
	// IndicatorRows is how many indicator rows reach the context.
	IndicatorRows int
}

// Orchestrator drives one full decision cycle at a time. Cycles are
// independent of each other; the only state carried across them is the
// previous recommendation, passed on as extra context.
type Orchestrator struct {
	pair           domain.Pair
	gateway        marketGateway
	indicators     indicatorCollector
	fearGreed      fearGreedClient
	news           newsFetcher
	contextBuilder *marketcontext.Builder
	engine         decisionEngine
	executor       tradeExecutor
	tradeStore     tradeRecorder
	portfolioStore portfolioRecorder
	cfg            Config
	logger         *zap.Logger

	state       cycleState
	previousRec *domain.AllocationRecommendation
}

// NewOrchestrator wires the decision cycle together.
func NewOrchestrator(
	pair domain.Pair,
	gateway marketGateway,
	indicatorsCollector indicatorCollector,
	fearGreed fearGreedClient,
	newsFetcher newsFetcher,
	contextBuilder *marketcontext.Builder,
	engine decisionEngine,
	executor tradeExecutor,
	tradeStore tradeRecorder,
	portfolioStore portfolioRecorder,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.TradesLimit <= 0 {
		cfg.TradesLimit = 10
	}
	if cfg.OrderBookDepth <= 0 {
		cfg.OrderBookDepth = 10
	}
	if cfg.IndicatorRows <= 0 {
		cfg.IndicatorRows = 10
	}

	return &Orchestrator{
		pair:           pair,
		gateway:        gateway,
		indicators:     indicatorsCollector,
		fearGreed:      fearGreed,
		news:           newsFetcher,
		contextBuilder: contextBuilder,
		engine:         engine,
		executor:       executor,
		tradeStore:     tradeStore,
		portfolioStore: portfolioStore,
		cfg:            cfg,
		logger:         logger,
		state:          stateIdle,
	}
}

// RunCycle executes one full cycle. A returned error means the cycle aborted;
// the caller decides whether to retry (transient exchange errors) or wait for
// the next tick. At most one order is ever submitted per call.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	cycleID := uuid.New().String()
	logger := o.logger.With(zap.String("cycle_id", cycleID), zap.String("pair", o.pair.String()))

	logger.Info("starting decision cycle")

	snapshot, mc, err := o.fetchContext(ctx, logger)
	if err != nil {
		o.abort(logger, err)
		return err
	}

	o.setState(logger, stateAwaitingDecision)
	rec, err := o.engine.Decide(ctx, mc)
	if err != nil {
		o.abort(logger, err)
		return errors.Wrap(err, "decision engine failed")
	}

	o.setState(logger, statePlanning)
	plan, err := planner.Plan(snapshot, rec, time.Now().UTC())
	if err != nil {
		// Invalid recommendations never reach the exchange.
		o.abort(logger, err)
		return errors.Wrap(err, "planning failed")
	}

	o.setState(logger, stateExecuting)
	outcome, postSnapshot, err := o.executor.Execute(ctx, plan)
	if err != nil {
		o.abort(logger, err)
		return errors.Wrap(err, "execution failed")
	}

	// The decision survives to the next cycle as context once the engine has
	// answered and the order step is behind us.
	o.previousRec = rec

	o.setState(logger, stateRecording)
	o.record(logger, rec, outcome, snapshot, postSnapshot)

	o.setState(logger, stateIdle)
	logger.Info("decision cycle complete",
		zap.String("outcome", string(outcome.Status)),
		zap.String("target_pct", rec.TargetPct.String()))

	return nil
}

// fetchContext reads the portfolio and gathers the market data the decision
// engine sees. Every configured collaborator must deliver; a partial context
// would let the engine trade on silently missing data, so any failure here
// aborts the cycle. Sources that were never wired (nil) are skipped.
func (o *Orchestrator) fetchContext(ctx context.Context, logger *zap.Logger) (*domain.PortfolioSnapshot, domain.MarketContext, error) {
	o.setState(logger, stateFetchingContext)

	snapshot, err := o.gateway.GetPortfolioSnapshot(ctx)
	if err != nil {
		return nil, domain.MarketContext{}, errors.Wrap(err, "fetch portfolio snapshot")
	}

	input := marketcontext.BuildInput{
		Snapshot: snapshot,
		Previous: o.previousRec,
	}

	input.Trades, err = o.gateway.GetRecentTrades(ctx, o.cfg.TradesLimit)
	if err != nil {
		return nil, domain.MarketContext{}, errors.Wrap(err, "fetch recent trades")
	}

	input.OrderBook, err = o.gateway.GetOrderBook(ctx, o.cfg.OrderBookDepth)
	if err != nil {
		return nil, domain.MarketContext{}, errors.Wrap(err, "fetch order book")
	}

	if o.indicators != nil {
		input.Hourly, err = o.indicators.FetchIndicatorHistory(ctx, "1h", o.cfg.IndicatorLookback, o.cfg.IndicatorRows)
		if err != nil {
			return nil, domain.MarketContext{}, errors.Wrap(err, "fetch hourly indicators")
		}

		input.Daily, err = o.indicators.FetchIndicatorHistory(ctx, "1d", o.cfg.IndicatorLookback, o.cfg.IndicatorRows)
		if err != nil {
			return nil, domain.MarketContext{}, errors.Wrap(err, "fetch daily indicators")
		}
	}

	if o.fearGreed != nil {
		input.FearGreed, err = o.fearGreed.FetchIndex(ctx, o.cfg.IndicatorRows)
		if err != nil {
			return nil, domain.MarketContext{}, errors.Wrap(err, "fetch fear & greed index")
		}
	}

	if o.news != nil {
		input.News, err = o.news.Fetch(ctx)
		if err != nil {
			return nil, domain.MarketContext{}, errors.Wrap(err, "fetch news")
		}
	}

	return snapshot, o.contextBuilder.Build(input), nil
}

// record persists the trade record and post-trade portfolio state. Recording
// is best effort: failures are logged and never fail a completed cycle.
func (o *Orchestrator) record(
	logger *zap.Logger,
	rec *domain.AllocationRecommendation,
	outcome domain.TradeOutcome,
	preSnapshot *domain.PortfolioSnapshot,
	postSnapshot *domain.PortfolioSnapshot,
) {
	now := time.Now().UTC()

	record := domain.TradeRecord{
		Timestamp:    now,
		Pair:         o.pair.String(),
		TargetPct:    rec.TargetPct,
		Rationale:    rec.Rationale,
		DataRequests: rec.DataRequests,
		DataIssues:   rec.DataIssues,
		Outcome:      outcome,
	}
	if err := o.tradeStore.Save(record); err != nil {
		logger.Error("failed to persist trade record", zap.Error(err))
	}

	// No post-trade snapshot means nothing was traded or the re-read failed;
	// fall back to the pre-trade view so the audit trail stays contiguous.
	snapshot := postSnapshot
	if snapshot == nil {
		snapshot = preSnapshot
	}
	if snapshot == nil {
		return
	}

	if err := o.portfolioStore.Save(domain.NewPortfolioRecord(snapshot, now)); err != nil {
		logger.Error("failed to persist portfolio record", zap.Error(err))
	}
}

func (o *Orchestrator) setState(logger *zap.Logger, next cycleState) {
	o.state = next
	logger.Debug("cycle state", zap.String("state", string(next)))
}

func (o *Orchestrator) abort(logger *zap.Logger, err error) {
	o.state = stateAborted
	logger.Error("decision cycle aborted", zap.Error(err))
}
