package internal

import (
	"context"
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jonasdebeukelaer/bot-1/config"
	"github.com/jonasdebeukelaer/bot-1/internal/clients"
	"github.com/jonasdebeukelaer/bot-1/internal/services/decision"
	"github.com/jonasdebeukelaer/bot-1/internal/services/exchange"
	"github.com/jonasdebeukelaer/bot-1/internal/services/executor"
	"github.com/jonasdebeukelaer/bot-1/internal/services/market/collector"
	"github.com/jonasdebeukelaer/bot-1/internal/services/market/fearly"
	"github.com/jonasdebeukelaer/bot-1/internal/services/marketcontext"
	"github.com/jonasdebeukelaer/bot-1/internal/services/news"
	"github.com/jonasdebeukelaer/bot-1/internal/services/promptbuilder"
	"github.com/jonasdebeukelaer/bot-1/internal/services/strategy"
	"github.com/jonasdebeukelaer/bot-1/internal/storage/portfolio"
	"github.com/jonasdebeukelaer/bot-1/internal/storage/trades"
)

// Stores bundles the WAL-backed audit stores shared by the bot and web UI.
type Stores struct {
	Trades    *trades.WALStore
	Portfolio *portfolio.WALStore
}

// NewStores opens the audit stores at configured (or default) locations.
func NewStores(conf config.Config) (*Stores, error) {
	tradeStore, err := trades.NewWALStore(conf.TradesWALDir)
	if err != nil {
		return nil, errors.Wrap(err, "open trade record store")
	}

	portfolioStore, err := portfolio.NewWALStore(conf.PortfolioWALDir)
	if err != nil {
		tradeStore.Close()
		return nil, errors.Wrap(err, "open portfolio record store")
	}

	return &Stores{Trades: tradeStore, Portfolio: portfolioStore}, nil
}

// Close closes both stores.
func (s *Stores) Close() {
	if s.Trades != nil {
		s.Trades.Close()
	}
	if s.Portfolio != nil {
		s.Portfolio.Close()
	}
}

// createGatewayAndKlines dispatches to platform-specific implementations.
// This is the single point of truth for exchange wiring.
func createGatewayAndKlines(conf config.Config, client any) (exchange.Gateway, collector.KlineProvider, error) {
	switch c := client.(type) {
	case *binance.Client:
		return exchange.NewBinanceGateway(c, conf.Pair), collector.NewBinanceKlineProvider(c), nil
	case *bybit.Client:
		return exchange.NewBybitGateway(c, conf.Pair), collector.NewBybitKlineProvider(c), nil
	default:
		return nil, nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

// createOrchestrator builds the full decision cycle for the configured platform.
func createOrchestrator(
	logger *zap.Logger,
	conf config.Config,
	client any,
	llmAPIKey string,
	stores *Stores,
) (*strategy.Orchestrator, error) {
	gateway, klineProvider, err := createGatewayAndKlines(conf, client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create exchange gateway")
	}

	promptBuilder := promptbuilder.NewPromptBuilder(conf.Pair, logger)
	llmClient := clients.NewOpenAICompatibleClient(conf.LLMAPIURL, llmAPIKey, conf.LLMModel)
	engine := decision.NewEngine(llmClient, promptBuilder, logger)

	marketDataCollector := collector.NewMarketDataCollector(klineProvider, conf.Pair)
	fearGreedClient := fearly.NewClient("")

	var newsFetcher *news.Fetcher
	if conf.NewsFeedURL != "" {
		newsFetcher = news.NewFetcher(conf.NewsFeedURL, conf.NewsLimit)
	}

	tradeExecutor := executor.NewTradeExecutor(gateway, logger)

	orchestratorCfg := strategy.Config{
		TradesLimit:       conf.TradesLimit,
		OrderBookDepth:    conf.OrderBookDepth,
		IndicatorLookback: conf.IndicatorLookback,
		IndicatorRows:     conf.IndicatorRows,
	}

	// news.Fetcher is passed through an interface; a nil *Fetcher must stay a
	// nil interface so the orchestrator skips the source entirely.
	orchestrator := strategy.NewOrchestrator(
		conf.Pair,
		gateway,
		marketDataCollector,
		fearGreedClient,
		newsFetcherOrNil(newsFetcher),
		marketcontext.NewBuilder(logger),
		engine,
		tradeExecutor,
		stores.Trades,
		stores.Portfolio,
		orchestratorCfg,
		logger,
	)

	return orchestrator, nil
}

type newsSource interface {
	Fetch(ctx context.Context) ([]news.Item, error)
}

func newsFetcherOrNil(f *news.Fetcher) newsSource {
	if f == nil {
		return nil
	}
	return f
}
