// Command bot runs the LLM-driven BTC/GBP portfolio rebalancing bot.
// It supports Binance and Bybit and can be configured via a YAML config file
// or command-line arguments. Run with the "setup" argument to generate a
// starter config interactively.
//
// Usage:
//
//	bot --config config.yaml
//	bot setup
//
// Required environment variables (a .env file is also read):
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
//	LLM_API_KEY for the decision LLM
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonasdebeukelaer/bot-1/config"
	"github.com/jonasdebeukelaer/bot-1/internal"
	"github.com/jonasdebeukelaer/bot-1/internal/clients"
	"github.com/jonasdebeukelaer/bot-1/internal/setup"
	"github.com/jonasdebeukelaer/bot-1/internal/web"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	conf, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	var client any
	switch conf.Platform {
	case "binance":
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			log.Fatal("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
		}
		client = clients.NewBinanceClient(apiKey, apiSecret)
	case "bybit":
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			log.Fatal("BYBIT_API_KEY and BYBIT_API_SECRET environment variables must be set")
		}
		client = clients.NewBybitClient(apiKey, apiSecret)
	default:
		log.Fatal("unsupported platform")
	}

	llmAPIKey := os.Getenv("LLM_API_KEY")
	if llmAPIKey == "" {
		log.Fatal("LLM_API_KEY environment variable must be set")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	stores, err := internal.NewStores(conf)
	if err != nil {
		logger.Fatal("failed to open audit stores", zap.Error(err))
	}
	defer stores.Close()

	bot, err := internal.NewTradingBot(conf, client, llmAPIKey, stores)
	if err != nil {
		logger.Fatal("failed to create trading bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bot.Run(ctx, logger)
	})

	g.Go(func() error {
		logger.Info("starting audit web UI", zap.String("addr", conf.WebAddr))
		return web.NewServer(conf.WebAddr, stores.Trades, stores.Portfolio).Start(ctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Fatal("bot stopped", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
