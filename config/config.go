package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
)

const (
	defaultPlatform          = "binance"
	defaultPair              = "BTC_GBP"
	defaultCycleInterval     = 1 * time.Hour
	defaultLLMAPIURL         = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel          = "gpt-4o"
	defaultNewsLimit         = 10
	defaultTradesLimit       = 10
	defaultOrderBookDepth    = 10
	defaultIndicatorLookback = 100
	defaultIndicatorRows     = 10
	defaultWebAddr           = ":8080"
)

type Config struct {
	Platform          string
	Pair              domain.Pair
	CycleInterval     time.Duration
	LLMAPIURL         string
	LLMModel          string
	NewsFeedURL       string
	NewsLimit         int
	TradesLimit       int
	OrderBookDepth    int
	IndicatorLookback int
	IndicatorRows     int
	TradesWALDir      string
	PortfolioWALDir   string
	WebAddr           string
}

type ConfigTmp struct {
	Platform          string        `yaml:"platform"`
	Pair              string        `yaml:"pair"`
	CycleInterval     time.Duration `yaml:"cycle_interval"`
	LLMAPIURL         string        `yaml:"llm_api_url"`
	LLMModel          string        `yaml:"llm_model"`
	NewsFeedURL       string        `yaml:"news_feed_url"`
	NewsLimit         int           `yaml:"news_limit,omitempty"`
	TradesLimit       int           `yaml:"trades_limit,omitempty"`
	OrderBookDepth    int           `yaml:"order_book_depth,omitempty"`
	IndicatorLookback int           `yaml:"indicator_lookback,omitempty"`
	IndicatorRows     int           `yaml:"indicator_rows,omitempty"`
	TradesWALDir      string        `yaml:"trades_wal_dir,omitempty"`
	PortfolioWALDir   string        `yaml:"portfolio_wal_dir,omitempty"`
	WebAddr           string        `yaml:"web_addr,omitempty"`
}

func Get() (Config, error) {
	return getFromArgs(os.Args[1:])
}

// getFromArgs registers every flag before the single parse so unknown-flag
// errors only fire for flags that really do not exist.
func getFromArgs(args []string) (Config, error) {
	fs := flag.NewFlagSet("bot", flag.ContinueOnError)

	configPath := fs.String("config", "", "path to yaml config")
	pairFlag := fs.String("pair", defaultPair, "trade pair, example: BTC_GBP")
	platform := fs.String("platform", defaultPlatform, "exchange platform: binance or bybit")
	cycleInterval := fs.Duration("cycleinterval", defaultCycleInterval, "interval between decision cycles")
	llmAPIURL := fs.String("llmapiurl", defaultLLMAPIURL, "OpenAI-compatible chat completions endpoint")
	llmModel := fs.String("llmmodel", defaultLLMModel, "model name for the decision LLM")
	newsFeedURL := fs.String("newsfeedurl", "", "Google Alerts Atom feed URL for crypto news")
	webAddr := fs.String("webaddr", defaultWebAddr, "address of the audit web UI")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		return getYaml(*configPath)
	}

	pair, err := getPairFromString(*pairFlag)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --pair provided, --pair=%s", *pairFlag)
	}

	cfg := Config{
		Platform:          *platform,
		Pair:              pair,
		CycleInterval:     *cycleInterval,
		LLMAPIURL:         *llmAPIURL,
		LLMModel:          *llmModel,
		NewsFeedURL:       *newsFeedURL,
		NewsLimit:         defaultNewsLimit,
		TradesLimit:       defaultTradesLimit,
		OrderBookDepth:    defaultOrderBookDepth,
		IndicatorLookback: defaultIndicatorLookback,
		IndicatorRows:     defaultIndicatorRows,
		WebAddr:           *webAddr,
	}

	return cfg, validate(cfg)
}

func getYaml(path string) (Config, error) {
	var tmp ConfigTmp

	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	if tmp.Pair == "" {
		tmp.Pair = defaultPair
	}
	pair, err := getPairFromString(tmp.Pair)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pair' param in yaml config: %s, error: %w", tmp.Pair, err)
	}

	cfg := Config{
		Platform:          tmp.Platform,
		Pair:              pair,
		CycleInterval:     tmp.CycleInterval,
		LLMAPIURL:         tmp.LLMAPIURL,
		LLMModel:          tmp.LLMModel,
		NewsFeedURL:       tmp.NewsFeedURL,
		NewsLimit:         tmp.NewsLimit,
		TradesLimit:       tmp.TradesLimit,
		OrderBookDepth:    tmp.OrderBookDepth,
		IndicatorLookback: tmp.IndicatorLookback,
		IndicatorRows:     tmp.IndicatorRows,
		TradesWALDir:      tmp.TradesWALDir,
		PortfolioWALDir:   tmp.PortfolioWALDir,
		WebAddr:           tmp.WebAddr,
	}

	if cfg.Platform == "" {
		cfg.Platform = defaultPlatform
	}
	if cfg.CycleInterval == 0 {
		cfg.CycleInterval = defaultCycleInterval
	}
	if cfg.LLMAPIURL == "" {
		cfg.LLMAPIURL = defaultLLMAPIURL
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultLLMModel
	}
	if cfg.NewsLimit == 0 {
		cfg.NewsLimit = defaultNewsLimit
	}
	if cfg.TradesLimit == 0 {
		cfg.TradesLimit = defaultTradesLimit
	}
	if cfg.OrderBookDepth == 0 {
		cfg.OrderBookDepth = defaultOrderBookDepth
	}
	if cfg.IndicatorLookback == 0 {
		cfg.IndicatorLookback = defaultIndicatorLookback
	}
	if cfg.IndicatorRows == 0 {
		cfg.IndicatorRows = defaultIndicatorRows
	}
	if cfg.WebAddr == "" {
		cfg.WebAddr = defaultWebAddr
	}

	return cfg, validate(cfg)
}

func validate(cfg Config) error {
	switch cfg.Platform {
	case "binance", "bybit":
	default:
		return fmt.Errorf("unsupported platform %q (expected binance or bybit)", cfg.Platform)
	}

	if cfg.CycleInterval < time.Minute {
		return fmt.Errorf("cycle_interval %s is too short (minimum 1m)", cfg.CycleInterval)
	}

	return nil
}

func getPairFromString(pairStr string) (domain.Pair, error) {
	pairElements := strings.Split(pairStr, "_")
	if len(pairElements) != 2 || pairElements[0] == "" || pairElements[1] == "" {
		return domain.Pair{}, fmt.Errorf("invalid pair param")
	}
	return domain.Pair{Base: pairElements[0], Quote: pairElements[1]}, nil
}
