package marketcontext

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
	"github.com/jonasdebeukelaer/bot-1/internal/services/market/collector"
	"github.com/jonasdebeukelaer/bot-1/internal/services/market/fearly"
	"github.com/jonasdebeukelaer/bot-1/internal/services/market/indicators"
	"github.com/jonasdebeukelaer/bot-1/internal/services/news"
)

func testPoint(openTime time.Time, close string) collector.IndicatorPoint {
	return collector.IndicatorPoint{
		Candle: domain.Candle{
			OpenTime: openTime,
			Open:     decimal.RequireFromString("29500"),
			High:     decimal.RequireFromString("30100"),
			Low:      decimal.RequireFromString("29400"),
			Close:    decimal.RequireFromString(close),
			Volume:   decimal.RequireFromString("12.345678"),
		},
		Indicators: indicators.IndicatorData{
			EMA50:      decimal.RequireFromString("29800.123"),
			RSI14:      decimal.RequireFromString("61.23456"),
			MACD:       decimal.RequireFromString("15.5"),
			MACDSignal: decimal.RequireFromString("12.5"),
			MACDHist:   decimal.RequireFromString("3"),
		},
	}
}

func TestBuildFormatsIndicatorHistory(t *testing.T) {
	builder := NewBuilder(zap.NewNop())

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	mc := builder.Build(BuildInput{
		Hourly: []collector.IndicatorPoint{testPoint(day.Add(14*time.Hour), "30000")},
		Daily:  []collector.IndicatorPoint{testPoint(day, "30000")},
		FearGreed: []fearly.IndexEntry{
			{Date: "02-01-2024", Classification: "Fear"},
		},
	})

	require.Contains(t, mc.HourlyIndicators, "timestamp: 2024-01-02 14:00:00")
	require.Contains(t, mc.HourlyIndicators, "day_of_week: Tuesday")
	require.Contains(t, mc.HourlyIndicators, "candle_volume: 12.346")
	require.Contains(t, mc.HourlyIndicators, "50EMA: 29800")
	require.Contains(t, mc.HourlyIndicators, "RSI: 61.235")
	require.Contains(t, mc.HourlyIndicators, "MACD_hist: 3")
	require.NotContains(t, mc.HourlyIndicators, "fear_greed_index_class")

	require.Contains(t, mc.DailyIndicators, "fear_greed_index_class: Fear")
}

func TestBuildMarksMissingFearGreedAsUnknown(t *testing.T) {
	builder := NewBuilder(zap.NewNop())

	day := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	mc := builder.Build(BuildInput{
		Daily:     []collector.IndicatorPoint{testPoint(day, "30000")},
		FearGreed: []fearly.IndexEntry{{Date: "02-01-2024", Classification: "Greed"}},
	})

	require.Contains(t, mc.DailyIndicators, "fear_greed_index_class: Unknown")
}

func TestBuildFormatsNewsBlock(t *testing.T) {
	builder := NewBuilder(zap.NewNop())

	mc := builder.Build(BuildInput{
		News: []news.Item{
			{Title: "BTC rallies", Published: "2024-01-02T10:00:00Z", Summary: "Up 5% on the day."},
			{Title: "Rules incoming", Published: "2024-01-02T09:00:00Z", Summary: "New framework expected."},
		},
	})

	require.Contains(t, mc.News, "News 1: Published: 2024-01-02T10:00:00Z Title: BTC rallies Summary: Up 5% on the day.")
	require.Contains(t, mc.News, "News 2:")
}

func TestBuildFormatsPortfolioAndTrades(t *testing.T) {
	builder := NewBuilder(zap.NewNop())

	snapshot, err := domain.NewPortfolioSnapshot(
		domain.Pair{Base: "BTC", Quote: "GBP"},
		map[string]decimal.Decimal{
			"BTC": decimal.RequireFromString("0.5"),
			"GBP": decimal.NewFromInt(1000),
		},
		decimal.NewFromInt(30000),
		time.Now().UTC(),
	)
	require.NoError(t, err)

	mc := builder.Build(BuildInput{
		Snapshot: snapshot,
		Trades: []domain.ExchangeTrade{
			{
				Symbol:    "BTCGBP",
				Side:      "BUY",
				Price:     decimal.NewFromInt(29000),
				Size:      decimal.RequireFromString("0.01"),
				Fee:       "0.29 GBP",
				CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		OrderBook: &domain.OrderBookSnapshot{
			Bids: []domain.PriceLevel{{Price: decimal.NewFromInt(29990), Size: decimal.RequireFromString("0.2")}},
			Asks: []domain.PriceLevel{{Price: decimal.NewFromInt(30010), Size: decimal.RequireFromString("0.3")}},
		},
	})

	require.Contains(t, mc.Portfolio, "0.5 BTC")
	require.True(t, mc.AllocationPct.Equal(decimal.RequireFromString("93.75")))
	require.Contains(t, mc.LastTrades, "2024-01-01 12:00:00 buy 0.01 BTCGBP @ 29000 fee 0.29 GBP")
	require.Contains(t, mc.OrderBook, "29990 x 0.2")
	require.Contains(t, mc.OrderBook, "30010 x 0.3")
}

func TestBuildEmptyInputsYieldEmptySections(t *testing.T) {
	builder := NewBuilder(zap.NewNop())

	mc := builder.Build(BuildInput{})
	require.Empty(t, mc.HourlyIndicators)
	require.Empty(t, mc.DailyIndicators)
	require.Empty(t, mc.News)
	require.Empty(t, mc.LastTrades)
	require.Empty(t, mc.OrderBook)
	require.Empty(t, mc.Portfolio)
}
