// Package collector fetches kline (candlestick) history from exchanges and
// derives the indicator series shown to the decision engine.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
	"github.com/jonasdebeukelaer/bot-1/internal/services/market/indicators"
)

const minCandlesForIndicators = 50

// KlineProvider defines the interface for fetching kline (candlestick) data
type KlineProvider interface {
	// GetKlines fetches historical kline data for a trading pair
	// limit specifies the maximum number of klines to fetch
	// interval specifies the kline interval (e.g., "1h", "1d")
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error)
}

// BinanceKlineProvider implements KlineProvider for Binance exchange
type BinanceKlineProvider struct {
	client *binance.Client
}

// NewBinanceKlineProvider creates a new Binance kline provider
func NewBinanceKlineProvider(client *binance.Client) *BinanceKlineProvider {
	return &BinanceKlineProvider{client: client}
}

// GetKlines fetches kline data from Binance
func (p *BinanceKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	klines, err := p.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", pair.String())
	}

	result := make([]domain.Candle, len(klines))
	for i, k := range klines {
		open, err := decimal.NewFromString(k.Open)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse open price at index %d", i)
		}
		high, err := decimal.NewFromString(k.High)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse high price at index %d", i)
		}
		low, err := decimal.NewFromString(k.Low)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse low price at index %d", i)
		}
		closePrice, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}
		volume, err := decimal.NewFromString(k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse volume at index %d", i)
		}

		result[i] = domain.Candle{
			OpenTime:  time.Unix(0, k.OpenTime*int64(time.Millisecond)),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			CloseTime: time.Unix(0, k.CloseTime*int64(time.Millisecond)),
		}
	}

	return result, nil
}

// BybitKlineProvider implements KlineProvider for Bybit exchange
type BybitKlineProvider struct {
	client *bybit.Client
}

// NewBybitKlineProvider creates a new Bybit kline provider
func NewBybitKlineProvider(client *bybit.Client) *BybitKlineProvider {
	return &BybitKlineProvider{client: client}
}

// GetKlines fetches kline data from Bybit
func (p *BybitKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	// Note: Bybit kline API implementation is pending
	return nil, fmt.Errorf("Bybit kline provider is not yet implemented - use the binance platform for indicator history")
}

// IndicatorPoint pairs a candle with the indicator values at its close.
type IndicatorPoint struct {
	Candle     domain.Candle
	Indicators indicators.IndicatorData
}

// MarketDataCollector manages market data collection and indicator calculation
type MarketDataCollector struct {
	provider KlineProvider
	pair     domain.Pair
}

// NewMarketDataCollector creates a new market data collector
func NewMarketDataCollector(provider KlineProvider, pair domain.Pair) *MarketDataCollector {
	return &MarketDataCollector{
		provider: provider,
		pair:     pair,
	}
}

// FetchIndicatorHistory fetches candles for the interval and returns the most
// recent points with indicators attached, newest last. rows limits how many
// points are returned; the fetch itself always requests enough candles for
// the indicator warmup.
func (c *MarketDataCollector) FetchIndicatorHistory(
	ctx context.Context,
	interval string,
	lookback int,
	rows int,
) ([]IndicatorPoint, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if lookback < minCandlesForIndicators {
		lookback = minCandlesForIndicators
	}

	candles, err := c.provider.GetKlines(ctxWithTimeout, c.pair, interval, lookback)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines for interval %s", interval)
	}

	if len(candles) == 0 {
		return nil, errors.Errorf("no kline data returned for interval %s", interval)
	}

	if len(candles) < minCandlesForIndicators {
		return nil, errors.Errorf(
			"insufficient kline data for interval %s (need at least %d, change 'lookback_periods' in config)",
			interval,
			minCandlesForIndicators,
		)
	}

	closes := make([]decimal.Decimal, len(candles))
	for i, k := range candles {
		closes[i] = k.Close
	}

	series, err := indicators.CalculateAllIndicators(closes)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to calculate indicators for interval %s", interval)
	}

	// Indicator series is shorter than the candle series because of warmup;
	// they share the same final element.
	offset := len(candles) - len(series)
	points := make([]IndicatorPoint, len(series))
	for i := range series {
		points[i] = IndicatorPoint{
			Candle:     candles[offset+i],
			Indicators: series[i],
		}
	}

	if rows > 0 && len(points) > rows {
		points = points[len(points)-rows:]
	}

	return points, nil
}
