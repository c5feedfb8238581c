package indicators

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func closesRamp(n int, start, step float64) []decimal.Decimal {
	closes := make([]decimal.Decimal, n)
	v := start
	for i := 0; i < n; i++ {
		closes[i] = decimal.NewFromFloat(v)
		v += step
	}
	return closes
}

func TestCalculateEMATracksTrend(t *testing.T) {
	closes := closesRamp(60, 100, 1)

	ema, err := CalculateEMA(closes, 50)
	require.NoError(t, err)
	require.NotEmpty(t, ema)

	// On a steady uptrend the EMA lags price but still rises.
	last := ema[len(ema)-1]
	require.True(t, last.GreaterThan(decimal.NewFromInt(100)))
	require.True(t, last.LessThan(decimal.NewFromInt(160)))
}

func TestCalculateEMARejectsShortSeries(t *testing.T) {
	_, err := CalculateEMA(closesRamp(10, 100, 1), 50)
	require.Error(t, err)
}

func TestCalculateRSIBounds(t *testing.T) {
	closes := closesRamp(60, 100, 1)

	rsi, err := CalculateRSI(closes, 14)
	require.NoError(t, err)
	require.NotEmpty(t, rsi)

	// Monotonic gains keep RSI pinned near the top of its range.
	last := rsi[len(rsi)-1]
	require.True(t, last.GreaterThan(decimal.NewFromInt(70)))
	require.True(t, last.LessThanOrEqual(decimal.NewFromInt(100)))
}

func TestCalculateMACDReturnsBothLines(t *testing.T) {
	closes := closesRamp(60, 100, 1)

	macd, signal, err := CalculateMACD(closes)
	require.NoError(t, err)
	require.NotEmpty(t, macd)
	require.NotEmpty(t, signal)
}

func TestCalculateMACDRejectsShortSeries(t *testing.T) {
	_, _, err := CalculateMACD(closesRamp(10, 100, 1))
	require.Error(t, err)
}

func TestCalculateAllIndicatorsAligned(t *testing.T) {
	closes := closesRamp(80, 30000, 50)

	series, err := CalculateAllIndicators(closes)
	require.NoError(t, err)
	require.NotEmpty(t, series)

	for _, point := range series {
		require.False(t, point.EMA50.IsZero())
		require.True(t, point.MACDHist.Equal(point.MACD.Sub(point.MACDSignal)))
	}
}

func TestCalculateAllIndicatorsRejectsShortSeries(t *testing.T) {
	_, err := CalculateAllIndicators(closesRamp(30, 100, 1))
	require.Error(t, err)
}
