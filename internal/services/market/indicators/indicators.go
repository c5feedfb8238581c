// Package indicators provides technical analysis indicators for the decision
// context. It uses the cinar/indicator library to calculate EMA, RSI and MACD
// from close prices.
package indicators

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
)

// IndicatorData holds calculated technical indicators for a specific time period
type IndicatorData struct {
	// EMA50 is the 50-period Exponential Moving Average
	EMA50 decimal.Decimal
	// RSI14 is the 14-period Relative Strength Index
	RSI14 decimal.Decimal
	// MACD is the MACD line value
	MACD decimal.Decimal
	// MACDSignal is the MACD signal line value
	MACDSignal decimal.Decimal
	// MACDHist is the difference between the MACD and signal lines
	MACDHist decimal.Decimal
}

// CalculateEMA calculates the Exponential Moving Average for the given period
func CalculateEMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(closes) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(closes))
	}

	closesFloat := decimalsToFloat64(closes)

	ema := trend.NewEmaWithPeriod[float64](period)

	inputChan := helper.SliceToChan(closesFloat)
	outputChan := ema.Compute(inputChan)
	emaFloat := helper.ChanToSlice(outputChan)

	return float64ToDecimals(emaFloat), nil
}

// CalculateRSI calculates the Relative Strength Index for the given period
func CalculateRSI(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(closes) < period+1 {
		return nil, fmt.Errorf("not enough data points for RSI: need %d, got %d", period+1, len(closes))
	}

	closesFloat := decimalsToFloat64(closes)

	rsi := momentum.NewRsiWithPeriod[float64](period)

	inputChan := helper.SliceToChan(closesFloat)
	outputChan := rsi.Compute(inputChan)
	rsiFloat := helper.ChanToSlice(outputChan)

	return float64ToDecimals(rsiFloat), nil
}

// CalculateMACD calculates the MACD and signal lines.
func CalculateMACD(closes []decimal.Decimal) (macdLine, signalLine []decimal.Decimal, err error) {
	if len(closes) < 26 {
		return nil, nil, fmt.Errorf("not enough data points for MACD: need at least 26, got %d", len(closes))
	}

	closesFloat := decimalsToFloat64(closes)

	macd := trend.NewMacd[float64]()

	inputChan := helper.SliceToChan(closesFloat)
	macdChan, signalChan := macd.Compute(inputChan)

	// Both output channels must be drained concurrently or Compute deadlocks.
	done := make(chan struct{})
	var signalFloat []float64
	go func() {
		signalFloat = helper.ChanToSlice(signalChan)
		close(done)
	}()

	macdFloat := helper.ChanToSlice(macdChan)
	<-done

	return float64ToDecimals(macdFloat), float64ToDecimals(signalFloat), nil
}

// CalculateAllIndicators calculates all indicators for the given close prices.
// Returns one IndicatorData per data point where every indicator is available.
func CalculateAllIndicators(closes []decimal.Decimal) ([]IndicatorData, error) {
	if len(closes) < 50 {
		return nil, fmt.Errorf("not enough data points: need at least 50, got %d", len(closes))
	}

	ema50, err := CalculateEMA(closes, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate EMA50: %w", err)
	}

	rsi14, err := CalculateRSI(closes, 14)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate RSI14: %w", err)
	}

	macd, signal, err := CalculateMACD(closes)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate MACD: %w", err)
	}

	// Indicators have different warmup periods; align to the shortest series.
	minLen := len(ema50)
	if len(rsi14) < minLen {
		minLen = len(rsi14)
	}
	if len(macd) < minLen {
		minLen = len(macd)
	}
	if len(signal) < minLen {
		minLen = len(signal)
	}

	offsetEMA50 := len(ema50) - minLen
	offsetRSI14 := len(rsi14) - minLen
	offsetMACD := len(macd) - minLen
	offsetSignal := len(signal) - minLen

	result := make([]IndicatorData, minLen)
	for i := 0; i < minLen; i++ {
		m := macd[offsetMACD+i]
		s := signal[offsetSignal+i]
		result[i] = IndicatorData{
			EMA50:      ema50[offsetEMA50+i],
			RSI14:      rsi14[offsetRSI14+i],
			MACD:       m,
			MACDSignal: s,
			MACDHist:   m.Sub(s),
		}
	}

	return result, nil
}

// decimalsToFloat64 converts a slice of decimal.Decimal to []float64
func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

// float64ToDecimals converts a slice of float64 to []decimal.Decimal
func float64ToDecimals(floats []float64) []decimal.Decimal {
	result := make([]decimal.Decimal, len(floats))
	for i, f := range floats {
		result[i] = decimal.NewFromFloat(f)
	}
	return result
}
