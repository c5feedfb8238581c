// Package marketcontext assembles the text context handed to the decision
// engine: portfolio state, recent fills, order book, indicator history with
// the fear & greed classification, and news.
package marketcontext

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
	"github.com/jonasdebeukelaer/bot-1/internal/services/market/collector"
	"github.com/jonasdebeukelaer/bot-1/internal/services/market/fearly"
	"github.com/jonasdebeukelaer/bot-1/internal/services/news"
)

const fearGreedDateLayout = "02-01-2006"

// BuildInput carries everything a cycle gathered before asking for a decision.
type BuildInput struct {
	Snapshot  *domain.PortfolioSnapshot
	Hourly    []collector.IndicatorPoint
	Daily     []collector.IndicatorPoint
	FearGreed []fearly.IndexEntry
	News      []news.Item
	Trades    []domain.ExchangeTrade
	OrderBook *domain.OrderBookSnapshot
	Previous  *domain.AllocationRecommendation
}

// Builder formats gathered market data into a MarketContext.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a market context builder.
func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build formats the input into the context the decision engine receives.
func (b *Builder) Build(in BuildInput) domain.MarketContext {
	mc := domain.MarketContext{
		HourlyIndicators:       formatIndicatorHistory(in.Hourly, nil),
		DailyIndicators:        formatIndicatorHistory(in.Daily, in.FearGreed),
		News:                   formatNews(in.News),
		LastTrades:             formatTrades(in.Trades),
		OrderBook:              formatOrderBook(in.OrderBook),
		PreviousRecommendation: in.Previous,
	}

	if in.Snapshot != nil {
		mc.Portfolio = in.Snapshot.Formatted()
		mc.AllocationPct = in.Snapshot.AllocationPct()
	}

	if b.logger != nil {
		b.logger.Debug("built market context",
			zap.Int("hourly_points", len(in.Hourly)),
			zap.Int("daily_points", len(in.Daily)),
			zap.Int("news_items", len(in.News)),
			zap.Int("trades", len(in.Trades)))
	}

	return mc
}

// formatIndicatorHistory renders one line per point. fearGreed is only set for
// the daily series; days with no index entry show as Unknown.
func formatIndicatorHistory(points []collector.IndicatorPoint, fearGreed []fearly.IndexEntry) string {
	if len(points) == 0 {
		return ""
	}

	classByDate := make(map[string]string, len(fearGreed))
	for _, entry := range fearGreed {
		classByDate[entry.Date] = entry.Classification
	}

	var sb strings.Builder
	for i, p := range points {
		if i > 0 {
			sb.WriteString("\n")
		}

		ts := p.Candle.OpenTime
		sb.WriteString(fmt.Sprintf("timestamp: %s, day_of_week: %s", ts.Format("2006-01-02 15:04:05"), ts.Weekday()))
		sb.WriteString(fmt.Sprintf(", candle_volume: %s", FiveSigFig(p.Candle.Volume)))
		sb.WriteString(fmt.Sprintf(", candle_high: %s", FiveSigFig(p.Candle.High)))
		sb.WriteString(fmt.Sprintf(", candle_low: %s", FiveSigFig(p.Candle.Low)))
		sb.WriteString(fmt.Sprintf(", candle_open: %s", FiveSigFig(p.Candle.Open)))
		sb.WriteString(fmt.Sprintf(", candle_close: %s", FiveSigFig(p.Candle.Close)))
		sb.WriteString(fmt.Sprintf(", 50EMA: %s", FiveSigFig(p.Indicators.EMA50)))
		sb.WriteString(fmt.Sprintf(", RSI: %s", FiveSigFig(p.Indicators.RSI14)))
		sb.WriteString(fmt.Sprintf(", MACD: %s", FiveSigFig(p.Indicators.MACD)))
		sb.WriteString(fmt.Sprintf(", MACD_signal: %s", FiveSigFig(p.Indicators.MACDSignal)))
		sb.WriteString(fmt.Sprintf(", MACD_hist: %s", FiveSigFig(p.Indicators.MACDHist)))

		if fearGreed != nil {
			class, ok := classByDate[ts.Format(fearGreedDateLayout)]
			if !ok {
				class = "Unknown"
			}
			sb.WriteString(fmt.Sprintf(", fear_greed_index_class: %s", class))
		}
	}

	return sb.String()
}

func formatNews(items []news.Item) string {
	if len(items) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("News %d: Published: %s Title: %s Summary: %s", i+1, item.Published, item.Title, item.Summary))
	}
	return sb.String()
}

func formatTrades(trades []domain.ExchangeTrade) string {
	if len(trades) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, tr := range trades {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s %s %s %s @ %s fee %s",
			tr.CreatedAt.Format("2006-01-02 15:04:05"),
			strings.ToLower(tr.Side),
			tr.Size.String(),
			tr.Symbol,
			FiveSigFig(tr.Price),
			tr.Fee))
	}
	return sb.String()
}

func formatOrderBook(ob *domain.OrderBookSnapshot) string {
	if ob == nil || (len(ob.Bids) == 0 && len(ob.Asks) == 0) {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Bids (price x size):")
	for _, lvl := range ob.Bids {
		sb.WriteString(fmt.Sprintf("\n%s x %s", FiveSigFig(lvl.Price), lvl.Size.String()))
	}
	sb.WriteString("\nAsks (price x size):")
	for _, lvl := range ob.Asks {
		sb.WriteString(fmt.Sprintf("\n%s x %s", FiveSigFig(lvl.Price), lvl.Size.String()))
	}
	return sb.String()
}
