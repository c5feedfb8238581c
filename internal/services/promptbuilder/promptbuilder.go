// Package promptbuilder generates the prompts sent to the LLM for portfolio
// allocation decisions. It formats portfolio state, recent activity, technical
// indicators and news into a single context block.
package promptbuilder

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
)

// SystemPrompt defines the global system instructions for the trading LLM.
const SystemPrompt = `You are an advanced swing trader with a medium-high risk appetite, trading Bitcoin. Your decisions are driven by a blend of technical analysis, market trends, and the latest news, with a strict policy against succumbing to FOMO and FUD. Decisions are made as a percentage of the portfolio to hold in bitcoin; the rest is held as fiat. Your strategy involves capitalizing on short to medium-term fluctuations and managing risk by adjusting the position size according to the provided context.

Consider that trading fees are 0.6% for takers and 0.4% for makers, so avoid unnecessary trades by opting for slightly longer term strategies (days to weeks).

## DECISION OUTPUT FORMAT

Respond with ONLY valid JSON. No markdown, no code blocks, no additional text.

**Required JSON structure:**

{
  "target_btc_pct": 0.0,
  "rationale": "explain your analysis and decision",
  "data_requests": "additional data not in the context that would help future decisions, or empty",
  "data_issues": "issues you can see in the provided data, or empty"
}

**Field specifications:**

- **target_btc_pct** (number): The percentage of the portfolio to hold in bitcoin, between 0 and 100.
- **rationale** (string): What patterns or data influenced the decision. Be specific about which data points matter.
- **data_requests** (string): Be succinct. Leave empty if nothing is missing.
- **data_issues** (string): Be succinct. Leave empty if the data looks fine.

## CRITICAL REMINDERS

1. Output ONLY the JSON object - nothing else
2. Ensure JSON is valid and parseable
3. Keeping the current allocation is a valid decision when conditions are unclear`

// PromptBuilder constructs user prompts for the LLM.
type PromptBuilder struct {
	pair   domain.Pair
	logger *zap.Logger
}

// NewPromptBuilder creates a new PromptBuilder instance.
func NewPromptBuilder(pair domain.Pair, logger *zap.Logger) *PromptBuilder {
	return &PromptBuilder{
		pair:   pair,
		logger: logger,
	}
}

// BuildUserPrompt constructs the complete user prompt from market context.
func (pb *PromptBuilder) BuildUserPrompt(ctx domain.MarketContext, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Market Analysis for %s\n\n", pb.pair.String()))
	sb.WriteString(fmt.Sprintf("Current time: %s\n\n", now.Format("2006-01-02 15:04:05")))

	sb.WriteString("## Current Portfolio\n\n")
	if len(ctx.Portfolio) == 0 {
		sb.WriteString("No holdings\n")
	} else {
		for _, line := range ctx.Portfolio {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	sb.WriteString(fmt.Sprintf("\nYour current bitcoin holding percentage is: %s%%\n\n", ctx.AllocationPct.StringFixed(2)))

	if ctx.PreviousRecommendation != nil {
		sb.WriteString("## Previous Decision\n\n")
		sb.WriteString(ctx.PreviousRecommendation.String())
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Recent Trades\n\n")
	sb.WriteString(orNoData(ctx.LastTrades))

	sb.WriteString("## Order Book\n\n")
	sb.WriteString(orNoData(ctx.OrderBook))

	sb.WriteString("## Hourly Price and Indicators\n\n")
	sb.WriteString(orNoData(ctx.HourlyIndicators))

	sb.WriteString("## Daily Price and Indicators\n\n")
	sb.WriteString(orNoData(ctx.DailyIndicators))

	sb.WriteString("## Latest Bitcoin and Cryptocurrency News\n\n")
	sb.WriteString(orNoData(ctx.News))

	sb.WriteString("## Instructions\n\n")
	sb.WriteString("Decide what percentage of the portfolio to hold in bitcoin and respond in the JSON format described in the system prompt.\n")

	prompt := sb.String()
	if pb.logger != nil {
		pb.logger.Debug("built user prompt", zap.Int("length", len(prompt)))
	}

	return prompt
}

func orNoData(section string) string {
	section = strings.TrimSpace(section)
	if section == "" {
		return "No data available\n\n"
	}
	return section + "\n\n"
}
