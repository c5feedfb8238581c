// Package decision turns market context into allocation recommendations by
// querying an LLM and parsing its JSON response.
package decision

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
	"github.com/jonasdebeukelaer/bot-1/internal/services/promptbuilder"
)

type llmClient interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Engine asks the LLM for a target allocation given market context.
type Engine struct {
	llm           llmClient
	promptBuilder *promptbuilder.PromptBuilder
	logger        *zap.Logger
}

// NewEngine creates a decision engine backed by an LLM client.
func NewEngine(llm llmClient, promptBuilder *promptbuilder.PromptBuilder, logger *zap.Logger) *Engine {
	return &Engine{
		llm:           llm,
		promptBuilder: promptBuilder,
		logger:        logger,
	}
}

// llmResponse mirrors the JSON contract the system prompt asks the model for.
// TargetPct stays a json.Number so the exact textual value reaches decimal
// parsing without a float round trip.
type llmResponse struct {
	TargetPct    *json.Number `json:"target_btc_pct"`
	Rationale    string       `json:"rationale"`
	DataRequests string       `json:"data_requests"`
	DataIssues   string       `json:"data_issues"`
}

// Decide builds the prompt, queries the LLM and parses the recommendation.
// The returned recommendation is NOT range-checked here; the planner validates
// it so a misbehaving model cannot slip past the pipeline boundary.
func (e *Engine) Decide(ctx context.Context, mc domain.MarketContext) (*domain.AllocationRecommendation, error) {
	userPrompt := e.promptBuilder.BuildUserPrompt(mc, time.Now().UTC())

	response, err := e.llm.Chat(ctx, promptbuilder.SystemPrompt, userPrompt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get LLM decision")
	}

	rec, err := e.parseResponse(response)
	if err != nil {
		e.logger.Error("failed to parse LLM response",
			zap.Error(err),
			zap.String("response", response))
		return nil, errors.Wrap(err, "failed to parse LLM decision")
	}

	e.logger.Info("📊 allocation recommendation",
		zap.String("target_pct", rec.TargetPct.String()),
		zap.String("rationale", rec.Rationale))

	return rec, nil
}

func (e *Engine) parseResponse(response string) (*domain.AllocationRecommendation, error) {
	// Clean up response - remove markdown code blocks if present
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	if !json.Valid([]byte(response)) {
		return nil, errors.New("invalid JSON structure in LLM response")
	}

	var parsed llmResponse
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, errors.Wrap(err, "unmarshal LLM response")
	}

	if parsed.TargetPct == nil {
		return nil, errors.New("LLM response is missing target_btc_pct")
	}

	target, err := decimal.NewFromString(parsed.TargetPct.String())
	if err != nil {
		return nil, errors.Wrapf(err, "target_btc_pct %q is not numeric", parsed.TargetPct.String())
	}

	return &domain.AllocationRecommendation{
		TargetPct:    target,
		Rationale:    strings.TrimSpace(parsed.Rationale),
		DataRequests: strings.TrimSpace(parsed.DataRequests),
		DataIssues:   strings.TrimSpace(parsed.DataIssues),
		DecidedAt:    time.Now().UTC(),
	}, nil
}
