package planner

import (
	"context"
	"fmt"
	"log"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"

	"github.com/aturei/flowsynth/internal/models"
)

// AnthropicPlanner generates plans with an Anthropic model through
// langchaingo.
type AnthropicPlanner struct {
	model     llms.Model
	maxTokens int
}

func NewAnthropicPlanner(apiKey, modelName string) (*AnthropicPlanner, error) {
	llm, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize anthropic model: %w", err)
	}

	return &AnthropicPlanner{
		model:     llm,
		maxTokens: 1500,
	}, nil
}

// NewFromModel wraps an existing model; used by tests.
func NewFromModel(model llms.Model) *AnthropicPlanner {
	return &AnthropicPlanner{model: model, maxTokens: 1500}
}

func (p *AnthropicPlanner) GeneratePlan(ctx context.Context, description string, hints Hints) (*models.Plan, error) {
	prompt := BuildPlanPrompt(description, hints)

	content, err := llms.GenerateFromSinglePrompt(ctx, p.model, prompt,
		llms.WithMaxTokens(p.maxTokens),
		llms.WithTemperature(0.1), // low temperature for consistent plans
	)
	if err != nil {
		return nil, fmt.Errorf("planner call failed: %w", err)
	}

	plan, err := ParsePlanResponse(content)
	if err != nil {
		log.Printf("Planner returned unusable output: %v", err)
		return nil, err
	}

	return plan, nil
}
