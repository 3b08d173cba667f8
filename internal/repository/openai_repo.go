package repository

import (
	"context"
	"fmt"
	"market-insight/config"
	"market-insight/internal/dto"
	"market-insight/pkg/common"
	"market-insight/pkg/httpclient"
	"market-insight/pkg/logger"
	"market-insight/pkg/ratelimit"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/semaphore"
)

// openAIRepository talks to any OpenAI-compatible chat endpoint through langchaingo.
type openAIRepository struct {
	cfg         *config.Config
	logger      *logger.Logger
	sem         *semaphore.Weighted
	tokenBudget *ratelimit.TokenBudget
	model       llms.Model
}

func NewOpenAIRepository(cfg *config.Config, log *logger.Logger) (LLMRepository, error) {
	repo := &openAIRepository{
		cfg:         cfg,
		logger:      log,
		sem:         semaphore.NewWeighted(max(cfg.LLM.MaxConcurrency, 1)),
		tokenBudget: ratelimit.NewTokenBudget(cfg.OpenAI.MaxTokenPerMinute),
	}
	if cfg.OpenAI.APIKey == "" {
		log.Warn("OpenAI API key is not set, analysis requests will fail")
		return repo, nil
	}

	opts := []openai.Option{
		openai.WithToken(cfg.OpenAI.APIKey),
		openai.WithModel(cfg.OpenAI.Model),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.OpenAI.Timeout}),
	}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	repo.model = model
	return repo, nil
}

func (r *openAIRepository) Provider() string {
	return common.PROVIDER_OPENAI
}

func (r *openAIRepository) Configured() bool {
	return r.model != nil
}

func (r *openAIRepository) Generate(ctx context.Context, req dto.LLMRequest) (*dto.LLMResult, error) {
	if r.model == nil {
		return nil, fmt.Errorf("%w: openai api key is not configured", common.ErrUnavailable)
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: waiting for openai slot: %v", common.ErrUpstreamTimeout, err)
	}
	defer r.sem.Release(1)

	reserved := ratelimit.EstimateTokens(req.SystemPrompt, req.UserPrompt)
	if err := r.tokenBudget.Reserve(ctx, reserved); err != nil {
		return nil, fmt.Errorf("%w: waiting for openai token budget: %v", common.ErrUpstreamTimeout, err)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, req.UserPrompt),
	}

	resp, err := r.model.GenerateContent(ctx, messages,
		llms.WithJSONMode(),
		llms.WithTemperature(r.cfg.LLM.Temperature),
	)
	if err != nil {
		r.tokenBudget.Settle(reserved, 0)
		if httpclient.IsTimeout(err) {
			return nil, fmt.Errorf("%w: openai: %v", common.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("%w: openai: %v", common.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return nil, fmt.Errorf("%w: openai returned no content", common.ErrUpstream)
	}

	choice := resp.Choices[0]
	tokens := reserved
	if v, ok := choice.GenerationInfo["TotalTokens"].(int); ok && v > 0 {
		tokens = v
	}
	r.tokenBudget.Settle(reserved, tokens)

	r.logger.DebugContext(ctx, "OpenAI completion", logger.IntField("total_tokens", tokens))
	return &dto.LLMResult{Text: choice.Content, Tokens: tokens}, nil
}
