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
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiAIRepository answers prompts through the Google Gen AI SDK.
type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	tokenBudget    *ratelimit.TokenBudget
	requestLimiter *rate.Limiter
	sem            *semaphore.Weighted
	genAiClient    *genai.Client
}

// NewGeminiAIRepository builds the client. Without an API key the repository
// reports itself unconfigured and every call fails with ErrUnavailable.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger) (LLMRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(max(cfg.Gemini.MaxRequestPerMinute, 1))
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	repo := &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenBudget:    ratelimit.NewTokenBudget(cfg.Gemini.MaxTokenPerMinute),
		sem:            semaphore.NewWeighted(max(cfg.LLM.MaxConcurrency, 1)),
	}
	if cfg.Gemini.APIKey == "" {
		log.Warn("Gemini API key is not set, analysis requests will fail")
		return repo, nil
	}

	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     cfg.Gemini.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Gemini.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	repo.genAiClient = genAiClient
	return repo, nil
}

func (r *geminiAIRepository) Provider() string {
	return common.PROVIDER_GEMINI
}

func (r *geminiAIRepository) Configured() bool {
	return r.genAiClient != nil
}

func (r *geminiAIRepository) Generate(ctx context.Context, req dto.LLMRequest) (*dto.LLMResult, error) {
	if r.genAiClient == nil {
		return nil, fmt.Errorf("%w: gemini api key is not configured", common.ErrUnavailable)
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: waiting for gemini slot: %v", common.ErrUpstreamTimeout, err)
	}
	defer r.sem.Release(1)

	contents := []*genai.Content{
		genai.NewContentFromText(req.UserPrompt, genai.RoleUser),
	}

	geminiTokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.BaseModel, contents, nil)
	if err != nil {
		return nil, r.wrapError("failed to count tokens", err)
	}

	reserved := int(geminiTokenResp.TotalTokens)
	r.logger.DebugContext(ctx, "Gemini token count",
		logger.IntField("total_tokens", reserved),
		logger.IntField("remaining", r.tokenBudget.Remaining()),
	)
	if err := r.tokenBudget.Reserve(ctx, reserved); err != nil {
		return nil, fmt.Errorf("%w: waiting for gemini token budget: %v", common.ErrUpstreamTimeout, err)
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		r.tokenBudget.Settle(reserved, 0)
		return nil, fmt.Errorf("%w: waiting for gemini request budget: %v", common.ErrUpstreamTimeout, err)
	}

	if reserved > r.cfg.Gemini.MaxTokenPerMinute/2 {
		r.logger.WarnContext(ctx, "Prompt uses more than half of the token budget", logger.IntField("remaining", r.tokenBudget.Remaining()))
	}

	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(float32(r.cfg.LLM.Temperature)),
	}
	if req.SystemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.BaseModel, contents, genCfg)
	if err != nil {
		return nil, r.wrapError("failed to generate content", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: gemini returned no content", common.ErrUpstream)
	}

	tokens := reserved
	if resp.UsageMetadata != nil && resp.UsageMetadata.TotalTokenCount > 0 {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	r.tokenBudget.Settle(reserved, tokens)
	return &dto.LLMResult{Text: text, Tokens: tokens}, nil
}

func (r *geminiAIRepository) wrapError(msg string, err error) error {
	if httpclient.IsTimeout(err) {
		return fmt.Errorf("%w: gemini %s: %v", common.ErrUpstreamTimeout, msg, err)
	}
	return fmt.Errorf("%w: gemini %s: %v", common.ErrUpstream, msg, err)
}
