package repository

import (
	"context"
	"market-insight/internal/dto"
)

// LLMRepository sends one prompt pair to a language model and returns the raw JSON answer.
type LLMRepository interface {
	Generate(ctx context.Context, req dto.LLMRequest) (*dto.LLMResult, error)
	Provider() string
	Configured() bool
}
