package repository

import (
	"context"
	"errors"
	"market-insight/config"
	"market-insight/internal/model"
	"market-insight/pkg/cache"

	"gorm.io/gorm"
)

type SystemParamRepository interface {
	Get(ctx context.Context, name string, destValue interface{}) error
	GetDefaultCompetitors(ctx context.Context) (map[string][]string, error)
	GetAnalysisSystemPrompt(ctx context.Context) (string, error)
}

type systemParamRepository struct {
	cfg           *config.Config
	inmemoryCache cache.Cache
	db            *gorm.DB
}

func NewSystemParamRepository(cfg *config.Config, inmemoryCache cache.Cache, db *gorm.DB) SystemParamRepository {
	return &systemParamRepository{cfg: cfg, inmemoryCache: inmemoryCache, db: db}
}

func (s *systemParamRepository) Get(ctx context.Context, name string, destValue interface{}) error {
	var param model.SystemParameter

	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&param).Error; err != nil {
		return err
	}
	return param.Decode(destValue)
}

// GetDefaultCompetitors maps a ticker to the peers compared when a request names none.
// A missing parameter yields an empty map.
func (s *systemParamRepository) GetDefaultCompetitors(ctx context.Context) (map[string][]string, error) {
	return cache.GetOrLoad(s.inmemoryCache, model.SysParamDefaultCompetitors, s.cfg.Cache.SysParamExpDuration, func() (map[string][]string, error) {
		competitors := map[string][]string{}
		if err := s.Get(ctx, model.SysParamDefaultCompetitors, &competitors); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return competitors, nil
	})
}

// GetAnalysisSystemPrompt returns the operator-tuned system prompt, or "" when none is stored.
func (s *systemParamRepository) GetAnalysisSystemPrompt(ctx context.Context) (string, error) {
	return cache.GetOrLoad(s.inmemoryCache, model.SysParamAnalysisPrompt, s.cfg.Cache.SysParamExpDuration, func() (string, error) {
		var prompt string
		if err := s.Get(ctx, model.SysParamAnalysisPrompt, &prompt); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		return prompt, nil
	})
}
