package service

import (
	"context"
	"fmt"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
)

type AlertService interface {
	Create(ctx context.Context, userID uint, req dto.CreateAlertRequest) (*dto.AlertResponse, error)
	List(ctx context.Context, userID uint, req dto.ListAlertsRequest) ([]dto.AlertResponse, error)
	Delete(ctx context.Context, userID, alertID uint) error
}

type alertService struct {
	log            *logger.Logger
	alertRepo      repository.AlertRepository
	companyService CompanyService
}

func NewAlertService(log *logger.Logger, alertRepo repository.AlertRepository, companyService CompanyService) AlertService {
	return &alertService{
		log:            log,
		alertRepo:      alertRepo,
		companyService: companyService,
	}
}

func (s *alertService) Create(ctx context.Context, userID uint, req dto.CreateAlertRequest) (*dto.AlertResponse, error) {
	alertType := model.AlertType(req.AlertType)
	if !alertType.Valid() {
		return nil, fmt.Errorf("%w: unknown alert_type %q", common.ErrInvalidInput, req.AlertType)
	}
	if !req.ConditionValue.IsPositive() {
		return nil, fmt.Errorf("%w: condition_value must be positive", common.ErrInvalidInput)
	}

	company, err := s.companyService.Resolve(ctx, req.Company)
	if err != nil {
		return nil, err
	}

	alert := &model.Alert{
		UserID:         userID,
		CompanyID:      company.ID,
		AlertType:      alertType,
		ConditionValue: req.ConditionValue,
		IsActive:       true,
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		s.log.ErrorContext(ctx, "Failed to create alert", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	alert.Company = *company

	s.log.InfoContext(ctx, "Alert created",
		logger.UintField("alert_id", alert.ID),
		logger.StringField("ticker", company.Ticker),
		logger.StringField("type", string(alertType)))
	resp := toAlertResponse(alert)
	return &resp, nil
}

func (s *alertService) List(ctx context.Context, userID uint, req dto.ListAlertsRequest) ([]dto.AlertResponse, error) {
	alerts, err := s.alertRepo.Get(ctx, model.GetAlertsParam{UserID: &userID, IsActive: req.Active})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list alerts", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	resp := make([]dto.AlertResponse, 0, len(alerts))
	for i := range alerts {
		resp = append(resp, toAlertResponse(&alerts[i]))
	}
	return resp, nil
}

func (s *alertService) Delete(ctx context.Context, userID, alertID uint) error {
	alert, err := s.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	if alert == nil {
		return fmt.Errorf("%w: alert %d", common.ErrNotFound, alertID)
	}
	if alert.UserID != userID {
		return fmt.Errorf("%w: alert %d belongs to another user", common.ErrForbidden, alertID)
	}
	if err := s.alertRepo.Delete(ctx, alertID); err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	return nil
}

func toAlertResponse(alert *model.Alert) dto.AlertResponse {
	return dto.AlertResponse{
		ID:             alert.ID,
		Company:        alert.Company.Ticker,
		CompanyName:    alert.Company.Name,
		AlertType:      string(alert.AlertType),
		ConditionValue: alert.ConditionValue,
		IsActive:       alert.IsActive,
		TriggeredAt:    alert.TriggeredAt,
		TriggeredValue: alert.TriggeredValue,
		CreatedAt:      alert.CreatedAt,
	}
}
