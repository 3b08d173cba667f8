package service

import (
	"context"
	"errors"
	"fmt"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"strings"

	"gorm.io/gorm"
)

type WatchlistService interface {
	Create(ctx context.Context, userID uint, req dto.CreateWatchlistRequest) (*dto.WatchlistResponse, error)
	List(ctx context.Context, userID uint) ([]dto.WatchlistResponse, error)
	Delete(ctx context.Context, userID, watchlistID uint) error
	AddItem(ctx context.Context, userID, watchlistID uint, req dto.AddWatchlistItemRequest) (*dto.WatchlistItemResponse, error)
	RemoveItem(ctx context.Context, userID, watchlistID uint, ticker string) error
}

type watchlistService struct {
	log            *logger.Logger
	watchlistRepo  repository.WatchlistRepository
	companyRepo    repository.CompanyRepository
	marketDataRepo repository.MarketDataRepository
	companyService CompanyService
}

func NewWatchlistService(
	log *logger.Logger,
	watchlistRepo repository.WatchlistRepository,
	companyRepo repository.CompanyRepository,
	marketDataRepo repository.MarketDataRepository,
	companyService CompanyService,
) WatchlistService {
	return &watchlistService{
		log:            log,
		watchlistRepo:  watchlistRepo,
		companyRepo:    companyRepo,
		marketDataRepo: marketDataRepo,
		companyService: companyService,
	}
}

func (s *watchlistService) Create(ctx context.Context, userID uint, req dto.CreateWatchlistRequest) (*dto.WatchlistResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrInvalidInput)
	}

	watchlist := &model.Watchlist{UserID: userID, Name: name}
	if err := s.watchlistRepo.Create(ctx, watchlist); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: watchlist %q already exists", common.ErrConflict, name)
		}
		s.log.ErrorContext(ctx, "Failed to create watchlist", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	return &dto.WatchlistResponse{
		ID:        watchlist.ID,
		Name:      watchlist.Name,
		Items:     []dto.WatchlistItemResponse{},
		CreatedAt: watchlist.CreatedAt,
	}, nil
}

func (s *watchlistService) List(ctx context.Context, userID uint) ([]dto.WatchlistResponse, error) {
	watchlists, err := s.watchlistRepo.ListByUser(ctx, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list watchlists", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	var companyIDs []uint
	for _, w := range watchlists {
		for _, item := range w.Items {
			companyIDs = append(companyIDs, item.CompanyID)
		}
	}

	prices := map[uint]model.CompanyLatestPrice{}
	if len(companyIDs) > 0 {
		latest, err := s.marketDataRepo.GetLatestPrices(ctx, companyIDs)
		if err != nil {
			s.log.WarnContext(ctx, "Failed to load latest prices for watchlists", logger.ErrorField(err))
		} else {
			prices = latest
		}
	}

	resp := make([]dto.WatchlistResponse, 0, len(watchlists))
	for _, w := range watchlists {
		items := make([]dto.WatchlistItemResponse, 0, len(w.Items))
		for _, item := range w.Items {
			items = append(items, toWatchlistItemResponse(item, prices))
		}
		resp = append(resp, dto.WatchlistResponse{
			ID:        w.ID,
			Name:      w.Name,
			Items:     items,
			CreatedAt: w.CreatedAt,
		})
	}
	return resp, nil
}

func (s *watchlistService) Delete(ctx context.Context, userID, watchlistID uint) error {
	if _, err := s.owned(ctx, userID, watchlistID); err != nil {
		return err
	}
	if err := s.watchlistRepo.Delete(ctx, watchlistID); err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	return nil
}

func (s *watchlistService) AddItem(ctx context.Context, userID, watchlistID uint, req dto.AddWatchlistItemRequest) (*dto.WatchlistItemResponse, error) {
	if _, err := s.owned(ctx, userID, watchlistID); err != nil {
		return nil, err
	}

	company, err := s.companyService.Resolve(ctx, req.Ticker)
	if err != nil {
		return nil, err
	}

	item := &model.WatchlistItem{
		WatchlistID: watchlistID,
		CompanyID:   company.ID,
		Notes:       strings.TrimSpace(req.Notes),
	}
	if err := s.watchlistRepo.AddItem(ctx, item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s is already in the watchlist", common.ErrConflict, company.Ticker)
		}
		s.log.ErrorContext(ctx, "Failed to add watchlist item", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	item.Company = *company

	resp := toWatchlistItemResponse(*item, nil)
	return &resp, nil
}

func (s *watchlistService) RemoveItem(ctx context.Context, userID, watchlistID uint, ticker string) error {
	if _, err := s.owned(ctx, userID, watchlistID); err != nil {
		return err
	}

	ticker = dto.NormalizeTicker(ticker)
	if !dto.IsValidTicker(ticker) {
		return fmt.Errorf("%w: invalid ticker %q", common.ErrInvalidInput, ticker)
	}
	company, err := s.companyRepo.GetByTicker(ctx, ticker)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	if company == nil {
		return fmt.Errorf("%w: %s is not in the watchlist", common.ErrNotFound, ticker)
	}

	removed, err := s.watchlistRepo.RemoveItem(ctx, watchlistID, company.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s is not in the watchlist", common.ErrNotFound, ticker)
	}
	return nil
}

// owned loads the watchlist and checks it belongs to userID.
func (s *watchlistService) owned(ctx context.Context, userID, watchlistID uint) (*model.Watchlist, error) {
	watchlist, err := s.watchlistRepo.GetByID(ctx, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	if watchlist == nil {
		return nil, fmt.Errorf("%w: watchlist %d", common.ErrNotFound, watchlistID)
	}
	if watchlist.UserID != userID {
		return nil, fmt.Errorf("%w: watchlist %d belongs to another user", common.ErrForbidden, watchlistID)
	}
	return watchlist, nil
}

func toWatchlistItemResponse(item model.WatchlistItem, prices map[uint]model.CompanyLatestPrice) dto.WatchlistItemResponse {
	resp := dto.WatchlistItemResponse{
		Ticker:  item.Company.Ticker,
		Name:    item.Company.Name,
		Notes:   item.Notes,
		AddedAt: item.AddedAt,
	}
	if price, ok := prices[item.CompanyID]; ok {
		lastClose := price.ClosePrice
		date := price.Date
		resp.LastClose = &lastClose
		resp.ChangePercent = price.ChangePercent
		resp.PriceDate = &date
	}
	return resp
}
