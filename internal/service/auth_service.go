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
	"market-insight/pkg/security"
	"market-insight/pkg/utils"
	"strings"

	"gorm.io/gorm"
)

const (
	tokenTypeBearer      = "Bearer"
	defaultWatchlistName = "My Watchlist"
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
}

type authService struct {
	log           *logger.Logger
	userRepo      repository.UserRepository
	watchlistRepo repository.WatchlistRepository
	unitOfWork    repository.UnitOfWork
	tokens        *security.TokenManager
}

func NewAuthService(
	log *logger.Logger,
	userRepo repository.UserRepository,
	watchlistRepo repository.WatchlistRepository,
	unitOfWork repository.UnitOfWork,
	tokens *security.TokenManager,
) AuthService {
	return &authService{
		log:           log,
		userRepo:      userRepo,
		watchlistRepo: watchlistRepo,
		unitOfWork:    unitOfWork,
		tokens:        tokens,
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: email and a password of at least 8 characters are required", common.ErrInvalidInput)
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", common.ErrConflict)
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		TelegramID:   req.TelegramID,
		IsActive:     true,
	}
	// New users start with one empty watchlist.
	err = s.unitOfWork.Run(ctx, func(opts ...utils.DBOption) error {
		if err := s.userRepo.CreateUser(ctx, user, opts...); err != nil {
			return err
		}
		return s.watchlistRepo.Create(ctx, &model.Watchlist{UserID: user.ID, Name: defaultWatchlistName}, opts...)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", common.ErrConflict)
		}
		s.log.ErrorContext(ctx, "Failed to create user", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	s.log.InfoContext(ctx, "User registered", logger.UintField("user_id", user.ID))
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, security.ErrInvalidCredentials)
	}
	if err := security.CheckPasswordHash(req.Password, user.PasswordHash); err != nil {
		if errors.Is(err, security.ErrInvalidCredentials) {
			return nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
		}
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   expiresAt,
		User: dto.UserInfo{
			ID:         user.ID,
			Email:      user.Email,
			FullName:   user.FullName,
			TelegramID: user.TelegramID,
		},
	}, nil
}
