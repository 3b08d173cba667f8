package service

import (
	"context"
	"market-insight/internal/dto"
	"market-insight/internal/model"
	"market-insight/internal/repository/mocks"
	"market-insight/pkg/common"
	"market-insight/pkg/logger"
	"market-insight/pkg/security"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	users := new(mocks.UserRepository)
	watchlists := new(mocks.WatchlistRepository)
	tokens := security.NewTokenManager("secret", "test", time.Hour)
	svc := NewAuthService(logger.NewNop(), users, watchlists, mocks.UnitOfWork{}, tokens)

	var stored *model.User
	users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(nil, nil).Once()
	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "jane@example.com" && u.PasswordHash != "" && u.PasswordHash != "s3cretpass"
	})).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*model.User)
		stored.ID = 12
	}).Return(nil)
	watchlists.On("Create", mock.Anything, mock.MatchedBy(func(w *model.Watchlist) bool {
		return w.UserID == 12 && w.Name == defaultWatchlistName
	})).Return(nil)

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{Email: " Jane@Example.com ", Password: "s3cretpass", FullName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, uint(12), resp.User.ID)
	assert.Equal(t, "Bearer", resp.TokenType)

	claims, err := tokens.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(12), claims.UserID)
	watchlists.AssertExpectations(t)

	users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(stored, nil)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "jane@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "JANE@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	users := new(mocks.UserRepository)
	svc := NewAuthService(logger.NewNop(), users, new(mocks.WatchlistRepository), mocks.UnitOfWork{}, security.NewTokenManager("secret", "test", time.Hour))
	users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(&model.User{ID: 1}, nil)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{Email: "jane@example.com", Password: "s3cretpass", FullName: "Jane"})
	assert.ErrorIs(t, err, common.ErrConflict)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestAuthService_LoginUnknownUser(t *testing.T) {
	users := new(mocks.UserRepository)
	svc := NewAuthService(logger.NewNop(), users, new(mocks.WatchlistRepository), mocks.UnitOfWork{}, security.NewTokenManager("secret", "test", time.Hour))
	users.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ghost@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}
