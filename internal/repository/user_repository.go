package repository

import (
	"context"
	"errors"
	"market-insight/internal/model"
	"market-insight/pkg/utils"

	"gorm.io/gorm"
)

type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string, opts ...utils.DBOption) (*model.User, error)
	GetUserByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User, opts ...utils.DBOption) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string, opts ...utils.DBOption) (*model.User, error) {
	return r.first(ctx, opts, "email = ?", email)
}

func (r *userRepository) GetUserByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.User, error) {
	return r.first(ctx, opts, "id = ?", id)
}

func (r *userRepository) first(ctx context.Context, opts []utils.DBOption, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	result := tx.Where(query, args...).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, result.Error
	}

	return &user, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *model.User, opts ...utils.DBOption) error {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	return tx.Create(user).Error
}
