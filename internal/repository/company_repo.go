package repository

import (
	"context"
	"errors"
	"market-insight/internal/model"
	"market-insight/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompanyRepository interface {
	Get(ctx context.Context, param model.GetCompaniesParam, opts ...utils.DBOption) ([]model.Company, error)
	GetByTicker(ctx context.Context, ticker string, opts ...utils.DBOption) (*model.Company, error)
	Ensure(ctx context.Context, company *model.Company, opts ...utils.DBOption) error
	UpdateMetadata(ctx context.Context, company *model.Company, opts ...utils.DBOption) error
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Get(ctx context.Context, param model.GetCompaniesParam, opts ...utils.DBOption) ([]model.Company, error) {
	var companies []model.Company
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if len(param.Tickers) > 0 {
		db = db.Where("ticker IN ?", param.Tickers)
	}
	if param.IsActive != nil {
		db = db.Where("is_active = ?", *param.IsActive)
	}
	if param.Sector != "" {
		db = db.Where("sector = ?", param.Sector)
	}
	if err := db.Order("ticker ASC").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

// GetByTicker returns nil when the ticker is unknown.
func (r *companyRepository) GetByTicker(ctx context.Context, ticker string, opts ...utils.DBOption) (*model.Company, error) {
	var company model.Company
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("ticker = ?", ticker).
		First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// Ensure inserts the company unless its ticker exists and loads the stored row into company.
func (r *companyRepository) Ensure(ctx context.Context, company *model.Company, opts ...utils.DBOption) error {
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}},
		DoNothing: true,
	}).Create(company).Error
	if err != nil {
		return err
	}
	if company.ID != 0 {
		return nil
	}
	return db.Where("ticker = ?", company.Ticker).First(company).Error
}

// UpdateMetadata fills provider-derived fields without touching curated ones.
func (r *companyRepository) UpdateMetadata(ctx context.Context, company *model.Company, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.Company{}).
		Where("id = ?", company.ID).
		Updates(map[string]interface{}{
			"currency": company.Currency,
			"exchange": company.Exchange,
		}).Error
}
