package repository

import (
	"context"
	"strings"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"gorm.io/gorm"
)

// BusinessUnitRepository stores business units
type BusinessUnitRepository struct {
	db *gorm.DB
}

func NewBusinessUnitRepository(db *gorm.DB) *BusinessUnitRepository {
	return &BusinessUnitRepository{db: db}
}

func (r *BusinessUnitRepository) Create(ctx context.Context, unit *domain.BusinessUnit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *BusinessUnitRepository) GetByID(ctx context.Context, id uint) (*domain.BusinessUnit, error) {
	var unit domain.BusinessUnit
	if err := r.db.WithContext(ctx).First(&unit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *BusinessUnitRepository) GetByName(ctx context.Context, name string) (*domain.BusinessUnit, error) {
	var unit domain.BusinessUnit
	if err := r.db.WithContext(ctx).First(&unit, "LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *BusinessUnitRepository) Update(ctx context.Context, unit *domain.BusinessUnit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

func (r *BusinessUnitRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.BusinessUnit{}, "id = ?", id).Error
}

// List returns all business units, optionally restricted to one status
func (r *BusinessUnitRepository) List(ctx context.Context, status domain.RecordStatus) ([]domain.BusinessUnit, error) {
	var units []domain.BusinessUnit
	query := r.db.WithContext(ctx).Model(&domain.BusinessUnit{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("name ASC").Find(&units).Error
	return units, err
}

// IndustryRepository stores the industry reference list
type IndustryRepository struct {
	db *gorm.DB
}

func NewIndustryRepository(db *gorm.DB) *IndustryRepository {
	return &IndustryRepository{db: db}
}

func (r *IndustryRepository) Create(ctx context.Context, industry *domain.Industry) error {
	return r.db.WithContext(ctx).Create(industry).Error
}

func (r *IndustryRepository) GetByID(ctx context.Context, id uint) (*domain.Industry, error) {
	var industry domain.Industry
	if err := r.db.WithContext(ctx).First(&industry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &industry, nil
}

func (r *IndustryRepository) GetByName(ctx context.Context, name string) (*domain.Industry, error) {
	var industry domain.Industry
	err := r.db.WithContext(ctx).First(&industry, "LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).Error
	if err != nil {
		return nil, err
	}
	return &industry, nil
}

func (r *IndustryRepository) Update(ctx context.Context, industry *domain.Industry) error {
	return r.db.WithContext(ctx).Save(industry).Error
}

func (r *IndustryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Industry{}, "id = ?", id).Error
}

func (r *IndustryRepository) List(ctx context.Context, status domain.RecordStatus) ([]domain.Industry, error) {
	var industries []domain.Industry
	query := r.db.WithContext(ctx).Model(&domain.Industry{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("name ASC").Find(&industries).Error
	return industries, err
}
