package repository

import (
	"context"
	"strings"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"gorm.io/gorm"
)

// ServiceRepository stores the service catalog
type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Create(ctx context.Context, svc *domain.Service) error {
	return r.db.WithContext(ctx).Create(svc).Error
}

func (r *ServiceRepository) GetByID(ctx context.Context, id uint) (*domain.Service, error) {
	var svc domain.Service
	if err := r.db.WithContext(ctx).First(&svc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

// GetByNameAndUnit finds a service by its (name, business_unit) key
func (r *ServiceRepository) GetByNameAndUnit(ctx context.Context, name, businessUnit string) (*domain.Service, error) {
	var svc domain.Service
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ? AND LOWER(business_unit) = ?",
			strings.ToLower(strings.TrimSpace(name)), strings.ToLower(strings.TrimSpace(businessUnit))).
		First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *ServiceRepository) Update(ctx context.Context, svc *domain.Service) error {
	return r.db.WithContext(ctx).Save(svc).Error
}

func (r *ServiceRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Service{}, "id = ?", id).Error
}

func (r *ServiceRepository) List(ctx context.Context, page, pageSize int, filters domain.ServiceFilters) ([]domain.Service, int64, error) {
	var services []domain.Service
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Service{})

	if filters.Search != "" {
		searchPattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchPattern, searchPattern)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.BusinessUnit != "" {
		query = query.Where("LOWER(business_unit) = ?", strings.ToLower(filters.BusinessUnit))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Order("id DESC").Find(&services).Error
	return services, total, err
}

// ListAll returns the catalog ordered by business unit and name. An empty
// status returns every service.
func (r *ServiceRepository) ListAll(ctx context.Context, status domain.ServiceStatus) ([]domain.Service, error) {
	var services []domain.Service
	query := r.db.WithContext(ctx).Model(&domain.Service{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("business_unit ASC").Order("name ASC").Order("id ASC").Find(&services).Error
	return services, err
}

// CountByBusinessUnit counts services referencing the business unit by name
func (r *ServiceRepository) CountByBusinessUnit(ctx context.Context, businessUnit string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Service{}).
		Where("LOWER(business_unit) = ?", strings.ToLower(businessUnit)).
		Count(&count).Error
	return count, err
}

// ClearBusinessUnit detaches every service from the named business unit
func (r *ServiceRepository) ClearBusinessUnit(ctx context.Context, businessUnit string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Service{}).
		Where("LOWER(business_unit) = ?", strings.ToLower(businessUnit)).
		Update("business_unit", "")
	return result.RowsAffected, result.Error
}

// RenameBusinessUnit moves services from one business unit name to another
func (r *ServiceRepository) RenameBusinessUnit(ctx context.Context, from, to string) error {
	return r.db.WithContext(ctx).Model(&domain.Service{}).
		Where("LOWER(business_unit) = ?", strings.ToLower(from)).
		Update("business_unit", to).Error
}

// Lookup returns {id, name} pairs for name resolution
func (r *ServiceRepository) Lookup(ctx context.Context) ([]domain.LookupEntry, error) {
	var entries []domain.LookupEntry
	err := r.db.WithContext(ctx).Model(&domain.Service{}).
		Select("id, name").
		Order("id ASC").
		Scan(&entries).Error
	return entries, err
}
