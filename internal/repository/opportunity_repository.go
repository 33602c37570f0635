package repository

import (
	"context"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"gorm.io/gorm"
)

type OpportunityRepository struct {
	db *gorm.DB
}

func NewOpportunityRepository(db *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

func (r *OpportunityRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Client").Preload("Service").Preload("AssignedUser")
}

func (r *OpportunityRepository) Create(ctx context.Context, opp *domain.Opportunity) error {
	return r.db.WithContext(ctx).Omit("Client", "Service", "AssignedUser").Create(opp).Error
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id uint) (*domain.Opportunity, error) {
	var opp domain.Opportunity
	err := r.withRelations(r.db.WithContext(ctx)).First(&opp, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

func (r *OpportunityRepository) Update(ctx context.Context, opp *domain.Opportunity) error {
	return r.db.WithContext(ctx).Omit("Client", "Service", "AssignedUser").Save(opp).Error
}

// UpdateStatus sets the status column only
func (r *OpportunityRepository) UpdateStatus(ctx context.Context, id uint, status domain.OpportunityStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Opportunity{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *OpportunityRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Opportunity{}, "id = ?", id).Error
}

func (r *OpportunityRepository) List(ctx context.Context, page, pageSize int, filters domain.OpportunityFilters) ([]domain.Opportunity, int64, error) {
	var opps []domain.Opportunity
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Opportunity{})

	if filters.ClientID != nil {
		query = query.Where("client_id = ?", *filters.ClientID)
	}
	if filters.ServiceID != nil {
		query = query.Where("service_id = ?", *filters.ServiceID)
	}
	if filters.AssignedUserID != nil {
		query = query.Where("assigned_user_id = ?", *filters.AssignedUserID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Priority != "" {
		query = query.Where("priority = ?", filters.Priority)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.withRelations(query).
		Offset(offset).Limit(pageSize).
		Order("created_at DESC").Order("id DESC").
		Find(&opps).Error

	return opps, total, err
}

// ListAll returns every opportunity with relations, newest first
func (r *OpportunityRepository) ListAll(ctx context.Context) ([]domain.Opportunity, error) {
	var opps []domain.Opportunity
	err := r.withRelations(r.db.WithContext(ctx)).
		Order("created_at DESC").Order("id DESC").
		Find(&opps).Error
	return opps, err
}

// CountByClient counts opportunities belonging to the client
func (r *OpportunityRepository) CountByClient(ctx context.Context, clientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).Where("client_id = ?", clientID).Count(&count).Error
	return count, err
}

// CountByService counts opportunities for the service
func (r *OpportunityRepository) CountByService(ctx context.Context, serviceID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).Where("service_id = ?", serviceID).Count(&count).Error
	return count, err
}

// IDsByClient returns the ids of the client's opportunities
func (r *OpportunityRepository) IDsByClient(ctx context.Context, clientID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).Where("client_id = ?", clientID).Pluck("id", &ids).Error
	return ids, err
}

// IDsByService returns the ids of the service's opportunities
func (r *OpportunityRepository) IDsByService(ctx context.Context, serviceID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).Where("service_id = ?", serviceID).Pluck("id", &ids).Error
	return ids, err
}

// DeleteByIDs removes the given opportunities
func (r *OpportunityRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Opportunity{})
	return result.RowsAffected, result.Error
}

// Lookup returns {id, name} pairs for name resolution
func (r *OpportunityRepository) Lookup(ctx context.Context) ([]domain.LookupEntry, error) {
	var entries []domain.LookupEntry
	err := r.db.WithContext(ctx).Model(&domain.Opportunity{}).
		Select("id, name").
		Order("id ASC").
		Scan(&entries).Error
	return entries, err
}
