package repository

import (
	"context"
	"strings"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"gorm.io/gorm"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uint) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).Preload("AccountOwner").First(&client, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) GetByName(ctx context.Context, name string) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).First(&client, "LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// Update saves every column. The AccountOwner association is never written.
func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Omit("AccountOwner").Save(client).Error
}

// UpdateServicesUsed writes only the services_used column
func (r *ClientRepository) UpdateServicesUsed(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Model(client).Select("services_used", "updated_at").Updates(client).Error
}

func (r *ClientRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Client{}, "id = ?", id).Error
}

func (r *ClientRepository) List(ctx context.Context, page, pageSize int, filters domain.ClientFilters) ([]domain.Client, int64, error) {
	var clients []domain.Client
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Client{})

	if filters.Search != "" {
		searchPattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(contact_name) LIKE ? OR LOWER(contact_email) LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.AccountOwnerID != nil {
		query = query.Where("account_owner_id = ?", *filters.AccountOwnerID)
	}
	if filters.Industry != "" {
		query = query.Where("LOWER(industry) = ?", strings.ToLower(filters.Industry))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("AccountOwner").
		Offset(offset).Limit(pageSize).
		Order("created_at DESC").Order("id DESC").
		Find(&clients).Error

	return clients, total, err
}

// ListAll returns every client ordered by name
func (r *ClientRepository) ListAll(ctx context.Context) ([]domain.Client, error) {
	var clients []domain.Client
	err := r.db.WithContext(ctx).Preload("AccountOwner").Order("name ASC").Order("id ASC").Find(&clients).Error
	return clients, err
}

// ListUsingService returns clients whose services_used contains serviceID.
// services_used is a serialized column so the filter runs in memory.
func (r *ClientRepository) ListUsingService(ctx context.Context, serviceID uint) ([]domain.Client, error) {
	var all []domain.Client
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&all).Error; err != nil {
		return nil, err
	}
	var using []domain.Client
	for _, c := range all {
		if c.UsesService(serviceID) {
			using = append(using, c)
		}
	}
	return using, nil
}

// Lookup returns {id, name} pairs for name resolution
func (r *ClientRepository) Lookup(ctx context.Context) ([]domain.LookupEntry, error) {
	var entries []domain.LookupEntry
	err := r.db.WithContext(ctx).Model(&domain.Client{}).
		Select("id, name").
		Order("id ASC").
		Scan(&entries).Error
	return entries, err
}
