package repository

import (
	"context"
	"strings"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername matches the username case-insensitively
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id).Error
}

func (r *UserRepository) List(ctx context.Context, page, pageSize int, search string) ([]domain.User, int64, error) {
	var users []domain.User
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.User{})
	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("username ASC").Find(&users).Error
	return users, total, err
}

// ListByRole returns every user holding the role, ordered by id
func (r *UserRepository) ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("id ASC").Find(&users).Error
	return users, err
}

// Lookup returns {id, username} pairs for name resolution
func (r *UserRepository) Lookup(ctx context.Context) ([]domain.LookupEntry, error) {
	var entries []domain.LookupEntry
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Select("id, username AS name").
		Order("id ASC").
		Scan(&entries).Error
	return entries, err
}

// CountReferences counts the clients, opportunities and tasks that point at the user
func (r *UserRepository) CountReferences(ctx context.Context, id uint) (int64, error) {
	var clients, opportunities, tasks int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&domain.Client{}).Where("account_owner_id = ?", id).Count(&clients).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&domain.Opportunity{}).Where("assigned_user_id = ?", id).Count(&opportunities).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&domain.Task{}).Where("assigned_user_id = ?", id).Count(&tasks).Error; err != nil {
		return 0, err
	}
	return clients + opportunities + tasks, nil
}
