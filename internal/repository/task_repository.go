package repository

import (
	"context"
	"time"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Opportunity").Preload("AssignedUser")
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Omit("Opportunity", "AssignedUser").Create(task).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	err := r.withRelations(r.db.WithContext(ctx)).First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Omit("Opportunity", "AssignedUser").Save(task).Error
}

func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id).Error
}

// List filters tasks. The overdue filter compares due_date with today's date.
func (r *TaskRepository) List(ctx context.Context, page, pageSize int, filters domain.TaskFilters, today time.Time) ([]domain.Task, int64, error) {
	var tasks []domain.Task
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Task{})

	if filters.OpportunityID != nil {
		query = query.Where("opportunity_id = ?", *filters.OpportunityID)
	}
	if filters.AssignedUserID != nil {
		query = query.Where("assigned_user_id = ?", *filters.AssignedUserID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Overdue != nil {
		if *filters.Overdue {
			query = query.Where("status <> ? AND due_date < ?", domain.TaskStatusCompleted, today)
		} else {
			query = query.Where("status = ? OR due_date >= ?", domain.TaskStatusCompleted, today)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.withRelations(query).
		Offset(offset).Limit(pageSize).
		Order("due_date ASC").Order("id ASC").
		Find(&tasks).Error

	return tasks, total, err
}

// ListAll returns every task with relations
func (r *TaskRepository) ListAll(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.withRelations(r.db.WithContext(ctx)).Order("due_date ASC").Order("id ASC").Find(&tasks).Error
	return tasks, err
}

// ListOverdue returns open tasks due before today, with their opportunity and client
func (r *TaskRepository) ListOverdue(ctx context.Context, today time.Time) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Preload("Opportunity.Client").
		Preload("AssignedUser").
		Where("status <> ? AND due_date < ?", domain.TaskStatusCompleted, today).
		Order("due_date ASC").Order("id ASC").
		Find(&tasks).Error
	return tasks, err
}

// RecordOverdueNotice stores the overdue notice bookkeeping for a task
func (r *TaskRepository) RecordOverdueNotice(ctx context.Context, id uint, count int, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"overdue_notice_count":   count,
			"last_overdue_notice_at": at,
		}).Error
}

// CountByOpportunity counts the tasks of an opportunity
func (r *TaskRepository) CountByOpportunity(ctx context.Context, opportunityID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Task{}).Where("opportunity_id = ?", opportunityID).Count(&count).Error
	return count, err
}

// DeleteByOpportunityIDs removes every task of the given opportunities
func (r *TaskRepository) DeleteByOpportunityIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("opportunity_id IN ?", ids).Delete(&domain.Task{})
	return result.RowsAffected, result.Error
}
