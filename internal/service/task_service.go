package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wondrlab/crosssell-api/internal/csvtransform"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/mapper"
	"github.com/wondrlab/crosssell-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskService manages follow-up tasks on opportunities
type TaskService struct {
	taskRepo      *repository.TaskRepository
	oppRepo       *repository.OpportunityRepository
	userRepo      *repository.UserRepository
	notifications *NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

func NewTaskService(
	taskRepo *repository.TaskRepository,
	oppRepo *repository.OpportunityRepository,
	userRepo *repository.UserRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:      taskRepo,
		oppRepo:       oppRepo,
		userRepo:      userRepo,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// Create adds a task. Without an assignee the opportunity's assignee gets it.
func (s *TaskService) Create(ctx context.Context, req *domain.CreateTaskRequest) (*domain.TaskDTO, error) {
	task := &domain.Task{Status: domain.TaskStatusPending}
	if err := s.apply(ctx, task, req); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("task created",
		zap.Uint("taskID", task.ID),
		zap.Uint("opportunityID", task.OpportunityID),
		zap.Uint("assignedUserID", task.AssignedUserID),
	)
	s.notifyAssigned(ctx, task)

	return s.GetByID(ctx, task.ID)
}

func (s *TaskService) GetByID(ctx context.Context, id uint) (*domain.TaskDTO, error) {
	task, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToTaskDTO(task, s.now())
	return &dto, nil
}

// Update replaces the task. Reassigning notifies the new assignee.
func (s *TaskService) Update(ctx context.Context, id uint, req *domain.UpdateTaskRequest) (*domain.TaskDTO, error) {
	task, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	previousAssignee := task.AssignedUserID
	if err := s.apply(ctx, task, req); err != nil {
		return nil, err
	}
	task.Opportunity, task.AssignedUser = nil, nil

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if task.AssignedUserID != previousAssignee {
		s.notifyAssigned(ctx, task)
	}

	return s.GetByID(ctx, id)
}

func (s *TaskService) UpdateStatus(ctx context.Context, id uint, status string) (*domain.TaskDTO, error) {
	next := domain.TaskStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.IsValid() {
		return nil, invalidInput("status must be one of: pending, in_progress, completed, on_hold, cancelled")
	}

	task, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Status = next
	task.Opportunity, task.AssignedUser = nil, nil
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *TaskService) Delete(ctx context.Context, id uint) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) List(ctx context.Context, page, pageSize int, filters domain.TaskFilters) (*domain.PaginatedResponse, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, invalidInput("unknown task status '%s'", filters.Status)
	}
	page, pageSize = clampPagination(page, pageSize)

	now := s.now()
	tasks, total, err := s.taskRepo.List(ctx, page, pageSize, filters, domain.DateOnly(now))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	dtos := make([]domain.TaskDTO, len(tasks))
	for i := range tasks {
		dtos[i] = mapper.ToTaskDTO(&tasks[i], now)
	}
	return newPage(dtos, total, page, pageSize), nil
}

// ListAll returns every task with display names
func (s *TaskService) ListAll(ctx context.Context) ([]domain.TaskDTO, error) {
	tasks, err := s.taskRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	now := s.now()
	dtos := make([]domain.TaskDTO, len(tasks))
	for i := range tasks {
		dtos[i] = mapper.ToTaskDTO(&tasks[i], now)
	}
	return dtos, nil
}

func (s *TaskService) get(ctx context.Context, id uint) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (s *TaskService) apply(ctx context.Context, task *domain.Task, req *domain.CreateTaskRequest) error {
	if req.Status != "" {
		status := domain.TaskStatus(strings.ToLower(string(req.Status)))
		if !status.IsValid() {
			return invalidInput("unknown task status '%s'", req.Status)
		}
		task.Status = status
	}

	opp, err := s.oppRepo.GetByID(ctx, req.OpportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidInput("opportunity %d does not exist", req.OpportunityID)
		}
		return fmt.Errorf("failed to get opportunity: %w", err)
	}

	current := task.AssignedUserID
	if current == 0 {
		current = opp.AssignedUserID
	}
	assignee, err := resolveAssignee(ctx, s.userRepo, req.AssignedUserID, current)
	if err != nil {
		return err
	}

	dueDate := task.DueDate
	if req.DueDate != "" || dueDate.IsZero() {
		if dueDate, err = parseDueDate(req.DueDate, s.now(), csvtransform.TaskDueDays); err != nil {
			return err
		}
	}

	task.Name = strings.TrimSpace(req.Name)
	task.OpportunityID = opp.ID
	task.AssignedUserID = assignee
	task.DueDate = dueDate
	task.Description = req.Description
	return nil
}

func (s *TaskService) notifyAssigned(ctx context.Context, task *domain.Task) {
	_, err := s.notifications.Notify(ctx, task.AssignedUserID,
		domain.NotificationTypeTaskAssigned,
		"Task assigned",
		fmt.Sprintf("Task '%s' was assigned to you, due %s", task.Name, task.DueDate.Format(dateLayout)),
		domain.RelatedTask, task.ID,
	)
	if err != nil {
		s.logger.Warn("failed to send task assigned notification",
			zap.Uint("taskID", task.ID),
			zap.Error(err),
		)
	}
}
