package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wondrlab/crosssell-api/internal/auth"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/mapper"
	"github.com/wondrlab/crosssell-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationService handles business logic for notifications
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	logger           *zap.Logger
	now              func() time.Time
}

// NewNotificationService creates a new NotificationService instance
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
		now:              time.Now,
	}
}

// Notify creates a notification for a specific user. relatedID 0 means no related record.
func (s *NotificationService) Notify(
	ctx context.Context,
	userID uint,
	notificationType domain.NotificationType,
	title string,
	message string,
	relatedTo string,
	relatedID uint,
) (*domain.NotificationDTO, error) {
	if userID == 0 {
		return nil, invalidInput("notification recipient is required")
	}

	notification := &domain.Notification{
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		RelatedTo: relatedTo,
	}
	if relatedID != 0 {
		id := relatedID
		notification.RelatedID = &id
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.Debug("notification created",
		zap.Uint("notificationID", notification.ID),
		zap.Uint("userID", userID),
		zap.String("type", string(notificationType)),
	)

	dto := mapper.ToNotificationDTO(notification)
	return &dto, nil
}

// NotifyAll sends the same notification to several users. Duplicate and zero
// ids are skipped and failures are logged without aborting the batch.
func (s *NotificationService) NotifyAll(
	ctx context.Context,
	userIDs []uint,
	notificationType domain.NotificationType,
	title string,
	message string,
	relatedTo string,
	relatedID uint,
) int {
	seen := make(map[uint]bool, len(userIDs))
	sent := 0
	for _, userID := range userIDs {
		if userID == 0 || seen[userID] {
			continue
		}
		seen[userID] = true
		if _, err := s.Notify(ctx, userID, notificationType, title, message, relatedTo, relatedID); err != nil {
			s.logger.Warn("failed to create notification for user",
				zap.Uint("userID", userID),
				zap.String("type", string(notificationType)),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	return sent
}

// ListForCurrentUser returns the caller's notifications, newest first
func (s *NotificationService) ListForCurrentUser(
	ctx context.Context,
	page int,
	pageSize int,
	unreadOnly bool,
	notificationType string,
) (*domain.PaginatedResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}
	if notificationType != "" && !domain.NotificationType(notificationType).IsValid() {
		return nil, invalidInput("unknown notification type '%s'", notificationType)
	}

	page, pageSize = clampPagination(page, pageSize)
	notifications, total, err := s.notificationRepo.ListByUser(ctx, userCtx.UserID, page, pageSize, unreadOnly, notificationType)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	dtos := make([]domain.NotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = mapper.ToNotificationDTO(&notifications[i])
	}
	return newPage(dtos, total, page, pageSize), nil
}

// CountForCurrentUser returns unread and total counts for the caller
func (s *NotificationService) CountForCurrentUser(ctx context.Context) (*domain.NotificationCountDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	unread, err := s.notificationRepo.CountUnread(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	total, err := s.notificationRepo.CountByUser(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	return &domain.NotificationCountDTO{Unread: unread, Total: total}, nil
}

// MarkAsRead marks one of the caller's notifications as read
func (s *NotificationService) MarkAsRead(ctx context.Context, id uint) (*domain.NotificationDTO, error) {
	notification, err := s.getOwned(ctx, id)
	if err != nil {
		return nil, err
	}

	if !notification.IsRead {
		if err := s.notificationRepo.MarkAsRead(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to mark notification as read: %w", err)
		}
		notification.IsRead = true
	}

	dto := mapper.ToNotificationDTO(notification)
	return &dto, nil
}

// MarkAllAsRead marks all of the caller's notifications as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context) (int64, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return 0, ErrUserContextRequired
	}

	count, err := s.notificationRepo.MarkAllAsRead(ctx, userCtx.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return count, nil
}

// Delete removes one of the caller's notifications
func (s *NotificationService) Delete(ctx context.Context, id uint) error {
	if _, err := s.getOwned(ctx, id); err != nil {
		return err
	}
	if err := s.notificationRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// DeleteMany removes the given notifications of the caller. Ids owned by other
// users are ignored.
func (s *NotificationService) DeleteMany(ctx context.Context, ids []uint) (int64, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return 0, ErrUserContextRequired
	}
	if len(ids) == 0 {
		return 0, invalidInput("at least one notification id is required")
	}

	count, err := s.notificationRepo.DeleteForUser(ctx, userCtx.UserID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return count, nil
}

// Cleanup deletes every notification older than the given age
func (s *NotificationService) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, invalidInput("retention must be positive")
	}

	cutoff := s.now().UTC().Add(-olderThan)
	count, err := s.notificationRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up notifications: %w", err)
	}

	s.logger.Info("old notifications deleted",
		zap.Int64("count", count),
		zap.Time("cutoff", cutoff),
	)
	return count, nil
}

func (s *NotificationService) getOwned(ctx context.Context, id uint) (*domain.Notification, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	notification, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	if notification.UserID != userCtx.UserID {
		return nil, ErrNotificationNotOwned
	}
	return notification, nil
}
