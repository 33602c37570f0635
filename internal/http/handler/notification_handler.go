package handler

import (
	"net/http"
	"time"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

// NotificationHandler handles HTTP requests for notifications
type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(notificationService *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// List godoc
// @Summary List notifications
// @Description Get paginated list of notifications for the current user, newest first
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param unreadOnly query bool false "Filter to show only unread notifications" default(false)
// @Param type query string false "Filter by notification type" Enums(new_opportunity, opportunity_status_change, opportunity_won, task_assigned, task_overdue, task_overdue_escalation, new_client)
// @Success 200 {object} domain.APIResponse{data=[]domain.NotificationDTO,meta=domain.PageMeta}
// @Failure 400 {object} domain.APIResponse
// @Failure 401 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	result, err := h.notificationService.ListForCurrentUser(
		r.Context(),
		page,
		pageSize,
		queryBool(r, "unreadOnly"),
		r.URL.Query().Get("type"),
	)
	if err != nil {
		respondError(w, h.logger, err, "list notifications")
		return
	}
	respondPage(w, result)
}

// Count godoc
// @Summary Notification counts
// @Tags Notifications
// @Produce json
// @Success 200 {object} domain.APIResponse{data=domain.NotificationCountDTO}
// @Failure 401 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications/count [get]
func (h *NotificationHandler) Count(w http.ResponseWriter, r *http.Request) {
	counts, err := h.notificationService.CountForCurrentUser(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "count notifications")
		return
	}
	respondData(w, http.StatusOK, counts)
}

// MarkAsRead godoc
// @Summary Mark notification as read
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} domain.APIResponse{data=domain.NotificationDTO}
// @Failure 403 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "notification")
	if !ok {
		return
	}
	notification, err := h.notificationService.MarkAsRead(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "mark notification as read")
		return
	}
	respondData(w, http.StatusOK, notification)
}

// MarkAllAsRead godoc
// @Summary Mark all notifications as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} domain.APIResponse{data=map[string]int64}
// @Failure 401 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationService.MarkAllAsRead(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "mark all notifications as read")
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"updated": count})
}

// Delete godoc
// @Summary Delete notification
// @Tags Notifications
// @Param id path int true "Notification ID"
// @Success 204
// @Failure 403 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "notification")
	if !ok {
		return
	}
	if err := h.notificationService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "delete notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMany godoc
// @Summary Delete several notifications
// @Description Ids that belong to other users are ignored
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body domain.BulkDeleteNotificationsRequest true "Notification IDs"
// @Success 200 {object} domain.APIResponse{data=map[string]int64}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications [delete]
func (h *NotificationHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkDeleteNotificationsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	count, err := h.notificationService.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		respondError(w, h.logger, err, "delete notifications")
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"deleted": count})
}

// Cleanup godoc
// @Summary Delete old notifications
// @Description Removes every user's notifications older than the given number of days
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body domain.CleanupNotificationsRequest true "Age"
// @Success 200 {object} domain.APIResponse{data=map[string]int64}
// @Failure 400 {object} domain.APIResponse
// @Failure 403 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications/cleanup [post]
func (h *NotificationHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req domain.CleanupNotificationsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	olderThan := time.Duration(req.OlderThanDays) * 24 * time.Hour
	count, err := h.notificationService.Cleanup(r.Context(), olderThan)
	if err != nil {
		respondError(w, h.logger, err, "clean up notifications")
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"deleted": count})
}
