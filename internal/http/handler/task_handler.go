package handler

import (
	"net/http"
	"strconv"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

type TaskHandler struct {
	taskService *service.TaskService
	logger      *zap.Logger
}

func NewTaskHandler(taskService *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// List godoc
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param opportunityId query int false "Opportunity ID"
// @Param assignedUserId query int false "Assigned user ID"
// @Param status query string false "Status" Enums(pending, in_progress, completed, on_hold, cancelled)
// @Param overdue query bool false "Only open tasks due before today"
// @Success 200 {object} domain.APIResponse{data=[]domain.TaskDTO,meta=domain.PageMeta}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks [get]
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	opportunityID, ok := optionalUint(w, r, "opportunityId")
	if !ok {
		return
	}
	assignedUserID, ok := optionalUint(w, r, "assignedUserId")
	if !ok {
		return
	}
	filters := domain.TaskFilters{
		OpportunityID:  opportunityID,
		AssignedUserID: assignedUserID,
		Status:         domain.TaskStatus(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("overdue"); raw != "" {
		overdue, err := strconv.ParseBool(raw)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid overdue")
			return
		}
		filters.Overdue = &overdue
	}

	page, pageSize := pagination(r)
	result, err := h.taskService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		respondError(w, h.logger, err, "list tasks")
		return
	}
	respondPage(w, result)
}

// Create godoc
// @Summary Create task
// @Description Defaults to the opportunity's assignee and a due date seven days out. The assignee is notified.
// @Tags Tasks
// @Accept json
// @Produce json
// @Param request body domain.CreateTaskRequest true "Task"
// @Success 201 {object} domain.APIResponse{data=domain.TaskDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks [post]
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := h.taskService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err, "create task")
		return
	}
	w.Header().Set("Location", "/api/v1/tasks/"+strconv.FormatUint(uint64(task.ID), 10))
	respondData(w, http.StatusCreated, task)
}

// GetByID godoc
// @Summary Get task
// @Tags Tasks
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} domain.APIResponse{data=domain.TaskDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "task")
	if !ok {
		return
	}
	task, err := h.taskService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "get task")
		return
	}
	respondData(w, http.StatusOK, task)
}

// Update godoc
// @Summary Update task
// @Description A new assignee is notified
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param request body domain.UpdateTaskRequest true "Task"
// @Success 200 {object} domain.APIResponse{data=domain.TaskDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "task")
	if !ok {
		return
	}
	var req domain.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := h.taskService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err, "update task")
		return
	}
	respondData(w, http.StatusOK, task)
}

// UpdateStatus godoc
// @Summary Change task status
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param request body domain.UpdateStatusRequest true "Status"
// @Success 200 {object} domain.APIResponse{data=domain.TaskDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "task")
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	task, err := h.taskService.UpdateStatus(r.Context(), id, status)
	if err != nil {
		respondError(w, h.logger, err, "update task status")
		return
	}
	respondData(w, http.StatusOK, task)
}

// Delete godoc
// @Summary Delete task
// @Tags Tasks
// @Param id path int true "Task ID"
// @Success 204
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "task")
	if !ok {
		return
	}
	if err := h.taskService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
