package handler

import (
	"net/http"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

// UserHandler serves user administration. Routes are admin only.
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Matches username or email"
// @Success 200 {object} domain.APIResponse{data=[]domain.UserDTO,meta=domain.PageMeta}
// @Failure 403 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	result, err := h.userService.List(r.Context(), page, pageSize, r.URL.Query().Get("search"))
	if err != nil {
		respondError(w, h.logger, err, "list users")
		return
	}
	respondPage(w, result)
}

// Create godoc
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.CreateUserRequest true "User"
// @Success 201 {object} domain.APIResponse{data=domain.UserDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.userService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err, "create user")
		return
	}
	respondData(w, http.StatusCreated, user)
}

// GetByID godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} domain.APIResponse{data=domain.UserDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "user")
	if !ok {
		return
	}
	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "get user")
		return
	}
	respondData(w, http.StatusOK, user)
}

// Update godoc
// @Summary Update user
// @Description Changes email and role. A non-empty password replaces the current one.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body domain.UpdateUserRequest true "User"
// @Success 200 {object} domain.APIResponse{data=domain.UserDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "user")
	if !ok {
		return
	}
	var req domain.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.userService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err, "update user")
		return
	}
	respondData(w, http.StatusOK, user)
}

// Delete godoc
// @Summary Delete user
// @Description Refused with 409 while the user owns clients or has assigned work
// @Tags Users
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "user")
	if !ok {
		return
	}
	if err := h.userService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
