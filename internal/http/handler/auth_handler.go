package handler

import (
	"net/http"

	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login godoc
// @Summary Log in
// @Description Exchanges username and password for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.APIResponse{data=domain.TokenResponse}
// @Failure 400 {object} domain.APIResponse
// @Failure 401 {object} domain.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err, "log in")
		return
	}
	respondData(w, http.StatusOK, token)
}

// Register godoc
// @Summary Register an account
// @Description Creates a sales user and logs it in. Disabled unless auth.allowRegistration is set.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.RegisterRequest true "New account"
// @Success 201 {object} domain.APIResponse{data=domain.TokenResponse}
// @Failure 400 {object} domain.APIResponse
// @Failure 403 {object} domain.APIResponse
// @Failure 409 {object} domain.APIResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err, "register")
		return
	}
	respondData(w, http.StatusCreated, token)
}

// Me godoc
// @Summary Get current authenticated user
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.APIResponse{data=domain.UserDTO}
// @Failure 401 {object} domain.APIResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "get current user")
		return
	}
	respondData(w, http.StatusOK, user)
}
