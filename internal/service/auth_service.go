package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wondrlab/crosssell-api/internal/auth"
	"github.com/wondrlab/crosssell-api/internal/config"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/mapper"
	"github.com/wondrlab/crosssell-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService handles login, self registration and the current user
type AuthService struct {
	users    *UserService
	userRepo *repository.UserRepository
	tokens   *auth.TokenManager
	cfg      *config.AuthConfig
	logger   *zap.Logger
}

func NewAuthService(
	users *UserService,
	userRepo *repository.UserRepository,
	tokens *auth.TokenManager,
	cfg *config.AuthConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		userRepo: userRepo,
		tokens:   tokens,
		cfg:      cfg,
		logger:   logger,
	}
}

// Login verifies credentials and issues a bearer token
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Info("login failed: unknown user", zap.String("username", req.Username))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Info("login failed: wrong password", zap.Uint("userID", user.ID))
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Register creates a sales account and logs it in
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.TokenResponse, error) {
	if !s.cfg.AllowRegistration {
		return nil, ErrRegistrationDisabled
	}

	user, err := s.users.createUser(ctx, req.Username, req.Email, req.Password, domain.RoleSales)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.Uint("userID", user.ID),
		zap.String("username", user.Username),
	)
	return s.issue(user)
}

// Me returns the authenticated user. API key callers get a synthetic system user.
func (s *AuthService) Me(ctx context.Context) (*domain.UserDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}
	if userCtx.System {
		return &domain.UserDTO{
			ID:       userCtx.UserID,
			Username: userCtx.Username,
			Email:    userCtx.Email,
			Role:     userCtx.Role,
		}, nil
	}
	return s.users.GetByID(ctx, userCtx.UserID)
}

func (s *AuthService) issue(user *domain.User) (*domain.TokenResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &domain.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        mapper.ToUserDTO(user),
	}, nil
}
