package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wondrlab/crosssell-api/internal/auth"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/mapper"
	"github.com/wondrlab/crosssell-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService manages user accounts
type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *UserService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	role := req.Role
	if role == "" {
		role = domain.RoleSales
	}
	if !role.IsValid() {
		return nil, invalidInput("unknown role '%s'", role)
	}

	user, err := s.createUser(ctx, req.Username, req.Email, req.Password, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.Uint("userID", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// createUser checks uniqueness, hashes the password and stores the user
func (s *UserService) createUser(ctx context.Context, username, email, password string, role domain.UserRole) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := s.ensureUnique(ctx, 0, username, email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserService) ensureUnique(ctx context.Context, selfID uint, username, email string) error {
	if username != "" {
		existing, err := s.userRepo.GetByUsername(ctx, username)
		if err == nil && existing.ID != selfID {
			return fmt.Errorf("%w: username '%s' is already taken", ErrConflict, username)
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check username: %w", err)
		}
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing.ID != selfID {
		return fmt.Errorf("%w: email '%s' is already registered", ErrConflict, email)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*domain.UserDTO, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) get(ctx context.Context, id uint) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	if !req.Role.IsValid() {
		return nil, invalidInput("unknown role '%s'", req.Role)
	}

	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(req.Email)
	if err := s.ensureUnique(ctx, user.ID, "", email); err != nil {
		return nil, err
	}

	user.Email = email
	user.Role = req.Role
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Delete removes a user that no longer owns clients or has assigned work
func (s *UserService) Delete(ctx context.Context, id uint) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	refs, err := s.userRepo.CountReferences(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count user references: %w", err)
	}
	if refs > 0 {
		return ErrUserInUse
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted", zap.Uint("userID", id))
	return nil
}

func (s *UserService) List(ctx context.Context, page, pageSize int, search string) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPagination(page, pageSize)

	users, total, err := s.userRepo.List(ctx, page, pageSize, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return newPage(dtos, total, page, pageSize), nil
}
