package auth

import (
	"context"

	"github.com/wondrlab/crosssell-api/internal/domain"
)

// SystemUserID identifies requests authenticated with the API key
const SystemUserID uint = 0

// UserContext holds authenticated user information
type UserContext struct {
	UserID   uint
	Username string
	Email    string
	Role     domain.UserRole
	// System is set for API key authentication
	System bool
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRole) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user may use admin routes
func (u *UserContext) IsAdmin() bool {
	return u.System || u.Role == domain.RoleAdmin
}

func systemUser() *UserContext {
	return &UserContext{
		UserID:   SystemUserID,
		Username: "system",
		Email:    "system@crosssell.local",
		Role:     domain.RoleAdmin,
		System:   true,
	}
}
