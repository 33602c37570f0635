package domain

import (
	"github.com/shopspring/decimal"
)

// DTOs for API responses. JSON field names follow the column names so the
// same keys appear in the API and in CSV headers.

type UserDTO struct {
	ID        uint     `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	CreatedAt string   `json:"created_at"` // ISO 8601
	UpdatedAt string   `json:"updated_at"` // ISO 8601
}

type BusinessUnitDTO struct {
	ID           uint         `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Status       RecordStatus `json:"status"`
	ServiceCount int64        `json:"service_count"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}

type IndustryDTO struct {
	ID          uint         `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Status      RecordStatus `json:"status"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
}

type ClientDTO struct {
	ID               uint         `json:"id"`
	Name             string       `json:"name"`
	Industry         string       `json:"industry"`
	ContactName      string       `json:"contact_name"`
	ContactEmail     string       `json:"contact_email"`
	ContactPhone     string       `json:"contact_phone"`
	Address          string       `json:"address"`
	AccountOwnerID   *uint        `json:"account_owner_id"`
	AccountOwnerName string       `json:"account_owner_name,omitempty"`
	ServicesUsed     []uint       `json:"services_used"`
	CRMLink          string       `json:"crm_link"`
	Notes            string       `json:"notes"`
	Status           ClientStatus `json:"status"`
	CreatedAt        string       `json:"created_at"`
	UpdatedAt        string       `json:"updated_at"`
}

type ServiceDTO struct {
	ID                   uint          `json:"id"`
	Name                 string        `json:"name"`
	Description          string        `json:"description"`
	BusinessUnit         string        `json:"business_unit"`
	PricingModel         string        `json:"pricing_model"`
	PricingDetails       string        `json:"pricing_details"`
	ApplicableIndustries []string      `json:"applicable_industries"`
	ClientRole           string        `json:"client_role"`
	Status               ServiceStatus `json:"status"`
	CreatedAt            string        `json:"created_at"`
	UpdatedAt            string        `json:"updated_at"`
}

type OpportunityDTO struct {
	ID               uint                `json:"id"`
	Name             string              `json:"name"`
	ClientID         uint                `json:"client_id"`
	ClientName       string              `json:"client_name,omitempty"`
	ServiceID        uint                `json:"service_id"`
	ServiceName      string              `json:"service_name,omitempty"`
	AssignedUserID   uint                `json:"assigned_user_id"`
	AssignedUserName string              `json:"assigned_user_name,omitempty"`
	Status           OpportunityStatus   `json:"status"`
	Priority         OpportunityPriority `json:"priority"`
	EstimatedValue   decimal.Decimal     `json:"estimated_value"`
	DueDate          string              `json:"due_date,omitempty"` // YYYY-MM-DD
	Notes            string              `json:"notes"`
	CreatedAt        string              `json:"created_at"`
	UpdatedAt        string              `json:"updated_at"`
}

type TaskDTO struct {
	ID               uint       `json:"id"`
	Name             string     `json:"name"`
	OpportunityID    uint       `json:"opportunity_id"`
	OpportunityName  string     `json:"opportunity_name,omitempty"`
	AssignedUserID   uint       `json:"assigned_user_id"`
	AssignedUserName string     `json:"assigned_user_name,omitempty"`
	DueDate          string     `json:"due_date,omitempty"` // YYYY-MM-DD
	Status           TaskStatus `json:"status"`
	Description      string     `json:"description"`
	IsOverdue        bool       `json:"is_overdue"`
	CreatedAt        string     `json:"created_at"`
	UpdatedAt        string     `json:"updated_at"`
}

type NotificationDTO struct {
	ID        uint             `json:"id"`
	UserID    uint             `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	RelatedTo string           `json:"related_to,omitempty"`
	RelatedID *uint            `json:"related_id,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt string           `json:"created_at"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Pagination
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// PageMeta is attached to list responses in the envelope
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// API Response wrapper
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// DeleteResult describes the outcome of a delete that may be blocked by dependents
type DeleteResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message,omitempty"`
	HasOpportunities bool   `json:"has_opportunities,omitempty"`
	OpportunityCount int64  `json:"opportunity_count,omitempty"`
	HasClients       bool   `json:"has_clients,omitempty"`
	ClientCount      int64  `json:"client_count,omitempty"`
	HasServices      bool   `json:"has_services,omitempty"`
	ServiceCount     int64  `json:"service_count,omitempty"`
}

// LookupEntry is an {id, name} pair used for name resolution.
// For users Name carries the username.
type LookupEntry struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Lookups holds the tables used to resolve display names to ids
type Lookups struct {
	Clients       []LookupEntry `json:"clients"`
	Services      []LookupEntry `json:"services"`
	Opportunities []LookupEntry `json:"opportunities"`
	Users         []LookupEntry `json:"users"`
}

// Request DTOs

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type TokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int64   `json:"expires_in"`
	User        UserDTO `json:"user"`
}

type CreateUserRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=100"`
	Email    string   `json:"email" validate:"required,email,max=255"`
	Password string   `json:"password" validate:"required,min=8,max=72"`
	Role     UserRole `json:"role" validate:"omitempty,oneof=admin sales bu_head senior_management"`
}

type UpdateUserRequest struct {
	Email    string   `json:"email" validate:"required,email,max=255"`
	Password string   `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Role     UserRole `json:"role" validate:"required,oneof=admin sales bu_head senior_management"`
}

type CreateBusinessUnitRequest struct {
	Name        string       `json:"name" validate:"required,max=200"`
	Description string       `json:"description"`
	Status      RecordStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

type UpdateBusinessUnitRequest = CreateBusinessUnitRequest

type CreateIndustryRequest struct {
	Name        string       `json:"name" validate:"required,max=200"`
	Description string       `json:"description"`
	Status      RecordStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

type UpdateIndustryRequest = CreateIndustryRequest

type CreateClientRequest struct {
	Name           string       `json:"name" validate:"required,max=200"`
	Industry       string       `json:"industry" validate:"max=200"`
	ContactName    string       `json:"contact_name" validate:"max=200"`
	ContactEmail   string       `json:"contact_email" validate:"omitempty,email,max=255"`
	ContactPhone   string       `json:"contact_phone" validate:"max=50"`
	Address        string       `json:"address" validate:"max=500"`
	AccountOwnerID *uint        `json:"account_owner_id"`
	ServicesUsed   []uint       `json:"services_used"`
	CRMLink        string       `json:"crm_link" validate:"max=500"`
	Notes          string       `json:"notes"`
	Status         ClientStatus `json:"status" validate:"omitempty,oneof=active inactive prospect"`
}

type UpdateClientRequest = CreateClientRequest

type CreateServiceRequest struct {
	Name                 string        `json:"name" validate:"required,max=200"`
	Description          string        `json:"description"`
	BusinessUnit         string        `json:"business_unit" validate:"required,max=200"`
	PricingModel         string        `json:"pricing_model" validate:"max=100"`
	PricingDetails       string        `json:"pricing_details"`
	ApplicableIndustries []string      `json:"applicable_industries"`
	ClientRole           string        `json:"client_role" validate:"max=200"`
	Status               ServiceStatus `json:"status" validate:"omitempty,oneof=active inactive deprecated"`
}

type UpdateServiceRequest = CreateServiceRequest

type CreateOpportunityRequest struct {
	Name           string              `json:"name" validate:"required,max=200"`
	ClientID       uint                `json:"client_id" validate:"required"`
	ServiceID      uint                `json:"service_id" validate:"required"`
	AssignedUserID uint                `json:"assigned_user_id"`
	Status         OpportunityStatus   `json:"status" validate:"omitempty,oneof=new in_progress qualified proposal negotiation won lost on_hold"`
	Priority       OpportunityPriority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	EstimatedValue decimal.Decimal     `json:"estimated_value"`
	DueDate        string              `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes          string              `json:"notes"`
}

type UpdateOpportunityRequest = CreateOpportunityRequest

type CreateTaskRequest struct {
	Name           string     `json:"name" validate:"required,max=200"`
	OpportunityID  uint       `json:"opportunity_id" validate:"required"`
	AssignedUserID uint       `json:"assigned_user_id"`
	DueDate        string     `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Status         TaskStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed on_hold cancelled"`
	Description    string     `json:"description"`
}

type UpdateTaskRequest = CreateTaskRequest

// UpdateStatusRequest is the body of every PATCH /{id}/status route
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateFromCellRequest creates an opportunity for an empty matrix cell
type CreateFromCellRequest struct {
	ClientID       uint                `json:"client_id" validate:"required"`
	ServiceID      uint                `json:"service_id" validate:"required"`
	Name           string              `json:"name" validate:"max=200"`
	AssignedUserID uint                `json:"assigned_user_id"`
	Priority       OpportunityPriority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	EstimatedValue decimal.Decimal     `json:"estimated_value"`
	DueDate        string              `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes          string              `json:"notes"`
}

// BulkDeleteNotificationsRequest deletes a set of the caller's notifications
type BulkDeleteNotificationsRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// CleanupNotificationsRequest deletes notifications older than the given age
type CleanupNotificationsRequest struct {
	OlderThanDays int `json:"older_than_days" validate:"required,gte=1,lte=3650"`
}

// NotificationCountDTO reports unread and total counts for the caller
type NotificationCountDTO struct {
	Unread int64 `json:"unread"`
	Total  int64 `json:"total"`
}

// Filters

// ClientFilters narrows client list queries
type ClientFilters struct {
	Search         string
	Status         ClientStatus
	AccountOwnerID *uint
	Industry       string
}

// ServiceFilters narrows service list queries
type ServiceFilters struct {
	Search       string
	Status       ServiceStatus
	BusinessUnit string
}

// OpportunityFilters narrows opportunity list queries
type OpportunityFilters struct {
	ClientID       *uint
	ServiceID      *uint
	AssignedUserID *uint
	Status         OpportunityStatus
	Priority       OpportunityPriority
}

// TaskFilters narrows task list queries. Overdue selects open tasks due before today.
type TaskFilters struct {
	OpportunityID  *uint
	AssignedUserID *uint
	Status         TaskStatus
	Overdue        *bool
}
