package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// UserRole represents the role of a user. Roles gate UI visibility; only admin
// routes are enforced server side.
type UserRole string

const (
	RoleAdmin            UserRole = "admin"
	RoleSales            UserRole = "sales"
	RoleBUHead           UserRole = "bu_head"
	RoleSeniorManagement UserRole = "senior_management"
)

// IsValid checks if the UserRole is a valid enum value
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSales, RoleBUHead, RoleSeniorManagement:
		return true
	}
	return false
}

// User represents an application user
type User struct {
	BaseModel
	Username     string   `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email        string   `gorm:"type:varchar(255);not null;uniqueIndex"`
	Role         UserRole `gorm:"type:varchar(50);not null;default:'sales';index"`
	PasswordHash string   `gorm:"type:varchar(255);not null;column:password_hash"`
}

// RecordStatus is the active/inactive status shared by reference tables
type RecordStatus string

const (
	RecordStatusActive   RecordStatus = "active"
	RecordStatusInactive RecordStatus = "inactive"
)

func (s RecordStatus) IsValid() bool {
	return s == RecordStatusActive || s == RecordStatusInactive
}

// BusinessUnit is an organizational division that owns a subset of services
type BusinessUnit struct {
	BaseModel
	Name        string       `gorm:"type:varchar(200);not null;uniqueIndex"`
	Description string       `gorm:"type:text"`
	Status      RecordStatus `gorm:"type:varchar(50);not null;default:'active'"`
}

// Industry is a reference list of client industries
type Industry struct {
	BaseModel
	Name        string       `gorm:"type:varchar(200);not null;uniqueIndex"`
	Description string       `gorm:"type:text"`
	Status      RecordStatus `gorm:"type:varchar(50);not null;default:'active'"`
}

// ClientStatus represents the status of a client
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusProspect ClientStatus = "prospect"
)

// IsValid checks if the ClientStatus is a valid enum value
func (s ClientStatus) IsValid() bool {
	switch s {
	case ClientStatusActive, ClientStatusInactive, ClientStatusProspect:
		return true
	}
	return false
}

// Client represents a client account
type Client struct {
	BaseModel
	Name           string       `gorm:"type:varchar(200);not null;uniqueIndex"`
	Industry       string       `gorm:"type:varchar(200);index"`
	ContactName    string       `gorm:"type:varchar(200);column:contact_name"`
	ContactEmail   string       `gorm:"type:varchar(255);column:contact_email"`
	ContactPhone   string       `gorm:"type:varchar(50);column:contact_phone"`
	Address        string       `gorm:"type:varchar(500)"`
	AccountOwnerID *uint        `gorm:"column:account_owner_id;index"`
	AccountOwner   *User        `gorm:"foreignKey:AccountOwnerID"`
	ServicesUsed   []uint       `gorm:"serializer:json;column:services_used"`
	CRMLink        string       `gorm:"type:varchar(500);column:crm_link"`
	Notes          string       `gorm:"type:text"`
	Status         ClientStatus `gorm:"type:varchar(50);not null;default:'prospect';index"`
}

// UsesService reports whether serviceID is in the client's active services
func (c *Client) UsesService(serviceID uint) bool {
	for _, id := range c.ServicesUsed {
		if id == serviceID {
			return true
		}
	}
	return false
}

// AddService adds serviceID to services_used, returning false if already present
func (c *Client) AddService(serviceID uint) bool {
	if c.UsesService(serviceID) {
		return false
	}
	c.ServicesUsed = append(c.ServicesUsed, serviceID)
	return true
}

// RemoveService drops serviceID from services_used, returning true if it was present
func (c *Client) RemoveService(serviceID uint) bool {
	kept := c.ServicesUsed[:0]
	removed := false
	for _, id := range c.ServicesUsed {
		if id == serviceID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	c.ServicesUsed = kept
	return removed
}

// ServiceStatus represents the status of a catalog service
type ServiceStatus string

const (
	ServiceStatusActive     ServiceStatus = "active"
	ServiceStatusInactive   ServiceStatus = "inactive"
	ServiceStatusDeprecated ServiceStatus = "deprecated"
)

// IsValid checks if the ServiceStatus is a valid enum value
func (s ServiceStatus) IsValid() bool {
	switch s {
	case ServiceStatusActive, ServiceStatusInactive, ServiceStatusDeprecated:
		return true
	}
	return false
}

// Service represents a sellable service in the catalog.
// Name is unique within a business unit.
type Service struct {
	BaseModel
	Name                 string        `gorm:"type:varchar(200);not null;uniqueIndex:idx_service_name_bu"`
	Description          string        `gorm:"type:text"`
	BusinessUnit         string        `gorm:"type:varchar(200);column:business_unit;uniqueIndex:idx_service_name_bu;index"`
	PricingModel         string        `gorm:"type:varchar(100);column:pricing_model"`
	PricingDetails       string        `gorm:"type:text;column:pricing_details"`
	ApplicableIndustries []string      `gorm:"serializer:json;column:applicable_industries"`
	ClientRole           string        `gorm:"type:varchar(200);column:client_role"`
	Status               ServiceStatus `gorm:"type:varchar(50);not null;default:'active';index"`
}

// OpportunityStatus represents the status label of an opportunity.
// Transitions are not ordered; won and lost are terminal.
type OpportunityStatus string

const (
	OpportunityStatusNew         OpportunityStatus = "new"
	OpportunityStatusInProgress  OpportunityStatus = "in_progress"
	OpportunityStatusQualified   OpportunityStatus = "qualified"
	OpportunityStatusProposal    OpportunityStatus = "proposal"
	OpportunityStatusNegotiation OpportunityStatus = "negotiation"
	OpportunityStatusWon         OpportunityStatus = "won"
	OpportunityStatusLost        OpportunityStatus = "lost"
	OpportunityStatusOnHold      OpportunityStatus = "on_hold"
)

// IsValid checks if the OpportunityStatus is a valid enum value
func (s OpportunityStatus) IsValid() bool {
	switch s {
	case OpportunityStatusNew, OpportunityStatusInProgress, OpportunityStatusQualified,
		OpportunityStatusProposal, OpportunityStatusNegotiation, OpportunityStatusWon,
		OpportunityStatusLost, OpportunityStatusOnHold:
		return true
	}
	return false
}

// IsTerminal reports whether the status is won or lost
func (s OpportunityStatus) IsTerminal() bool {
	return s == OpportunityStatusWon || s == OpportunityStatusLost
}

// OpportunityPriority represents the priority of an opportunity
type OpportunityPriority string

const (
	PriorityLow      OpportunityPriority = "low"
	PriorityMedium   OpportunityPriority = "medium"
	PriorityHigh     OpportunityPriority = "high"
	PriorityCritical OpportunityPriority = "critical"
)

// IsValid checks if the OpportunityPriority is a valid enum value
func (p OpportunityPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Opportunity is a tracked potential sale of one service to one client
type Opportunity struct {
	BaseModel
	Name           string              `gorm:"type:varchar(200);not null"`
	ClientID       uint                `gorm:"not null;index;column:client_id"`
	Client         *Client             `gorm:"foreignKey:ClientID"`
	ServiceID      uint                `gorm:"not null;index;column:service_id"`
	Service        *Service            `gorm:"foreignKey:ServiceID"`
	AssignedUserID uint                `gorm:"not null;index;column:assigned_user_id"`
	AssignedUser   *User               `gorm:"foreignKey:AssignedUserID"`
	Status         OpportunityStatus   `gorm:"type:varchar(50);not null;default:'new';index"`
	Priority       OpportunityPriority `gorm:"type:varchar(50);not null;default:'medium'"`
	EstimatedValue decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0;column:estimated_value"`
	DueDate        time.Time           `gorm:"type:date;column:due_date"`
	Notes          string              `gorm:"type:text"`
}

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusOnHold     TaskStatus = "on_hold"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsValid checks if the TaskStatus is a valid enum value
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOnHold, TaskStatusCancelled:
		return true
	}
	return false
}

// Task is a unit of follow-up work that always belongs to one opportunity
type Task struct {
	BaseModel
	Name                string       `gorm:"type:varchar(200);not null"`
	OpportunityID       uint         `gorm:"not null;index;column:opportunity_id"`
	Opportunity         *Opportunity `gorm:"foreignKey:OpportunityID"`
	AssignedUserID      uint         `gorm:"not null;index;column:assigned_user_id"`
	AssignedUser        *User        `gorm:"foreignKey:AssignedUserID"`
	DueDate             time.Time    `gorm:"type:date;column:due_date;index"`
	Status              TaskStatus   `gorm:"type:varchar(50);not null;default:'pending';index"`
	Description         string       `gorm:"type:text"`
	OverdueNoticeCount  int          `gorm:"not null;default:0;column:overdue_notice_count"`
	LastOverdueNoticeAt *time.Time   `gorm:"column:last_overdue_notice_at"`
}

// IsOverdue reports whether the task is past due relative to now.
// Only the calendar date is compared; completed tasks are never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Status == TaskStatusCompleted || t.DueDate.IsZero() {
		return false
	}
	return DateOnly(t.DueDate).Before(DateOnly(now))
}

// DateOnly returns the calendar date of t as midnight UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeNewOpportunity          NotificationType = "new_opportunity"
	NotificationTypeOpportunityStatusChange NotificationType = "opportunity_status_change"
	NotificationTypeOpportunityWon          NotificationType = "opportunity_won"
	NotificationTypeTaskAssigned            NotificationType = "task_assigned"
	NotificationTypeTaskOverdue             NotificationType = "task_overdue"
	NotificationTypeTaskOverdueEscalation   NotificationType = "task_overdue_escalation"
	NotificationTypeNewClient               NotificationType = "new_client"
)

// IsValid checks if the NotificationType is a valid enum value
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypeNewOpportunity, NotificationTypeOpportunityStatusChange, NotificationTypeOpportunityWon,
		NotificationTypeTaskAssigned, NotificationTypeTaskOverdue, NotificationTypeTaskOverdueEscalation,
		NotificationTypeNewClient:
		return true
	}
	return false
}

// Notification represents a user notification
type Notification struct {
	ID        uint             `gorm:"primaryKey;autoIncrement"`
	UserID    uint             `gorm:"not null;index;column:user_id"`
	Type      NotificationType `gorm:"type:varchar(50);not null"`
	Title     string           `gorm:"type:varchar(200);not null"`
	Message   string           `gorm:"type:varchar(1000);not null"`
	RelatedTo string           `gorm:"type:varchar(50);column:related_to"`
	RelatedID *uint            `gorm:"column:related_id"`
	IsRead    bool             `gorm:"not null;default:false;column:is_read;index"`
	CreatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// Related entity names used in Notification.RelatedTo
const (
	RelatedClient      = "client"
	RelatedOpportunity = "opportunity"
	RelatedTask        = "task"
)
