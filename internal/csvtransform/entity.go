// Package csvtransform converts entity rows to and from the CSV import/export
// format: export, parse with type coercion, validation, name to id resolution
// and typed decoding into create requests.
package csvtransform

import (
	"fmt"
	"strings"
)

// Entity names one of the importable record types
type Entity string

const (
	EntityClients       Entity = "clients"
	EntityServices      Entity = "services"
	EntityOpportunities Entity = "opportunities"
	EntityTasks         Entity = "tasks"
)

// Entities lists every supported entity in import order
var Entities = []Entity{EntityClients, EntityServices, EntityOpportunities, EntityTasks}

// ParseEntity validates an entity name
func ParseEntity(s string) (Entity, error) {
	e := Entity(strings.ToLower(strings.TrimSpace(s)))
	switch e {
	case EntityClients, EntityServices, EntityOpportunities, EntityTasks:
		return e, nil
	}
	return "", fmt.Errorf("unsupported entity type: %q", s)
}

// Row is one untyped CSV record keyed by header
type Row map[string]interface{}

// SystemFields are never written to import files
var SystemFields = []string{"id", "created_at", "updated_at"}

// DisplayFields are denormalized, read-only columns
var DisplayFields = []string{
	"client_name",
	"service_name",
	"assigned_user_name",
	"opportunity_name",
	"account_owner_name",
	"is_overdue",
}

// Headers returns the full display-mode column list for an entity
func Headers(entity Entity) []string {
	switch entity {
	case EntityClients:
		return []string{"id", "name", "industry", "contact_name", "contact_email", "contact_phone", "address",
			"account_owner_id", "account_owner_name", "services_used", "crm_link", "notes", "status",
			"created_at", "updated_at"}
	case EntityServices:
		return []string{"id", "name", "description", "business_unit", "pricing_model", "pricing_details",
			"applicable_industries", "client_role", "status", "created_at", "updated_at"}
	case EntityOpportunities:
		return []string{"id", "name", "client_id", "client_name", "service_id", "service_name",
			"assigned_user_id", "assigned_user_name", "status", "priority", "estimated_value", "due_date",
			"notes", "created_at", "updated_at"}
	case EntityTasks:
		return []string{"id", "name", "opportunity_id", "opportunity_name", "assigned_user_id",
			"assigned_user_name", "due_date", "status", "description", "is_overdue", "created_at", "updated_at"}
	}
	return nil
}

// ImportHeaders returns the columns written by ExportForImport
func ImportHeaders(entity Entity) []string {
	return without(Headers(entity), importExcluded())
}

// TemplateHeaders returns the columns of a blank import template. Foreign keys
// are offered by display name since that is what people type.
func TemplateHeaders(entity Entity) []string {
	var headers []string
	for _, h := range ImportHeaders(entity) {
		switch h {
		case "account_owner_id":
			headers = append(headers, "account_owner_name")
		case "client_id":
			headers = append(headers, "client_name")
		case "service_id":
			headers = append(headers, "service_name")
		case "assigned_user_id":
			headers = append(headers, "assigned_user_name")
		case "opportunity_id":
			headers = append(headers, "opportunity_name")
		default:
			headers = append(headers, h)
		}
	}
	return headers
}

// RequiredFields returns the default required columns for an entity
func RequiredFields(entity Entity) []string {
	switch entity {
	case EntityServices:
		return []string{"name", "business_unit"}
	case EntityClients, EntityOpportunities, EntityTasks:
		return []string{"name"}
	}
	return nil
}

func importExcluded() map[string]bool {
	excluded := make(map[string]bool, len(SystemFields)+len(DisplayFields))
	for _, f := range SystemFields {
		excluded[f] = true
	}
	for _, f := range DisplayFields {
		excluded[f] = true
	}
	return excluded
}

func without(headers []string, excluded map[string]bool) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if !excluded[h] {
			out = append(out, h)
		}
	}
	return out
}
