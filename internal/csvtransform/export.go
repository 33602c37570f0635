package csvtransform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wondrlab/crosssell-api/internal/domain"
)

// ExportToCSV renders rows as CSV text. When headers is nil the sorted keys of
// the first row are used. Excluded fields are dropped from the header row.
func ExportToCSV(headers []string, rows []Row, exclude ...string) string {
	if headers == nil && len(rows) > 0 {
		for k := range rows[0] {
			headers = append(headers, k)
		}
		sort.Strings(headers)
	}

	skip := make(map[string]bool, len(exclude))
	for _, f := range exclude {
		skip[f] = true
	}
	headers = without(headers, skip)

	var b strings.Builder
	writeRecord(&b, headers)
	for _, row := range rows {
		fields := make([]string, len(headers))
		for i, h := range headers {
			fields[i] = FormatValue(row[h])
		}
		writeRecord(&b, fields)
	}
	return b.String()
}

// ExportForImport renders rows in the re-importable layout for an entity
func ExportForImport(entity Entity, rows []Row) string {
	excluded := append(append([]string{}, SystemFields...), DisplayFields...)
	return ExportToCSV(Headers(entity), rows, excluded...)
}

// Template returns a header-only import file for an entity
func Template(entity Entity) string {
	return ExportToCSV(TemplateHeaders(entity), nil)
}

func writeRecord(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quote(f))
	}
	b.WriteString("\r\n")
}

func quote(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FormatValue converts a cell value to its CSV text. Slices are joined with ';'
// and times are written as dates.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ";")
	case []uint:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.FormatUint(uint64(n), 10)
		}
		return strings.Join(parts, ";")
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ";")
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(dateLayout)
	case *time.Time:
		if val == nil {
			return ""
		}
		return FormatValue(*val)
	case *uint:
		if val == nil {
			return ""
		}
		return strconv.FormatUint(uint64(*val), 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case decimal.Decimal:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// ClientRow converts a client to an export row
func ClientRow(c domain.ClientDTO) Row {
	return Row{
		"id":                 c.ID,
		"name":               c.Name,
		"industry":           c.Industry,
		"contact_name":       c.ContactName,
		"contact_email":      c.ContactEmail,
		"contact_phone":      c.ContactPhone,
		"address":            c.Address,
		"account_owner_id":   c.AccountOwnerID,
		"account_owner_name": c.AccountOwnerName,
		"services_used":      c.ServicesUsed,
		"crm_link":           c.CRMLink,
		"notes":              c.Notes,
		"status":             string(c.Status),
		"created_at":         c.CreatedAt,
		"updated_at":         c.UpdatedAt,
	}
}

// ServiceRow converts a catalog service to an export row
func ServiceRow(s domain.ServiceDTO) Row {
	return Row{
		"id":                    s.ID,
		"name":                  s.Name,
		"description":           s.Description,
		"business_unit":         s.BusinessUnit,
		"pricing_model":         s.PricingModel,
		"pricing_details":       s.PricingDetails,
		"applicable_industries": s.ApplicableIndustries,
		"client_role":           s.ClientRole,
		"status":                string(s.Status),
		"created_at":            s.CreatedAt,
		"updated_at":            s.UpdatedAt,
	}
}

// OpportunityRow converts an opportunity to an export row
func OpportunityRow(o domain.OpportunityDTO) Row {
	return Row{
		"id":                 o.ID,
		"name":               o.Name,
		"client_id":          o.ClientID,
		"client_name":        o.ClientName,
		"service_id":         o.ServiceID,
		"service_name":       o.ServiceName,
		"assigned_user_id":   o.AssignedUserID,
		"assigned_user_name": o.AssignedUserName,
		"status":             string(o.Status),
		"priority":           string(o.Priority),
		"estimated_value":    o.EstimatedValue,
		"due_date":           o.DueDate,
		"notes":              o.Notes,
		"created_at":         o.CreatedAt,
		"updated_at":         o.UpdatedAt,
	}
}

// TaskRow converts a task to an export row
func TaskRow(t domain.TaskDTO) Row {
	return Row{
		"id":                 t.ID,
		"name":               t.Name,
		"opportunity_id":     t.OpportunityID,
		"opportunity_name":   t.OpportunityName,
		"assigned_user_id":   t.AssignedUserID,
		"assigned_user_name": t.AssignedUserName,
		"due_date":           t.DueDate,
		"status":             string(t.Status),
		"description":        t.Description,
		"is_overdue":         t.IsOverdue,
		"created_at":         t.CreatedAt,
		"updated_at":         t.UpdatedAt,
	}
}
