package csvtransform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wondrlab/crosssell-api/internal/domain"
)

// FieldError reports a row value that cannot be converted to its typed field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field '%s': %s", e.Field, e.Message)
}

// DecodeClient converts a prepared row into a client create request
func DecodeClient(row Row) (*domain.CreateClientRequest, error) {
	d := decoder{row: row}
	req := &domain.CreateClientRequest{
		Name:           d.str("name"),
		Industry:       d.str("industry"),
		ContactName:    d.str("contact_name"),
		ContactEmail:   d.str("contact_email"),
		ContactPhone:   d.str("contact_phone"),
		Address:        d.str("address"),
		AccountOwnerID: d.optionalID("account_owner_id"),
		ServicesUsed:   d.idList("services_used"),
		CRMLink:        d.str("crm_link"),
		Notes:          d.str("notes"),
		Status:         domain.ClientStatus(d.str("status")),
	}
	return req, d.err
}

// DecodeService converts a prepared row into a service create request
func DecodeService(row Row) (*domain.CreateServiceRequest, error) {
	d := decoder{row: row}
	req := &domain.CreateServiceRequest{
		Name:                 d.str("name"),
		Description:          d.str("description"),
		BusinessUnit:         d.str("business_unit"),
		PricingModel:         d.str("pricing_model"),
		PricingDetails:       d.str("pricing_details"),
		ApplicableIndustries: d.strList("applicable_industries"),
		ClientRole:           d.str("client_role"),
		Status:               domain.ServiceStatus(d.str("status")),
	}
	return req, d.err
}

// DecodeOpportunity converts a prepared row into an opportunity create request
func DecodeOpportunity(row Row) (*domain.CreateOpportunityRequest, error) {
	d := decoder{row: row}
	req := &domain.CreateOpportunityRequest{
		Name:           d.str("name"),
		ClientID:       d.requiredID("client_id"),
		ServiceID:      d.requiredID("service_id"),
		AssignedUserID: d.id("assigned_user_id"),
		Status:         domain.OpportunityStatus(d.str("status")),
		Priority:       domain.OpportunityPriority(d.str("priority")),
		EstimatedValue: d.amount("estimated_value"),
		DueDate:        d.str("due_date"),
		Notes:          d.str("notes"),
	}
	return req, d.err
}

// DecodeTask converts a prepared row into a task create request
func DecodeTask(row Row) (*domain.CreateTaskRequest, error) {
	d := decoder{row: row}
	req := &domain.CreateTaskRequest{
		Name:           d.str("name"),
		OpportunityID:  d.requiredID("opportunity_id"),
		AssignedUserID: d.id("assigned_user_id"),
		DueDate:        d.str("due_date"),
		Status:         domain.TaskStatus(d.str("status")),
		Description:    d.str("description"),
	}
	return req, d.err
}

// decoder reads typed values from a row and keeps the first error
type decoder struct {
	row Row
	err error
}

func (d *decoder) fail(field, format string, args ...interface{}) {
	if d.err == nil {
		d.err = &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
	}
}

func (d *decoder) str(field string) string {
	switch v := d.row[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		// a ';' inside free text was split during parsing
		return strings.Join(v, ";")
	default:
		return FormatValue(v)
	}
}

func (d *decoder) strList(field string) []string {
	switch v := d.row[field].(type) {
	case nil:
		return nil
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, FormatValue(item))
		}
		return out
	default:
		return []string{FormatValue(v)}
	}
}

func (d *decoder) id(field string) uint {
	v := d.row[field]
	if v == nil {
		return 0
	}
	n, ok := toID(v)
	if !ok {
		d.fail(field, "'%s' is not a valid id", FormatValue(v))
		return 0
	}
	return n
}

func (d *decoder) requiredID(field string) uint {
	if d.row[field] == nil {
		d.fail(field, "is required")
		return 0
	}
	return d.id(field)
}

func (d *decoder) optionalID(field string) *uint {
	if d.row[field] == nil {
		return nil
	}
	n := d.id(field)
	if n == 0 {
		return nil
	}
	return &n
}

func (d *decoder) idList(field string) []uint {
	var items []interface{}
	switch v := d.row[field].(type) {
	case nil:
		return nil
	case []interface{}:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	default:
		items = []interface{}{v}
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		n, ok := toID(item)
		if !ok {
			d.fail(field, "'%s' is not a valid id", FormatValue(item))
			return nil
		}
		ids = append(ids, n)
	}
	return ids
}

func (d *decoder) amount(field string) decimal.Decimal {
	switch v := d.row[field].(type) {
	case nil:
		return decimal.Zero
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		amount, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			d.fail(field, "'%s' is not a number", v)
			return decimal.Zero
		}
		return amount
	default:
		d.fail(field, "'%s' is not a number", FormatValue(v))
		return decimal.Zero
	}
}

func toID(v interface{}) (uint, bool) {
	switch val := v.(type) {
	case float64:
		if val <= 0 || val != math.Trunc(val) || val > math.MaxUint32 {
			return 0, false
		}
		return uint(val), true
	case uint:
		return val, val > 0
	case int:
		return uint(val), val > 0
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(val), 10, 64)
		if err != nil || n == 0 {
			return 0, false
		}
		return uint(n), true
	}
	return 0, false
}
