package csvtransform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wondrlab/crosssell-api/internal/domain"
)

// Options control defaulting during Prepare
type Options struct {
	Now                   time.Time
	FallbackUserID        uint
	FallbackOpportunityID uint
}

// Default due date offsets
const (
	OpportunityDueDays = 30
	TaskDueDays        = 7
)

var defaultStatus = map[Entity]string{
	EntityClients:       string(domain.ClientStatusProspect),
	EntityServices:      string(domain.ServiceStatusActive),
	EntityOpportunities: string(domain.OpportunityStatusNew),
	EntityTasks:         string(domain.TaskStatusPending),
}

type lookupIndex map[string]uint

func newIndex(entries []domain.LookupEntry) lookupIndex {
	idx := make(lookupIndex, len(entries))
	for _, e := range entries {
		key := normalizeName(e.Name)
		// first entry wins on duplicate names
		if _, exists := idx[key]; !exists {
			idx[key] = e.ID
		}
	}
	return idx
}

func (idx lookupIndex) find(name string) (uint, bool) {
	id, ok := idx[normalizeName(name)]
	return id, ok
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Prepare resolves display names to ids against lookups, fills defaults and
// strips display-only columns. Input rows are not modified. Unresolved names
// produce a warning, numbered by lines, and leave the id unset.
func Prepare(entity Entity, rows []Row, lines []int, lookups domain.Lookups, opts Options) ([]Row, []string) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	clients := newIndex(lookups.Clients)
	services := newIndex(lookups.Services)
	opportunities := newIndex(lookups.Opportunities)
	users := newIndex(lookups.Users)

	var warnings []string
	warn := func(line int, format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf("Row %d: ", line)+fmt.Sprintf(format, args...))
	}
	resolve := func(row Row, line int, nameField, idField, label string, idx lookupIndex) {
		v, ok := row[nameField]
		if !ok || v == nil {
			return
		}
		name := FormatValue(v)
		if id, found := idx.find(name); found {
			row[idField] = float64(id)
			return
		}
		warn(line, "%s '%s' not found", label, name)
	}

	prepared := make([]Row, 0, len(rows))
	for i, src := range rows {
		line := LineNumber(lines, i)
		row := make(Row, len(src))
		for k, v := range src {
			row[k] = v
		}

		switch entity {
		case EntityClients:
			resolve(row, line, "account_owner_name", "account_owner_id", "Account owner", users)
			if v, ok := row["services_used"]; ok && v != nil {
				row["services_used"] = resolveServiceList(v, services, func(name string) {
					warn(line, "Service '%s' not found", name)
				})
			}
			setDefault(row, "account_owner_id", float64(opts.FallbackUserID))

		case EntityOpportunities:
			resolve(row, line, "client_name", "client_id", "Client", clients)
			resolve(row, line, "service_name", "service_id", "Service", services)
			resolve(row, line, "assigned_user_name", "assigned_user_id", "User", users)
			setDefault(row, "due_date", opts.Now.AddDate(0, 0, OpportunityDueDays).Format(dateLayout))
			setDefault(row, "assigned_user_id", float64(opts.FallbackUserID))

		case EntityTasks:
			resolve(row, line, "opportunity_name", "opportunity_id", "Opportunity", opportunities)
			resolve(row, line, "assigned_user_name", "assigned_user_id", "User", users)
			setDefault(row, "due_date", opts.Now.AddDate(0, 0, TaskDueDays).Format(dateLayout))
			setDefault(row, "assigned_user_id", float64(opts.FallbackUserID))
			if isMissing(row["opportunity_id"]) {
				fallback := opts.FallbackOpportunityID
				if len(lookups.Opportunities) > 0 {
					fallback = lookups.Opportunities[0].ID
				}
				row["opportunity_id"] = float64(fallback)
			}
		}

		setDefault(row, "status", defaultStatus[entity])

		for _, f := range DisplayFields {
			delete(row, f)
		}
		prepared = append(prepared, row)
	}
	return prepared, warnings
}

func setDefault(row Row, field string, value interface{}) {
	if isMissing(row[field]) {
		row[field] = value
	}
}

// resolveServiceList turns a services_used cell into numeric ids. Numeric
// entries are kept, names are looked up, unknown names are reported and dropped.
func resolveServiceList(v interface{}, services lookupIndex, unresolved func(string)) []interface{} {
	var items []string
	switch val := v.(type) {
	case []string:
		items = val
	case []interface{}:
		for _, item := range val {
			items = append(items, FormatValue(item))
		}
	default:
		items = []string{FormatValue(val)}
	}

	ids := make([]interface{}, 0, len(items))
	for _, item := range items {
		if n, err := strconv.ParseUint(strings.TrimSpace(item), 10, 64); err == nil {
			ids = append(ids, float64(n))
			continue
		}
		if id, ok := services.find(item); ok {
			ids = append(ids, float64(id))
			continue
		}
		unresolved(item)
	}
	return ids
}
