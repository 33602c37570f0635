package csvtransform

import (
	"fmt"
	"strings"
	"time"
)

// ValidationResult is the outcome of Validate. Any error refuses the import.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

var statusValues = map[Entity][]string{
	EntityClients:       {"active", "inactive", "prospect"},
	EntityServices:      {"active", "inactive", "deprecated"},
	EntityOpportunities: {"new", "in_progress", "qualified", "proposal", "negotiation", "won", "lost", "on_hold"},
	EntityTasks:         {"pending", "in_progress", "completed", "on_hold", "cancelled"},
}

var priorityValues = []string{"low", "medium", "high", "critical"}

// Validate checks required fields, enum values and date formats. Enum values
// are normalized to lowercase in place. Row numbers are the spreadsheet lines
// in lines, see LineNumber.
func Validate(rows []Row, lines []int, required []string, entity Entity) ValidationResult {
	result := ValidationResult{Errors: []string{}, Warnings: []string{}}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	if _, ok := rows[0]["id"]; ok {
		result.Warnings = append(result.Warnings, "Column 'id' is ignored; every row creates a new record")
	}

	for i, row := range rows {
		line := LineNumber(lines, i)

		for _, field := range required {
			if isMissing(row[field]) {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Missing required field '%s'", line, field))
			}
		}

		if msg := normalizeEnum(row, "status", statusValues[entity]); msg != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", line, msg))
		}
		if entity == EntityOpportunities {
			if msg := normalizeEnum(row, "priority", priorityValues); msg != "" {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", line, msg))
			}
		}

		if entity == EntityOpportunities || entity == EntityTasks {
			if v, ok := row["due_date"]; ok && v != nil {
				if !isDate(v) {
					result.Errors = append(result.Errors, fmt.Sprintf(
						"Row %d: Invalid due_date '%s', expected YYYY-MM-DD", line, FormatValue(v)))
				}
			}
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func isMissing(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []string:
		return len(val) == 0
	}
	return false
}

// normalizeEnum lowercases row[field] when it is an allowed value and returns
// an error message otherwise. Absent values are accepted.
func normalizeEnum(row Row, field string, allowed []string) string {
	v, ok := row[field]
	if !ok || v == nil || len(allowed) == 0 {
		return ""
	}
	raw := FormatValue(v)
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if lower == a {
			row[field] = lower
			return ""
		}
	}
	return fmt.Sprintf("Invalid %s '%s', must be one of: %s", field, raw, strings.Join(allowed, ", "))
}

func isDate(v interface{}) bool {
	s, ok := v.(string)
	if !ok || !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
