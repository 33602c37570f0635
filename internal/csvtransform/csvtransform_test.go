package csvtransform_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/csvtransform"
	"github.com/wondrlab/crosssell-api/internal/domain"
)

func TestExportToCSV_QuotesSpecialCharacters(t *testing.T) {
	rows := []csvtransform.Row{
		{"name": "Acme, Inc", "notes": `said "hi"`},
		{"name": "Multi\nLine", "notes": nil},
	}

	out := csvtransform.ExportToCSV([]string{"name", "notes"}, rows)

	assert.Equal(t, "name,notes\r\n\"Acme, Inc\",\"said \"\"hi\"\"\"\r\n\"Multi\nLine\",\r\n", out)
}

func TestExportToCSV_DefaultsToSortedKeys(t *testing.T) {
	rows := []csvtransform.Row{{"b": 1.5, "a": "x", "c": []string{"p", "q"}}}

	out := csvtransform.ExportToCSV(nil, rows, "b")

	assert.Equal(t, "a,c\r\nx,p;q\r\n", out)
}

func TestFormatValue(t *testing.T) {
	owner := uint(7)
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"nil", nil, ""},
		{"ids", []uint{1, 2, 3}, "1;2;3"},
		{"float", 1500.0, "1500"},
		{"decimal", decimal.RequireFromString("12.50"), "12.5"},
		{"time", time.Date(2026, 3, 9, 15, 4, 5, 0, time.UTC), "2026-03-09"},
		{"pointer", &owner, "7"},
		{"nil pointer", (*uint)(nil), ""},
		{"bool", true, "true"},
		{"uint", uint(42), "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, csvtransform.FormatValue(tt.value))
		})
	}
}

func TestExportForImport_ExcludesSystemAndDisplayFields(t *testing.T) {
	row := csvtransform.OpportunityRow(domain.OpportunityDTO{
		ID:               9,
		Name:             "Cloud migration",
		ClientID:         1,
		ClientName:       "Acme",
		ServiceID:        2,
		ServiceName:      "Hosting",
		AssignedUserID:   3,
		AssignedUserName: "alice",
		Status:           domain.OpportunityStatusProposal,
		Priority:         domain.PriorityHigh,
		EstimatedValue:   decimal.NewFromInt(2500),
		DueDate:          "2026-12-01",
		CreatedAt:        "2026-01-01T00:00:00Z",
	})

	out := csvtransform.ExportForImport(csvtransform.EntityOpportunities, []csvtransform.Row{row})
	lines := strings.Split(strings.TrimSpace(out), "\r\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "name,client_id,service_id,assigned_user_id,status,priority,estimated_value,due_date,notes", lines[0])
	assert.Equal(t, "Cloud migration,1,2,3,proposal,high,2500,2026-12-01,", lines[1])
	for _, f := range []string{"id", "created_at", "client_name", "assigned_user_name"} {
		assert.NotContains(t, strings.Split(lines[0], ","), f)
	}
}

func TestTemplate_UsesDisplayNamesForForeignKeys(t *testing.T) {
	out := csvtransform.Template(csvtransform.EntityTasks)

	assert.Equal(t, "name,opportunity_name,assigned_user_name,due_date,status,description\r\n", out)
}

func TestParseText_CoercesValues(t *testing.T) {
	text := "name,contact_phone,services_used,estimated_value,due_date,notes\n" +
		"Acme,5551234,1;2,1500.5,2026-01-31,\n"

	result, err := csvtransform.ParseText(text)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, "Acme", row["name"])
	assert.Equal(t, "5551234", row["contact_phone"])
	assert.Equal(t, []string{"1", "2"}, row["services_used"])
	assert.Equal(t, 1500.5, row["estimated_value"])
	assert.Equal(t, "2026-01-31", row["due_date"])
	assert.Nil(t, row["notes"])
}

func TestParseText_SkipsMismatchedAndBlankRows(t *testing.T) {
	text := "name, status \nAcme,active\n\nBroken\n,\nBeta,prospect\n"

	result, err := csvtransform.ParseText(text)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "status"}, result.Headers)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Beta", result.Rows[1]["name"])
	assert.Equal(t, []int{2, 6}, result.Lines)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Line 4")
}

func TestRowNumbersFollowSourceLines(t *testing.T) {
	text := "name,status\n\nbad,row,extra\n,active\nAcme,ACTIVE\n"

	parsed, err := csvtransform.ParseText(text)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, parsed.Lines)
	assert.Equal(t, []string{"Line 3: expected 2 fields but found 3, row skipped"}, parsed.Warnings)

	validation := csvtransform.Validate(parsed.Rows, parsed.Lines, []string{"name"}, csvtransform.EntityClients)
	assert.Equal(t, []string{"Row 4: Missing required field 'name'"}, validation.Errors)

	rows := []csvtransform.Row{{"name": "Upsell", "client_name": "Initech"}}
	_, warnings := csvtransform.Prepare(csvtransform.EntityOpportunities, rows, []int{9}, testLookups(),
		csvtransform.Options{FallbackUserID: 1})
	assert.Equal(t, []string{"Row 9: Client 'Initech' not found"}, warnings)
}

func TestParseText_QuotedNewlines(t *testing.T) {
	text := "name,notes\r\nAcme,\"first line\nsecond, line\"\r\nBeta,short\r\n"

	result, err := csvtransform.ParseText(text)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "first line\nsecond, line", result.Rows[0]["notes"])
	assert.Equal(t, []int{2, 4}, result.Lines, "a quoted newline spans two lines")
}

func TestParseFile_StripsBOM(t *testing.T) {
	result, err := csvtransform.ParseFile(strings.NewReader("\xEF\xBB\xBFname,status\nAcme,active\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "status"}, result.Headers)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Acme", result.Rows[0]["name"])
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	rows := []csvtransform.Row{
		{"name": "Hosting", "business_unit": "Cloud"},
		{"name": nil, "business_unit": " "},
	}

	result := csvtransform.Validate(rows, nil, csvtransform.RequiredFields(csvtransform.EntityServices), csvtransform.EntityServices)

	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		"Row 3: Missing required field 'name'",
		"Row 3: Missing required field 'business_unit'",
	}, result.Errors)
}

func TestValidate_NormalizesEnums(t *testing.T) {
	rows := []csvtransform.Row{{"name": "Deal", "status": "In_Progress", "priority": "HIGH"}}

	result := csvtransform.Validate(rows, nil, []string{"name"}, csvtransform.EntityOpportunities)

	assert.True(t, result.Valid)
	assert.Equal(t, "in_progress", rows[0]["status"])
	assert.Equal(t, "high", rows[0]["priority"])
}

func TestValidate_RejectsInvalidValues(t *testing.T) {
	rows := []csvtransform.Row{
		{"name": "Call back", "status": "done", "due_date": "31/01/2026"},
		{"name": "Follow up", "status": "pending", "due_date": "2026-02-30"},
	}

	result := csvtransform.Validate(rows, nil, []string{"name"}, csvtransform.EntityTasks)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Row 2: Invalid status 'done'")
	assert.Contains(t, result.Errors[1], "Row 2: Invalid due_date '31/01/2026'")
	assert.Contains(t, result.Errors[2], "Row 3: Invalid due_date '2026-02-30'")
}

func TestValidate_EmptyDatasetAndIDWarning(t *testing.T) {
	empty := csvtransform.Validate(nil, nil, []string{"name"}, csvtransform.EntityClients)
	assert.False(t, empty.Valid)
	assert.Len(t, empty.Errors, 1)

	withID := csvtransform.Validate([]csvtransform.Row{{"id": 4.0, "name": "Acme"}}, nil, []string{"name"}, csvtransform.EntityClients)
	assert.True(t, withID.Valid)
	assert.Len(t, withID.Warnings, 1)
}

func testLookups() domain.Lookups {
	return domain.Lookups{
		Clients:       []domain.LookupEntry{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Globex"}},
		Services:      []domain.LookupEntry{{ID: 10, Name: "Hosting"}, {ID: 11, Name: "Security Audit"}},
		Opportunities: []domain.LookupEntry{{ID: 20, Name: "Acme hosting"}, {ID: 21, Name: "Globex audit"}},
		Users:         []domain.LookupEntry{{ID: 5, Name: "alice"}, {ID: 6, Name: "bob"}},
	}
}

func TestPrepare_ResolvesOpportunityNames(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	rows := []csvtransform.Row{
		{"name": "Upsell", "client_name": " acme ", "service_name": "SECURITY AUDIT", "assigned_user_name": "Bob"},
		{"name": "Unknown", "client_name": "Initech", "service_name": "Hosting", "assigned_user_name": nil},
	}

	prepared, warnings := csvtransform.Prepare(csvtransform.EntityOpportunities, rows, nil, testLookups(),
		csvtransform.Options{Now: now, FallbackUserID: 1})

	require.Len(t, prepared, 2)
	first := prepared[0]
	assert.Equal(t, 1.0, first["client_id"])
	assert.Equal(t, 11.0, first["service_id"])
	assert.Equal(t, 6.0, first["assigned_user_id"])
	assert.Equal(t, "new", first["status"])
	assert.Equal(t, "2026-11-13", first["due_date"])
	assert.NotContains(t, first, "client_name")
	assert.NotContains(t, first, "service_name")
	assert.NotContains(t, first, "assigned_user_name")

	second := prepared[1]
	assert.NotContains(t, second, "client_id")
	assert.Equal(t, 10.0, second["service_id"])
	assert.Equal(t, 1.0, second["assigned_user_id"])
	assert.Equal(t, []string{"Row 3: Client 'Initech' not found"}, warnings)

	// source rows are untouched
	assert.Equal(t, " acme ", rows[0]["client_name"])
}

func TestPrepare_TaskOpportunityFallback(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	rows := []csvtransform.Row{{"name": "Call", "opportunity_name": "missing"}}

	prepared, warnings := csvtransform.Prepare(csvtransform.EntityTasks, rows, nil, testLookups(),
		csvtransform.Options{Now: now, FallbackUserID: 1, FallbackOpportunityID: 99})
	require.Len(t, prepared, 1)
	assert.Equal(t, 20.0, prepared[0]["opportunity_id"])
	assert.Equal(t, "2026-10-21", prepared[0]["due_date"])
	assert.Equal(t, "pending", prepared[0]["status"])
	assert.Len(t, warnings, 1)

	prepared, _ = csvtransform.Prepare(csvtransform.EntityTasks, rows, nil, domain.Lookups{},
		csvtransform.Options{Now: now, FallbackUserID: 1, FallbackOpportunityID: 99})
	assert.Equal(t, 99.0, prepared[0]["opportunity_id"])
}

func TestPrepare_ClientServicesByName(t *testing.T) {
	rows := []csvtransform.Row{{"name": "Initech", "services_used": []string{"hosting", "11", "Payroll"}, "account_owner_name": "alice"}}

	prepared, warnings := csvtransform.Prepare(csvtransform.EntityClients, rows, nil, testLookups(), csvtransform.Options{FallbackUserID: 1})

	require.Len(t, prepared, 1)
	assert.Equal(t, []interface{}{10.0, 11.0}, prepared[0]["services_used"])
	assert.Equal(t, 5.0, prepared[0]["account_owner_id"])
	assert.Equal(t, "prospect", prepared[0]["status"])
	assert.Equal(t, []string{"Row 2: Service 'Payroll' not found"}, warnings)
}

func TestDecodeOpportunity(t *testing.T) {
	req, err := csvtransform.DecodeOpportunity(csvtransform.Row{
		"name":             2026.0,
		"client_id":        1.0,
		"service_id":       "2",
		"assigned_user_id": 3.0,
		"status":           "qualified",
		"estimated_value":  1250.75,
		"due_date":         "2026-12-01",
		"notes":            []string{"call", "then email"},
	})
	require.NoError(t, err)

	assert.Equal(t, "2026", req.Name)
	assert.Equal(t, uint(1), req.ClientID)
	assert.Equal(t, uint(2), req.ServiceID)
	assert.Equal(t, uint(3), req.AssignedUserID)
	assert.Equal(t, domain.OpportunityStatusQualified, req.Status)
	assert.True(t, decimal.RequireFromString("1250.75").Equal(req.EstimatedValue))
	assert.Equal(t, "call;then email", req.Notes)
}

func TestDecodeOpportunity_InvalidID(t *testing.T) {
	_, err := csvtransform.DecodeOpportunity(csvtransform.Row{"name": "x", "client_id": 1.5, "service_id": 2.0})

	var fieldErr *csvtransform.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "client_id", fieldErr.Field)

	_, err = csvtransform.DecodeTask(csvtransform.Row{"name": "x"})
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "opportunity_id", fieldErr.Field)
}

func TestRoundTrip_Clients(t *testing.T) {
	owner := uint(5)
	clients := []domain.ClientDTO{
		{
			ID: 1, Name: "Acme, Inc", Industry: "Retail", ContactName: "Jane Roe",
			ContactEmail: "jane@acme.test", ContactPhone: "0123456", Address: "1 Main St\nSuite 2",
			AccountOwnerID: &owner, AccountOwnerName: "alice", ServicesUsed: []uint{1, 2},
			Notes: `ask for "Jane"`, Status: domain.ClientStatusActive,
		},
		{ID: 2, Name: "Globex", ServicesUsed: []uint{3}, Status: domain.ClientStatusProspect},
	}

	rows := make([]csvtransform.Row, len(clients))
	for i, c := range clients {
		rows[i] = csvtransform.ClientRow(c)
	}

	parsed, err := csvtransform.ParseText(csvtransform.ExportForImport(csvtransform.EntityClients, rows))
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 2)
	assert.Empty(t, parsed.Warnings)

	first, err := csvtransform.DecodeClient(parsed.Rows[0])
	require.NoError(t, err)
	assert.Equal(t, "Acme, Inc", first.Name)
	assert.Equal(t, "0123456", first.ContactPhone)
	assert.Equal(t, "1 Main St\nSuite 2", first.Address)
	require.NotNil(t, first.AccountOwnerID)
	assert.Equal(t, owner, *first.AccountOwnerID)
	assert.Equal(t, []uint{1, 2}, first.ServicesUsed)
	assert.Equal(t, `ask for "Jane"`, first.Notes)
	assert.Equal(t, domain.ClientStatusActive, first.Status)

	second, err := csvtransform.DecodeClient(parsed.Rows[1])
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, second.ServicesUsed)
	assert.Nil(t, second.AccountOwnerID)
}
