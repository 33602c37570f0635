package service

import (
	"bytes"
	"context"

	"github.com/wondrlab/crosssell-api/internal/csvtransform"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"go.uber.org/zap"
)

// RecordCreator creates the record one import row decodes to. The server
// implements it with the entity services and the CLI with the API client.
type RecordCreator interface {
	CreateClient(ctx context.Context, req *domain.CreateClientRequest) error
	CreateService(ctx context.Context, req *domain.CreateServiceRequest) error
	CreateOpportunity(ctx context.Context, req *domain.CreateOpportunityRequest) error
	CreateTask(ctx context.Context, req *domain.CreateTaskRequest) error
}

// ImportFile is an upload that parsed and passed validation
type ImportFile struct {
	Entity   csvtransform.Entity
	Parsed   *csvtransform.ParseResult
	Warnings []string
}

// ParseImport reads a CSV or XLSX file and validates it for entity. A
// *ValidationError refuses the whole file.
func ParseImport(entity csvtransform.Entity, data []byte) (*ImportFile, error) {
	var (
		parsed *csvtransform.ParseResult
		err    error
	)
	if csvtransform.IsXLSX(data) {
		parsed, err = csvtransform.ParseXLSX(bytes.NewReader(data))
	} else {
		parsed, err = csvtransform.ParseFile(bytes.NewReader(data))
	}
	if err != nil {
		return nil, invalidInput("%v", err)
	}

	validation := csvtransform.Validate(parsed.Rows, parsed.Lines, csvtransform.RequiredFields(entity), entity)
	warnings := append(append([]string{}, parsed.Warnings...), validation.Warnings...)
	if !validation.Valid {
		return nil, &ValidationError{Errors: validation.Errors, Warnings: warnings}
	}
	return &ImportFile{Entity: entity, Parsed: parsed, Warnings: warnings}, nil
}

// CreateRows resolves names against lookups and creates one record per row in
// file order. A failing row is recorded and the rest continue. Cancelling ctx
// stops the loop and returns the partial result with the context error.
func (f *ImportFile) CreateRows(ctx context.Context, lookups domain.Lookups, opts csvtransform.Options,
	creator RecordCreator, logger *zap.Logger) (*ImportResult, error) {
	rows, prepWarnings := csvtransform.Prepare(f.Entity, f.Parsed.Rows, f.Parsed.Lines, lookups, opts)
	for _, w := range prepWarnings {
		logger.Warn("import lookup warning", zap.String("entity", string(f.Entity)), zap.String("warning", w))
	}

	result := &ImportResult{
		Entity:   f.Entity,
		Errors:   []RowError{},
		Warnings: append(append([]string{}, f.Warnings...), prepWarnings...),
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		line := csvtransform.LineNumber(f.Parsed.Lines, i)
		result.Attempted++
		if err := createRecord(ctx, f.Entity, row, creator); err != nil {
			logger.Warn("import row failed",
				zap.String("entity", string(f.Entity)),
				zap.Int("row", line),
				zap.Error(err),
			)
			result.Failed++
			result.Errors = append(result.Errors, RowError{Row: line, Message: err.Error()})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

func createRecord(ctx context.Context, entity csvtransform.Entity, row csvtransform.Row, creator RecordCreator) error {
	switch entity {
	case csvtransform.EntityClients:
		req, err := csvtransform.DecodeClient(row)
		if err != nil {
			return err
		}
		return creator.CreateClient(ctx, req)
	case csvtransform.EntityServices:
		req, err := csvtransform.DecodeService(row)
		if err != nil {
			return err
		}
		return creator.CreateService(ctx, req)
	case csvtransform.EntityOpportunities:
		req, err := csvtransform.DecodeOpportunity(row)
		if err != nil {
			return err
		}
		return creator.CreateOpportunity(ctx, req)
	case csvtransform.EntityTasks:
		req, err := csvtransform.DecodeTask(row)
		if err != nil {
			return err
		}
		return creator.CreateTask(ctx, req)
	}
	return invalidInput("unsupported entity type: %s", entity)
}

// serviceCreator writes import rows through the entity services
type serviceCreator struct {
	clients       *ClientService
	catalog       *CatalogService
	opportunities *OpportunityService
	tasks         *TaskService
}

func (c serviceCreator) CreateClient(ctx context.Context, req *domain.CreateClientRequest) error {
	_, err := c.clients.Create(ctx, req)
	return err
}

func (c serviceCreator) CreateService(ctx context.Context, req *domain.CreateServiceRequest) error {
	_, err := c.catalog.Create(ctx, req)
	return err
}

func (c serviceCreator) CreateOpportunity(ctx context.Context, req *domain.CreateOpportunityRequest) error {
	_, err := c.opportunities.Create(ctx, req)
	return err
}

func (c serviceCreator) CreateTask(ctx context.Context, req *domain.CreateTaskRequest) error {
	_, err := c.tasks.Create(ctx, req)
	return err
}

var _ RecordCreator = serviceCreator{}
