package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wondrlab/crosssell-api/internal/config"
	"github.com/wondrlab/crosssell-api/internal/csvtransform"
	"github.com/wondrlab/crosssell-api/internal/storage"
	"go.uber.org/zap"
)

// ExportMode selects the CSV layout of an export
type ExportMode string

const (
	// ExportModeImport omits system and display columns so the file can be re-imported
	ExportModeImport ExportMode = "import"
	// ExportModeDisplay includes every column
	ExportModeDisplay ExportMode = "display"
)

// ParseExportMode validates a mode name. Empty means import.
func ParseExportMode(s string) (ExportMode, error) {
	switch ExportMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExportModeImport:
		return ExportModeImport, nil
	case ExportModeDisplay:
		return ExportModeDisplay, nil
	}
	return "", invalidInput("export mode must be one of: import, display")
}

// RowError is a per-row creation failure. Row is the spreadsheet line number.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes a bulk import
type ImportResult struct {
	Entity      csvtransform.Entity `json:"entity"`
	Attempted   int                 `json:"attempted"`
	Succeeded   int                 `json:"succeeded"`
	Failed      int                 `json:"failed"`
	Errors      []RowError          `json:"errors"`
	Warnings    []string            `json:"warnings"`
	ArchivePath string              `json:"archive_path,omitempty"`
}

// ValidationError refuses an import whose file failed validation. Nothing was written.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("import validation failed with %d error(s)", len(e.Errors))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ImportService runs CSV bulk import and export through the entity services
type ImportService struct {
	lookups       *LookupService
	clients       *ClientService
	catalog       *CatalogService
	opportunities *OpportunityService
	tasks         *TaskService
	store         storage.Storage
	cfg           *config.ImportConfig
	archive       bool
	logger        *zap.Logger
	now           func() time.Time
}

// NewImportService creates the service. store may be nil, which disables archiving.
func NewImportService(
	lookups *LookupService,
	clients *ClientService,
	catalog *CatalogService,
	opportunities *OpportunityService,
	tasks *TaskService,
	store storage.Storage,
	cfg *config.ImportConfig,
	archive bool,
	logger *zap.Logger,
) *ImportService {
	return &ImportService{
		lookups:       lookups,
		clients:       clients,
		catalog:       catalog,
		opportunities: opportunities,
		tasks:         tasks,
		store:         store,
		cfg:           cfg,
		archive:       archive && store != nil,
		logger:        logger,
		now:           time.Now,
	}
}

// Import parses and validates the file, then creates one record per row in
// order. Validation is all or nothing; creation is not transactional and a
// failing row is recorded without stopping the rest.
func (s *ImportService) Import(ctx context.Context, entity csvtransform.Entity, filename string, r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	file, err := ParseImport(entity, data)
	if err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			s.logger.Info("import refused by validation",
				zap.String("entity", string(entity)),
				zap.Int("errors", len(validation.Errors)),
			)
		}
		return nil, err
	}

	archivePath := s.archiveFile(ctx, storage.FolderImports, entity, filename, data)

	lookups, err := s.lookups.Get(ctx)
	if err != nil {
		return nil, err
	}

	creator := serviceCreator{
		clients:       s.clients,
		catalog:       s.catalog,
		opportunities: s.opportunities,
		tasks:         s.tasks,
	}
	result, err := file.CreateRows(ctx, *lookups, csvtransform.Options{
		Now:                   s.now(),
		FallbackUserID:        s.cfg.FallbackUserID,
		FallbackOpportunityID: s.cfg.FallbackOpportunityID,
	}, creator, s.logger)
	if err != nil {
		return nil, err
	}
	result.ArchivePath = archivePath

	s.logger.Info("import finished",
		zap.String("entity", string(entity)),
		zap.Int("attempted", result.Attempted),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// Export renders every record of the entity as CSV
func (s *ImportService) Export(ctx context.Context, entity csvtransform.Entity, mode ExportMode) (string, error) {
	rows, err := s.exportRows(ctx, entity)
	if err != nil {
		return "", err
	}

	var out string
	if mode == ExportModeDisplay {
		out = csvtransform.ExportToCSV(csvtransform.Headers(entity), rows)
	} else {
		out = csvtransform.ExportForImport(entity, rows)
	}

	s.archiveFile(ctx, storage.FolderExports, entity, ExportFilename(entity, s.now()), []byte(out))
	return out, nil
}

func (s *ImportService) exportRows(ctx context.Context, entity csvtransform.Entity) ([]csvtransform.Row, error) {
	var rows []csvtransform.Row
	switch entity {
	case csvtransform.EntityClients:
		clients, err := s.clients.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range clients {
			rows = append(rows, csvtransform.ClientRow(c))
		}
	case csvtransform.EntityServices:
		services, err := s.catalog.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, svc := range services {
			rows = append(rows, csvtransform.ServiceRow(svc))
		}
	case csvtransform.EntityOpportunities:
		opps, err := s.opportunities.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, o := range opps {
			rows = append(rows, csvtransform.OpportunityRow(o))
		}
	case csvtransform.EntityTasks:
		tasks, err := s.tasks.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			rows = append(rows, csvtransform.TaskRow(t))
		}
	default:
		return nil, invalidInput("unsupported entity type: %s", entity)
	}
	return rows, nil
}

// Template returns the header-only import file for the entity
func (s *ImportService) Template(entity csvtransform.Entity) string {
	return csvtransform.Template(entity)
}

// ExportFilename names a download, e.g. clients_2026-01-02.csv
func ExportFilename(entity csvtransform.Entity, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", entity, now.UTC().Format(dateLayout))
}

// archiveFile stores data when archiving is enabled and returns the key.
// Failures are logged and do not fail the caller.
func (s *ImportService) archiveFile(ctx context.Context, folder string, entity csvtransform.Entity, filename string, data []byte) string {
	if !s.archive {
		return ""
	}
	key := storage.ArchiveKey(folder, string(entity), filename, s.now())
	if _, err := s.store.Upload(ctx, key, storage.ContentTypeFor(filename), bytes.NewReader(data)); err != nil {
		s.logger.Warn("failed to archive file",
			zap.String("key", key),
			zap.Error(err),
		)
		return ""
	}
	return key
}
