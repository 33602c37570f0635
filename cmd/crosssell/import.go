package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/wondrlab/crosssell-api/internal/csvtransform"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"go.uber.org/zap"
)

// api is the part of the API client the import loop needs
type api interface {
	Lookups(ctx context.Context) (*domain.Lookups, error)
	CreateClient(ctx context.Context, req *domain.CreateClientRequest) (*domain.ClientDTO, error)
	CreateService(ctx context.Context, req *domain.CreateServiceRequest) (*domain.ServiceDTO, error)
	CreateOpportunity(ctx context.Context, req *domain.CreateOpportunityRequest) (*domain.OpportunityDTO, error)
	CreateTask(ctx context.Context, req *domain.CreateTaskRequest) (*domain.TaskDTO, error)
}

// importer runs the client-side import: parse, validate, resolve names against
// the server's lookups, then create one record per row in order
type importer struct {
	api    api
	opts   csvtransform.Options
	logger *zap.Logger
}

func (im *importer) run(ctx context.Context, entity csvtransform.Entity, data []byte) (*service.ImportResult, error) {
	file, err := service.ParseImport(entity, data)
	if err != nil {
		return nil, err
	}

	lookups, err := im.api.Lookups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lookups: %w", err)
	}
	return file.CreateRows(ctx, *lookups, im.opts, apiCreator{api: im.api}, im.logger)
}

// apiCreator sends import rows to the API one request at a time
type apiCreator struct {
	api api
}

func (c apiCreator) CreateClient(ctx context.Context, req *domain.CreateClientRequest) error {
	_, err := c.api.CreateClient(ctx, req)
	return err
}

func (c apiCreator) CreateService(ctx context.Context, req *domain.CreateServiceRequest) error {
	_, err := c.api.CreateService(ctx, req)
	return err
}

func (c apiCreator) CreateOpportunity(ctx context.Context, req *domain.CreateOpportunityRequest) error {
	_, err := c.api.CreateOpportunity(ctx, req)
	return err
}

func (c apiCreator) CreateTask(ctx context.Context, req *domain.CreateTaskRequest) error {
	_, err := c.api.CreateTask(ctx, req)
	return err
}

func newImportCmd(a *app) *cobra.Command {
	var (
		serverSide            bool
		fallbackUserID        uint
		fallbackOpportunityID uint
	)

	cmd := &cobra.Command{
		Use:   "import <entity> <file>",
		Short: "Import clients, services, opportunities or tasks from a CSV or XLSX file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := csvtransform.ParseEntity(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[1], err)
			}

			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}

			var result *service.ImportResult
			if serverSide {
				result, err = c.Import(ctx, entity, filepath.Base(args[1]), bytes.NewReader(data))
			} else {
				im := &importer{
					api: c,
					opts: csvtransform.Options{
						Now:                   time.Now(),
						FallbackUserID:        fallbackUserID,
						FallbackOpportunityID: fallbackOpportunityID,
					},
					logger: a.logger,
				}
				result, err = im.run(ctx, entity, data)
			}
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&serverSide, "server", false, "upload the file and let the API run the import")
	cmd.Flags().UintVar(&fallbackUserID, "fallback-user-id", 1, "owner or assignee for rows without a resolvable user")
	cmd.Flags().UintVar(&fallbackOpportunityID, "fallback-opportunity-id", 1, "opportunity for tasks when none exist")
	return cmd
}

func printResult(w io.Writer, result *service.ImportResult) {
	fmt.Fprintf(w, "Imported %d of %d %s\n", result.Succeeded, result.Attempted, result.Entity)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  row %d: %s\n", e.Row, e.Message)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	if result.ArchivePath != "" {
		fmt.Fprintf(w, "Archived as %s\n", result.ArchivePath)
	}
}
