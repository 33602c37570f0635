package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/wondrlab/crosssell-api/internal/csvtransform"
	"github.com/wondrlab/crosssell-api/internal/service"
)

func newExportCmd(a *app) *cobra.Command {
	var mode, output string

	cmd := &cobra.Command{
		Use:   "export <entity>",
		Short: "Download every record of an entity as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := csvtransform.ParseEntity(args[0])
			if err != nil {
				return err
			}
			if _, err := service.ParseExportMode(mode); err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			data, err := c.Export(cmd.Context(), entity, mode)
			if err != nil {
				return err
			}
			if output == "" {
				output = service.ExportFilename(entity, time.Now())
			}
			return writeOutput(cmd.OutOrStdout(), output, data)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "import", "column layout: import or display")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	return cmd
}

func newTemplateCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template <entity>",
		Short: "Download the header-only import template for an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := csvtransform.ParseEntity(args[0])
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			data, err := c.Template(cmd.Context(), entity)
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("%s_template.csv", entity)
			}
			return writeOutput(cmd.OutOrStdout(), output, data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	return cmd
}

func newMatrixCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Download the client by service matrix as an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			data, err := c.ExportMatrix(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("crosssell_matrix_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
			}
			return writeOutput(cmd.OutOrStdout(), output, data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	return cmd
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "Wrote %s (%d bytes)\n", path, len(data))
	return nil
}
