// Command crosssell drives CSV import and export against a running cross-sell API.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wondrlab/crosssell-api/internal/client"
	"github.com/wondrlab/crosssell-api/internal/config"
	"github.com/wondrlab/crosssell-api/internal/logger"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the settings shared by every subcommand
type app struct {
	v      *viper.Viper
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "crosssell",
		Short:         "Import and export cross-sell data through the API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.NewLogger(
				&config.LoggingConfig{Level: a.v.GetString("log-level"), Format: "console"},
				&config.AppConfig{Name: "crosssell-cli", Environment: "development"},
			)
			if err != nil {
				return err
			}
			a.logger = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.String("url", "http://localhost:8080", "API base URL")
	flags.String("token", "", "bearer token")
	flags.String("api-key", "", "system API key (sent as x-api-key)")
	flags.String("username", "", "log in with this username when no token or API key is set")
	flags.String("password", "", "password for --username")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	a.v.SetEnvPrefix("CROSSSELL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		newImportCmd(a),
		newExportCmd(a),
		newTemplateCmd(a),
		newMatrixCmd(a),
	)
	return root
}

// client builds an API client, logging in first when only credentials are given
func (a *app) client(ctx context.Context) (*client.Client, error) {
	opts := []client.Option{client.WithLogger(a.logger)}
	if key := a.v.GetString("api-key"); key != "" {
		opts = append(opts, client.WithAPIKey(key))
	} else if token := a.v.GetString("token"); token != "" {
		opts = append(opts, client.WithToken(token))
	}
	c := client.New(a.v.GetString("url"), opts...)

	if a.v.GetString("api-key") == "" && a.v.GetString("token") == "" {
		username := a.v.GetString("username")
		if username == "" {
			return nil, fmt.Errorf("no credentials: set --api-key, --token or --username")
		}
		if _, err := c.Login(ctx, username, a.v.GetString("password")); err != nil {
			return nil, fmt.Errorf("failed to log in: %w", err)
		}
		a.logger.Debug("logged in", zap.String("username", username))
	}
	return c, nil
}
