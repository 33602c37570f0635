package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/wondrlab/crosssell-api/internal/config"
	"github.com/wondrlab/crosssell-api/internal/logger"
	"github.com/wondrlab/crosssell-api/migrations"
	"go.uber.org/zap"
)

const usage = "usage: migrate up|down|status|version|create <name>"

// sourceDir receives files from create. Every other command reads the
// migrations embedded in the binary.
const sourceDir = "migrations"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func parseCommand(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, errors.New(usage)
	}
	switch args[0] {
	case "up", "down", "status", "version":
		return args[0], args[1:], nil
	case "create":
		if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
			return "", nil, errors.New("create requires a migration name")
		}
		return args[0], args[1:], nil
	}
	return "", nil, fmt.Errorf("unknown command %q, %s", args[0], usage)
}

func run(args []string) error {
	command, rest, err := parseCommand(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	goose.SetLogger(gooseLogger{log: log})

	if command == "create" {
		goose.SetBaseFS(nil)
		if err := goose.Create(nil, sourceDir, rest[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		return nil
	}

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	log.Info("Running migrations",
		zap.String("command", command),
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name),
	)

	switch command {
	case "up":
		err = goose.UpContext(ctx, db, ".")
	case "down":
		err = goose.DownContext(ctx, db, ".")
	case "status":
		err = goose.StatusContext(ctx, db, ".")
	case "version":
		err = goose.VersionContext(ctx, db, ".")
	}
	if err != nil {
		return fmt.Errorf("migrate %s failed: %w", command, err)
	}

	log.Info("Migrations finished", zap.String("command", command))
	return nil
}

// gooseLogger routes goose output through zap
type gooseLogger struct {
	log *zap.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
