package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/davidleathers/laborboard/internal/infrastructure/config"
	"github.com/davidleathers/laborboard/internal/infrastructure/database"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	var (
		action      = fs.String("action", "up", "Migration action: up, down, version")
		steps       = fs.Int("steps", 0, "Number of migrations to run (0 = all)")
		configPath  = fs.String("config", config.DefaultConfigPath, "Path to configuration file")
		databaseURL = fs.String("database-url", "", "Overrides database.url from the configuration")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps < 0 {
		return fmt.Errorf("steps must not be negative")
	}

	url := *databaseURL
	if url == "" {
		cfg, err := config.LoadFile(*configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		url = cfg.Database.URL
	}
	if url == "" {
		return fmt.Errorf("database url is not configured")
	}

	var (
		status database.MigrationStatus
		err    error
	)
	switch *action {
	case database.MigrateUp, database.MigrateDown:
		status, err = database.Migrate(url, *action, *steps)
		if err == nil {
			slog.Info("migrations applied", "action", *action, "steps", *steps, "version", status.Version)
		}
	case "version":
		status, err = database.MigrationVersion(url)
	default:
		return fmt.Errorf("unknown action %q", *action)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "version=%d dirty=%t\n", status.Version, status.Dirty)
	return nil
}
