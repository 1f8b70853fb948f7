package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/riskibarqy/finboard/db/migrations"
	"github.com/riskibarqy/finboard/internal/config"
	"github.com/riskibarqy/finboard/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/finboard/internal/platform/logging"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.LoadMigration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel).With("component", "migration")
	defer func() {
		_ = logger.Sync()
	}()

	m, source, err := newMigrator(cfg)
	if err != nil {
		logger.Error("create migrator", "error", err)
		os.Exit(1)
	}
	m.Log = migrateLogger{logger: logger}
	defer closeMigrator(m, logger)

	logger.Info("running migration command", "command", cmd.name, "source", source)
	if err := run(m, cmd, logger, os.Stdout); err != nil {
		logger.Error("migration command failed", "command", cmd.name, "error", err)
		closeMigrator(m, logger)
		os.Exit(1)
	}
}

// newMigrator reads migrations from MIGRATIONS_DIR when set, otherwise from
// the copy embedded in the binary.
func newMigrator(cfg config.MigrationConfig) (*migrate.Migrate, string, error) {
	dbURL := postgres.NormalizeURL(cfg.DBURL, cfg.BinaryParameters)

	if cfg.Dir != "" {
		abs, err := filepath.Abs(cfg.Dir)
		if err != nil {
			return nil, "", fmt.Errorf("resolve MIGRATIONS_DIR: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return nil, "", fmt.Errorf("MIGRATIONS_DIR %q is not a directory", abs)
		}
		sourceURL := "file://" + filepath.ToSlash(abs)
		m, err := migrate.New(sourceURL, dbURL)
		return m, sourceURL, err
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, "", fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	return m, "embedded", err
}

func closeMigrator(m *migrate.Migrate, logger *logging.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration db", "error", dbErr)
	}
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down [n]|version|force <v>|goto <v>>\n", name)
	fmt.Fprintln(os.Stderr, "env: DB_URL (required), DB_BINARY_PARAMETERS, MIGRATIONS_DIR, LOG_LEVEL")
}
