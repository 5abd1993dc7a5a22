package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "migrations"

// MigrationManager applies the embedded schema migrations with goose.
// goose keeps its settings in package state, so Initialize points it at
// this manager's logger and filesystem before every run.
type MigrationManager struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMigrationManager(db *sql.DB, logger zerolog.Logger) *MigrationManager {
	return &MigrationManager{
		db:     db,
		logger: logger.With().Str("component", "migrations").Logger(),
	}
}

// gooseLogger routes goose's printf-style output into zerolog.
type gooseLogger struct {
	logger zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (m *MigrationManager) Initialize() error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{logger: m.logger})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

func (m *MigrationManager) Up() error {
	if err := goose.Up(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	m.logger.Debug().Msg("schema is up to date")
	return nil
}

func (m *MigrationManager) Down() error {
	if err := goose.Down(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	m.logger.Info().Msg("rolled back one migration")
	return nil
}

// Status prints the applied and pending migrations through the logger.
func (m *MigrationManager) Status() error {
	if err := goose.Status(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	return nil
}

func (m *MigrationManager) Version() (int64, error) {
	version, err := goose.GetDBVersion(m.db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Reset rolls back every migration, leaving an empty schema.
func (m *MigrationManager) Reset() error {
	if err := goose.Reset(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to reset schema: %w", err)
	}
	m.logger.Warn().Msg("all migrations rolled back")
	return nil
}
