package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"streamfusion/catalog"
)

// DatabaseFile is the SQLite file created under the data path.
const DatabaseFile = "streamfusion.db"

type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	dataPath string
	logger   zerolog.Logger
}

// ContentStore is the read side the HTTP layer and jobs depend on.
type ContentStore interface {
	SaveContent(ctx context.Context, item catalog.Item) error
	GetContent(ctx context.Context, id string) (catalog.Item, error)
	GetAllContent(ctx context.Context) ([]catalog.Item, error)
	GetContentBySection(ctx context.Context, section string) ([]catalog.Item, error)
	DeleteContent(ctx context.Context, id string) error
}

type StorageInterface interface {
	ContentStore
	Initialize() error
	Close() error
}

func NewSQLiteStorage(dataPath string, logger zerolog.Logger) *SQLiteStorage {
	return &SQLiteStorage{
		dbPath:   filepath.Join(dataPath, DatabaseFile),
		dataPath: dataPath,
		logger:   logger.With().Str("component", "storage").Logger(),
	}
}

func (s *SQLiteStorage) Initialize() error {
	if _, err := s.open(); err != nil {
		return err
	}

	migrationManager := NewMigrationManager(s.db, s.logger)
	if err := migrationManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	if err := migrationManager.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.logger.Info().Str("path", s.dbPath).Msg("SQLite database initialized")
	return nil
}

func (s *SQLiteStorage) open() (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	if err := os.MkdirAll(s.dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return db, nil
}

func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetDB opens the database without running migrations. The migrate command
// uses it to drive goose directly.
func (s *SQLiteStorage) GetDB() (*sql.DB, error) {
	return s.open()
}

// Path is the database file location.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

func (s *SQLiteStorage) GetMigrationManager() *MigrationManager {
	return NewMigrationManager(s.db, s.logger)
}

func (s *SQLiteStorage) GetDatabaseVersion() (int64, error) {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return 0, err
	}
	return migrationManager.Version()
}

func (s *SQLiteStorage) RunMigrations() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Up()
}

func (s *SQLiteStorage) RollbackMigration() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Down()
}

func (s *SQLiteStorage) MigrationStatus() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Status()
}

func (s *SQLiteStorage) ResetDatabase() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Reset()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
