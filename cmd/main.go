package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"streamfusion/cache"
	"streamfusion/config"
	"streamfusion/logging"
	"streamfusion/metadata"
	"streamfusion/storage"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "streamfusion",
	Short:         "StreamFusion - streaming catalog server",
	Long:          "StreamFusion serves a movie and series catalog, plays its sources and runs the admin back office.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called before every command)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger = logging.Setup(cfg.Environment, cfg.LogLevel)
	return nil
}

// openStorage opens the database and applies pending migrations.
func openStorage() (*storage.SQLiteStorage, error) {
	store := storage.NewSQLiteStorage(cfg.DataPath, logger)
	if err := store.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// newImporter wires the TMDB client, with Redis caching when configured.
func newImporter(store metadata.ContentSaver) (*metadata.Importer, *cache.Cache) {
	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisAddr = cfg.RedisAddr
	cacheCfg.RedisPassword = cfg.RedisPassword
	cacheCfg.RedisDB = cfg.RedisDB
	c := cache.New(cacheCfg, logger)

	tmdb := metadata.NewTMDBClient(metadata.Config{
		APIKey:   cfg.TMDBAPIKey,
		BaseURL:  cfg.TMDBBaseURL,
		Language: cfg.TMDBLanguage,
	}, c, nil, logger)
	return metadata.NewImporter(tmdb, store, logger), c
}
