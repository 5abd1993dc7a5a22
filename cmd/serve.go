package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"streamfusion/api"
	"streamfusion/auth"
	"streamfusion/events"
	"streamfusion/messaging"
	"streamfusion/notifier"
	"streamfusion/scheduler"
	"streamfusion/scraper"
)

var runJobsAtStartup bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the background jobs",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&runJobsAtStartup, "run-jobs", false, "Run the source check once at startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Info().Str("environment", cfg.Environment).Msg("StreamFusion starting")

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	bus := events.NewBus()
	importer, redisCache := newImporter(store)
	defer redisCache.Close()

	msgs := messaging.NewService(store, bus, logger)
	a := api.New(api.Deps{
		Store:     store,
		Auth:      auth.NewService(store, cfg.SigningKey(), cfg.JWTTTL, cfg.AdminBootstrapEmail, logger),
		Messages:  msgs,
		Importer:  importer,
		Bus:       bus,
		JWTSecret: cfg.SigningKey(),
		Logger:    logger,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var mail *notifier.EmailNotifier
	if cfg.EmailEnabled() {
		mail = notifier.NewEmailNotifier(notifier.ConfigFromApp(cfg), logger)
		sub, unsubscribe := msgs.Subscribe()
		defer unsubscribe()
		go mail.WatchInbox(ctx, sub)
	} else {
		logger.Info().Msg("SMTP not configured, email notifications disabled")
	}

	sched := scheduler.NewScheduler(logger)
	if cfg.SchedulerEnabled {
		checkJob := scheduler.NewSourceCheckJob(store, scraper.NewSourceChecker(0, logger), bus, logger)
		if err := sched.AddJob(cfg.SourceCheckSchedule, checkJob); err != nil {
			return fmt.Errorf("failed to schedule source check: %w", err)
		}
		if mail != nil {
			if err := sched.AddJob(cfg.DigestSchedule, scheduler.NewDigestJob(store, mail, logger)); err != nil {
				return fmt.Errorf("failed to schedule digest: %w", err)
			}
		}
		sched.Start()
		defer sched.Stop()

		if runJobsAtStartup {
			go func() {
				if err := sched.RunJobNow(ctx, checkJob.Name()); err != nil {
					logger.Error().Err(err).Msg("startup source check failed")
				}
			}()
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	}

	logger.Info().Msg("shutting down gracefully...")
	stop()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("StreamFusion stopped")
	return nil
}
