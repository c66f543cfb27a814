package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/vinylbank/internal/api"
	"github.com/erazemk/vinylbank/internal/config"
	"github.com/erazemk/vinylbank/internal/db"
	"github.com/erazemk/vinylbank/internal/imaging"
	"github.com/erazemk/vinylbank/internal/upload"
)

func main() {
	cfg, err := config.NewConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger, closeLog, err := newLogger(cfg.Debug, cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	sugar := logger.Sugar()
	defer closeLog()

	if err := run(cfg, sugar); err != nil {
		sugar.Errorw("Server stopped", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Idempotent.
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	uploads, err := upload.New(cfg.UploadDir, cfg.UploadMaxBytes(), imaging.Resizer{MaxDimension: cfg.ImageMaxDimension})
	if err != nil {
		return err
	}

	router := api.NewRouter(database, uploads, api.Options{
		CORSOrigin:     cfg.CORSOrigin,
		ImportMaxBytes: cfg.ImportMaxBytes(),
	}, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infow("Starting server",
			"addr", cfg.Addr,
			"database", cfg.DatabasePath,
			"uploads", cfg.UploadDir,
			"cors_origin", cfg.CORSOrigin,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
