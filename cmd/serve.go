package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/akila/convert-api/converters"
	"github.com/akila/convert-api/handlers"
	"github.com/akila/convert-api/history"
	"github.com/akila/convert-api/storage"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP conversion API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Port = port
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides HOST)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	files := storage.NewManager(afero.NewOsFs(), cfg.UploadDir, cfg.OutputDir, cfg.MaxFileSize, logger)
	if age := cfg.SweepMaxAge(); age > 0 {
		if n := files.Sweep(age); n > 0 {
			logger.Info().Int("removed", n).Msg("swept leftover files")
		}
	}

	eng := newEngine(ctx, cfg, logger)
	defer eng.Close()

	var hist handlers.History
	if cfg.DatabaseURL != "" {
		store, err := history.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
		hist = store
		logger.Info().Str("driver", store.Driver()).Msg("conversion history enabled")
	}

	h := handlers.NewConversionHandler(eng.dispatcher, eng.dispatcher.Registry(), files, converters.Inspect, hist, logger)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigChan:
		case <-ctx.Done():
		}
		logger.Info().Msg("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
		cancel()
	}()

	logger.Info().
		Str("addr", server.Addr).
		Str("max_file_size", humanize.IBytes(uint64(cfg.MaxFileSize))).
		Str("soffice", eng.office.Binary()).
		Int("office_workers", eng.pool.Size()).
		Msg("server listening")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
