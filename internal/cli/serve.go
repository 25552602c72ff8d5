package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/api"
	"github.com/video-stream/transcript-studio/internal/auth"
	"github.com/video-stream/transcript-studio/internal/config"
	"github.com/video-stream/transcript-studio/internal/db"
	"github.com/video-stream/transcript-studio/internal/job"
	"github.com/video-stream/transcript-studio/internal/pipeline"
	"github.com/video-stream/transcript-studio/internal/storage"
	"github.com/video-stream/transcript-studio/internal/subtitle/whisper"
	"github.com/video-stream/transcript-studio/internal/youtube"
)

const shutdownTimeout = 15 * time.Second

func NewServeCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Example: "$ transcript-studio serve",
		Short:   "Run the HTTP API and the transcription worker",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runServe(ctx, cfg, logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	logger.Info("admin user ensured", zap.String("username", cfg.AdminUsername))
	if cfg.GeneratedJWTSecret {
		logger.Warn("JWT_SECRET not set, using a random secret; sessions end on restart")
	}

	store, err := storage.New(afero.NewOsFs(), cfg.TranscriptPath, cfg.UploadPath, logger)
	if err != nil {
		return err
	}
	if cfg.MinIO.Enabled {
		mirror, err := storage.NewMinIOMirror(ctx, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("connect minio: %w", err)
		}
		store.SetMirror(mirror)
		logger.Info("mirroring artifacts", zap.String("endpoint", cfg.MinIO.Endpoint), zap.String("bucket", cfg.MinIO.Bucket))
	}

	engines := whisper.NewService(cfg.Whisper, logger)
	videos, err := youtube.NewClient(ctx, cfg.YouTube, logger)
	if err != nil {
		return err
	}
	pipe := pipeline.NewService(engines, videos, store, logger)

	queue := job.NewJobQueue(database.DB(), logger)
	pipe.RegisterHandlers(queue)
	queue.Start()
	defer queue.Stop()

	router := api.NewRouter(api.Deps{
		Config:   cfg,
		DB:       database,
		JWT:      auth.NewJWTService(cfg.JWTSecret),
		Queue:    queue,
		Store:    store,
		Pipeline: pipe,
		Engines:  engines,
		Logger:   logger,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("transcripts", cfg.TranscriptPath),
			zap.Strings("engines", engines.EngineNames()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
