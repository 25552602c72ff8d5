package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/config"
	"github.com/video-stream/transcript-studio/internal/pipeline"
	"github.com/video-stream/transcript-studio/internal/storage"
	"github.com/video-stream/transcript-studio/internal/subtitle"
	"github.com/video-stream/transcript-studio/internal/subtitle/whisper"
	"github.com/video-stream/transcript-studio/internal/youtube"
)

type transcribeOptions struct {
	engine   string
	model    string
	language string
	title    string
}

type transcriber interface {
	TranscribeMedia(ctx context.Context, req pipeline.MediaRequest, updateProgress func(float64)) (*pipeline.Result, error)
	TranscribeYouTube(ctx context.Context, req pipeline.YouTubeRequest, updateProgress func(float64)) (*pipeline.Result, error)
}

// runTranscribe transcribes a local media file or a YouTube URL and prints
// where the artifacts were stored.
func runTranscribe(ctx context.Context, p transcriber, out io.Writer, logger *zap.Logger, baseDir, input string, opts transcribeOptions) (*pipeline.Result, error) {
	jobID := uuid.New().String()
	progress := progressLogger(logger, jobID)

	var result *pipeline.Result
	var err error
	if youtube.IsYouTubeURL(input) {
		result, err = p.TranscribeYouTube(ctx, pipeline.YouTubeRequest{
			JobID:    jobID,
			URL:      input,
			Engine:   opts.engine,
			Model:    opts.model,
			Language: opts.language,
		}, progress)
	} else {
		path, absErr := filepath.Abs(input)
		if absErr != nil {
			return nil, absErr
		}
		result, err = p.TranscribeMedia(ctx, pipeline.MediaRequest{
			JobID:    jobID,
			FilePath: path,
			Title:    opts.title,
			Engine:   opts.engine,
			Model:    opts.model,
			Language: opts.language,
		}, progress)
	}
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "%s (%d segments, source %s)\n", result.Title, result.Segments, result.Source)
	for _, f := range subtitle.Formats {
		if name, ok := result.Files[f]; ok {
			fmt.Fprintln(out, filepath.Join(baseDir, result.JobID, name))
		}
	}
	for f, msg := range result.Errors {
		fmt.Fprintf(out, "%s failed: %s\n", f, msg)
	}
	return result, nil
}

// progressLogger logs every tenth of completed work.
func progressLogger(logger *zap.Logger, jobID string) func(float64) {
	last := -1
	return func(p float64) {
		step := int(math.Floor(p * 10))
		if step <= last {
			return
		}
		last = step
		logger.Info("progress", zap.String("job_id", jobID), zap.Int("percent", step*10))
	}
}

func newPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pipeline.Service, error) {
	store, err := storage.New(afero.NewOsFs(), cfg.TranscriptPath, cfg.UploadPath, logger)
	if err != nil {
		return nil, err
	}
	videos, err := youtube.NewClient(ctx, cfg.YouTube, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.NewService(whisper.NewService(cfg.Whisper, logger), videos, store, logger), nil
}

// NewTranscribeCommand creates the 'transcribe' command.
func NewTranscribeCommand(ctx context.Context) *cobra.Command {
	var opts transcribeOptions
	cmd := &cobra.Command{
		Use:     "transcribe [media file | YouTube URL]",
		Example: "$ transcript-studio transcribe lecture.mp4 --engine openai --language en",
		Short:   "Transcribe one file or video without the job queue",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if opts.model == "" {
				opts.model = cfg.Whisper.Model
			}
			if opts.language == "" {
				opts.language = cfg.Whisper.Language
			}

			p, err := newPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}
			_, err = runTranscribe(ctx, p, cmd.OutOrStdout(), logger, cfg.TranscriptPath, args[0], opts)
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.engine, "engine", "e", "", "speech engine (default from WHISPER_ENGINE)")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "model size for local engines")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "spoken language or auto")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "transcript title (media files only)")
	return cmd
}
