package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/config"
	"github.com/video-stream/transcript-studio/internal/logging"
)

// Allow override for testing.
var loadConfig = config.Load

// NewRootCommand returns the root command with all subcommands attached.
func NewRootCommand(ctx context.Context, fs afero.Fs) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "transcript-studio",
		Short: "Transcribe media and YouTube videos into TXT, SRT, VTT and HTML.",
		Long: `transcript-studio turns audio, video and YouTube links into timed transcripts
and renders them as plain text, SubRip, WebVTT and a styled HTML page. It runs
as an HTTP service with a job queue, or as one-off commands.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(NewServeCommand(ctx))
	rootCmd.AddCommand(NewConvertCommand(fs))
	rootCmd.AddCommand(NewTranscribeCommand(ctx))
	return rootCmd
}

// Execute runs the command line until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(ctx, afero.NewOsFs()).Execute(); err != nil {
		stop()
		os.Exit(1)
	}
}

func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
