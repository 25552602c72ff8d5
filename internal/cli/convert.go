package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/video-stream/transcript-studio/internal/storage"
	"github.com/video-stream/transcript-studio/internal/subtitle"
)

type convertOptions struct {
	format string
	to     []string
	title  string
	url    string
	author string
	outDir string
}

// runConvert renders a transcript file into the requested formats and
// returns the written paths. A format that fails to render does not stop
// the others.
func runConvert(fs afero.Fs, out io.Writer, path string, opts convertOptions) ([]string, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	var format subtitle.Format
	if opts.format != "" {
		format, err = subtitle.ParseFormat(opts.format)
	} else {
		format, err = subtitle.DetectFormat(path, content)
	}
	if err != nil {
		return nil, err
	}

	t, err := subtitle.Parse(string(content), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if opts.title != "" {
		t.Metadata.Title = opts.title
	}
	if t.Metadata.Title == "" {
		t.Metadata.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if opts.url != "" {
		t.Metadata.SourceURL = opts.url
	}
	if opts.author != "" {
		t.Metadata.Author = opts.author
	}

	targets := subtitle.Formats
	if len(opts.to) > 0 {
		targets = make([]subtitle.Format, 0, len(opts.to))
		for _, tag := range opts.to {
			f, err := subtitle.ParseFormat(tag)
			if err != nil {
				return nil, err
			}
			targets = append(targets, f)
		}
	}

	if err := fs.MkdirAll(opts.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	name := storage.PascalName(t.Metadata.Title)
	var written []string
	var errs []error
	for _, f := range targets {
		rendered, err := subtitle.Render(t, f)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
			continue
		}
		dst := filepath.Join(opts.outDir, name+f.Extension())
		if err := afero.WriteFile(fs, dst, []byte(rendered), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
			continue
		}
		written = append(written, dst)
		fmt.Fprintln(out, dst)
	}
	return written, errors.Join(errs...)
}

// NewConvertCommand creates the 'convert' command.
func NewConvertCommand(fs afero.Fs) *cobra.Command {
	var opts convertOptions
	cmd := &cobra.Command{
		Use:     "convert [file]",
		Example: "$ transcript-studio convert talk.srt --to vtt,html --title \"My Talk\"",
		Short:   "Convert a TXT, SRT, VTT or HTML transcript into other formats",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runConvert(fs, cmd.OutOrStdout(), args[0], opts)
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "input format (detected from the file when empty)")
	cmd.Flags().StringSliceVar(&opts.to, "to", nil, "output formats (default all)")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "transcript title")
	cmd.Flags().StringVar(&opts.url, "url", "", "source video URL")
	cmd.Flags().StringVar(&opts.author, "author", "", "source video author")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	return cmd
}
