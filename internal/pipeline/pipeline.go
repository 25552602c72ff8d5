package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/ffmpeg"
	"github.com/video-stream/transcript-studio/internal/storage"
	"github.com/video-stream/transcript-studio/internal/subtitle"
	"github.com/video-stream/transcript-studio/internal/subtitle/whisper"
	"github.com/video-stream/transcript-studio/internal/youtube"
)

const previewLength = 500

// Where the segments of a result came from.
const (
	SourceWhisper  = "whisper"
	SourceCaptions = "captions"
	SourceConvert  = "convert"
	SourceEdit     = "edit"
)

// Engines runs speech recognition on a media file.
type Engines interface {
	Transcribe(ctx context.Context, engineName string, req whisper.TranscribeRequest, updateProgress whisper.ProgressFunc) (*whisper.TranscribeResult, error)
}

// VideoSource fetches metadata, captions and audio for online videos.
type VideoSource interface {
	Metadata(ctx context.Context, videoURL string) (*youtube.VideoInfo, error)
	Captions(ctx context.Context, videoURL, dir string) (*subtitle.Transcript, error)
	Audio(ctx context.Context, videoURL, dir string) (string, error)
}

type probeFunc func(path string) (*ffmpeg.MediaInfo, error)

// Result is returned by every flow and stored as the job result.
type Result struct {
	JobID    string                     `json:"job_id"`
	Title    string                     `json:"title"`
	Source   string                     `json:"source"`
	Engine   string                     `json:"engine,omitempty"`
	Language string                     `json:"language,omitempty"`
	Files    map[subtitle.Format]string `json:"files"`
	Errors   map[subtitle.Format]string `json:"errors,omitempty"`
	Preview  string                     `json:"preview"`
	FullText string                     `json:"full_text"`
	Lines    []string                   `json:"lines"`
	Duration float64                    `json:"duration"`
	Segments int                        `json:"segments"`
}

// Service turns media, videos and uploaded transcripts into stored
// artifacts in every format.
type Service struct {
	engines Engines
	videos  VideoSource
	store   *storage.Store
	probe   probeFunc
	logger  *zap.Logger
}

func NewService(engines Engines, videos VideoSource, store *storage.Store, logger *zap.Logger) *Service {
	return &Service{
		engines: engines,
		videos:  videos,
		store:   store,
		probe:   ffmpeg.Probe,
		logger:  logger.Named("pipeline"),
	}
}

// MediaRequest describes an uploaded audio or video file.
type MediaRequest struct {
	JobID     string
	FilePath  string
	Title     string
	SourceURL string
	Author    string
	Engine    string
	Model     string
	Language  string
}

// TranscribeMedia probes the file, runs the speech engine and stores the
// rendered artifacts under the job id.
func (s *Service) TranscribeMedia(ctx context.Context, req MediaRequest, updateProgress func(float64)) (*Result, error) {
	progress := progressOrNop(updateProgress)

	info, err := s.probe(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("probe media: %w", err)
	}
	progress(0.05)

	res, err := s.engines.Transcribe(ctx, req.Engine, whisper.TranscribeRequest{
		FilePath: req.FilePath,
		Language: req.Language,
		Model:    req.Model,
	}, scaled(progress, 0.05, 0.9))
	if err != nil {
		return nil, err
	}

	t := res.Transcript
	t.Metadata = subtitle.Metadata{
		Title:     firstNonEmpty(req.Title, info.Title, titleFromFilename(req.FilePath)),
		SourceURL: req.SourceURL,
		Author:    firstNonEmpty(req.Author, info.Artist),
		Language:  detectedLanguage(res.Language),
	}
	progress(0.9)

	result, err := s.finish(ctx, req.JobID, t, SourceWhisper)
	if err != nil {
		return nil, err
	}
	result.Engine = req.Engine
	return result, nil
}

// YouTubeRequest describes a video to transcribe.
type YouTubeRequest struct {
	JobID    string
	URL      string
	Engine   string
	Model    string
	Language string
}

// TranscribeYouTube uses the video's captions when it has any and falls
// back to downloading the audio and running the speech engine.
func (s *Service) TranscribeYouTube(ctx context.Context, req YouTubeRequest, updateProgress func(float64)) (*Result, error) {
	progress := progressOrNop(updateProgress)

	if !youtube.IsYouTubeURL(req.URL) {
		return nil, fmt.Errorf("%w: %s", youtube.ErrNotYouTube, req.URL)
	}
	info, err := s.videos.Metadata(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("video metadata: %w", err)
	}
	progress(0.05)

	dir, err := s.store.ScratchDir("youtube")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.store.RemoveStaged(dir); err != nil {
			s.logger.Warn("failed to remove scratch dir", zap.String("dir", dir), zap.Error(err))
		}
	}()

	source := SourceCaptions
	language := ""
	t, err := s.videos.Captions(ctx, req.URL, dir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("captions unavailable, using speech engine", zap.String("url", req.URL), zap.Error(err))
		t = nil
	}

	if t == nil {
		source = SourceWhisper
		audio, err := s.videos.Audio(ctx, req.URL, dir)
		if err != nil {
			return nil, fmt.Errorf("download audio: %w", err)
		}
		progress(0.2)

		res, err := s.engines.Transcribe(ctx, req.Engine, whisper.TranscribeRequest{
			FilePath: audio,
			Language: req.Language,
			Model:    req.Model,
		}, scaled(progress, 0.2, 0.9))
		if err != nil {
			return nil, err
		}
		t = res.Transcript
		language = detectedLanguage(res.Language)
	}
	progress(0.9)

	t.Metadata = subtitle.Metadata{
		Title:     firstNonEmpty(info.Title, "YouTube "+info.ID),
		SourceURL: firstNonEmpty(info.URL, req.URL),
		Author:    info.Author,
		Language:  language,
	}

	result, err := s.finish(ctx, req.JobID, t, source)
	if err != nil {
		return nil, err
	}
	if source == SourceWhisper {
		result.Engine = req.Engine
	}
	return result, nil
}

// ConvertRequest is an uploaded transcript to convert into every format.
type ConvertRequest struct {
	Filename  string
	Content   []byte
	Format    subtitle.Format // detected from Filename and Content when empty
	Title     string
	SourceURL string
	Author    string
}

// Convert parses an uploaded transcript and stores it in every format
// under a new job id.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*Result, error) {
	format := req.Format
	if format == "" {
		detected, err := subtitle.DetectFormat(req.Filename, req.Content)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	t, err := subtitle.Parse(string(req.Content), format)
	if err != nil {
		return nil, err
	}

	t.Metadata.Title = firstNonEmpty(req.Title, t.Metadata.Title, titleFromFilename(req.Filename))
	t.Metadata.SourceURL = firstNonEmpty(req.SourceURL, t.Metadata.SourceURL)
	t.Metadata.Author = firstNonEmpty(req.Author, t.Metadata.Author)

	s.logger.Info("converting transcript",
		zap.String("file", req.Filename),
		zap.String("format", string(format)),
		zap.Int("segments", t.Len()))

	return s.finish(ctx, uuid.New().String(), t, SourceConvert)
}

// EditRequest carries the edited full text for a stored transcript. Empty
// metadata fields keep the stored values.
type EditRequest struct {
	JobID     string
	Text      string
	Title     string
	SourceURL string
	Author    string
}

// Edit applies edited text to a stored transcript and re-renders every
// format. When the text does not line up with the segments the stored
// artifacts are left untouched and ErrEditMismatch is returned.
func (s *Service) Edit(ctx context.Context, req EditRequest) (*Result, error) {
	html, err := s.store.ReadArtifact(req.JobID, subtitle.FormatHTML)
	if err != nil {
		return nil, err
	}
	t, err := subtitle.ParseHTML(html)
	if err != nil {
		return nil, fmt.Errorf("load stored transcript: %w", err)
	}

	edited, err := subtitle.ApplyEdit(t, req.Text)
	if err != nil {
		return nil, err
	}
	edited.Metadata.Title = firstNonEmpty(req.Title, edited.Metadata.Title)
	edited.Metadata.SourceURL = firstNonEmpty(req.SourceURL, edited.Metadata.SourceURL)
	edited.Metadata.Author = firstNonEmpty(req.Author, edited.Metadata.Author)

	return s.finish(ctx, req.JobID, edited, SourceEdit)
}

// Files lists the stored artifacts of a job.
func (s *Service) Files(jobID string) ([]storage.FileEntry, error) {
	return s.store.List(jobID)
}

func (s *Service) finish(ctx context.Context, jobID string, t *subtitle.Transcript, source string) (*Result, error) {
	if t.Metadata.Title == "" {
		t.Metadata.Title = storage.DefaultName
	}

	m, err := s.store.Save(ctx, jobID, t.Metadata.Title, subtitle.RenderAll(t))
	if err != nil {
		return nil, fmt.Errorf("save artifacts: %w", err)
	}

	full := t.FullText()
	return &Result{
		JobID:    jobID,
		Title:    t.Metadata.Title,
		Source:   source,
		Language: t.Metadata.Language,
		Files:    m.Files,
		Errors:   m.Errors,
		Preview:  preview(full),
		FullText: full,
		Lines:    t.Texts(),
		Duration: t.TotalDuration(),
		Segments: t.Len(),
	}, nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	return string([]rune(text)[:previewLength]) + "..."
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func detectedLanguage(lang string) string {
	if lang == "auto" {
		return ""
	}
	return lang
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func progressOrNop(fn func(float64)) func(float64) {
	if fn == nil {
		return func(float64) {}
	}
	return fn
}

// scaled maps an engine's 0..1 progress into [from, to] of the job.
func scaled(fn func(float64), from, to float64) whisper.ProgressFunc {
	return func(p float64) {
		fn(from + p*(to-from))
	}
}
