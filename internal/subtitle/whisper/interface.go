package whisper

import (
	"context"

	"github.com/video-stream/transcript-studio/internal/subtitle"
)

// TranscribeRequest is the input for a transcription
type TranscribeRequest struct {
	FilePath string // absolute path to the media file
	Language string // "auto", "en", "es", etc.
	Model    string // model size for local engines ("tiny" ... "large"), ignored by hosted ones
}

// TranscribeResult is the output of a transcription
type TranscribeResult struct {
	Transcript *subtitle.Transcript
	Language   string // detected language, or the requested one
}

// ProgressFunc receives a completion fraction in [0, 1].
type ProgressFunc func(float64)

// Transcriber is the common interface for all whisper engines
type Transcriber interface {
	// Transcribe converts audio/video to timed segments
	Transcribe(ctx context.Context, req TranscribeRequest, updateProgress ProgressFunc) (*TranscribeResult, error)
	// Name returns the engine name
	Name() string
}

// extractFunc writes the audio track of a media file to a temporary file and
// returns its path.
type extractFunc func(ctx context.Context, mediaPath string) (string, error)
