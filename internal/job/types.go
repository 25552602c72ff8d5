package job

import (
	"context"
	"encoding/json"
	"time"
)

// JobType represents the kind of job
type JobType string

const (
	JobTranscribeMedia   JobType = "transcribe_media"
	JobTranscribeYouTube JobType = "transcribe_youtube"
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the job will not change state without a retry.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Job represents a queued transcription
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Status      JobStatus       `json:"status"`
	FilePath    string          `json:"file_path"`
	Params      json.RawMessage `json:"params"`
	Progress    float64         `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// TranscribeParams are parameters for transcribing an uploaded media file
type TranscribeParams struct {
	Engine   string `json:"engine"`   // "whisper.cpp", "openvino-genai", "openai", "assemblyai"
	Model    string `json:"model"`    // "tiny", "base", "small", "medium", "large-v3"
	Language string `json:"language"` // "auto", "en", "es", etc.
	Title    string `json:"title"`    // defaults to the upload's file name
}

// YouTubeParams are parameters for transcribing a YouTube video
type YouTubeParams struct {
	URL      string `json:"url"`
	Engine   string `json:"engine"`
	Model    string `json:"model"`
	Language string `json:"language"`
}

// JobHandler processes a job and returns a JSON-encodable result that is
// stored on completion. Implementations are provided by the pipeline.
type JobHandler func(ctx context.Context, job *Job, updateProgress func(float64)) (any, error)
