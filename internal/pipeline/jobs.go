package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/job"
)

type handlerRegistry interface {
	RegisterHandler(jobType job.JobType, handler job.JobHandler)
}

// RegisterHandlers wires the transcription flows into the job queue.
func (s *Service) RegisterHandlers(q handlerRegistry) {
	q.RegisterHandler(job.JobTranscribeMedia, s.handleMediaJob)
	q.RegisterHandler(job.JobTranscribeYouTube, s.handleYouTubeJob)
}

// handleMediaJob removes the staged upload once the transcript is stored.
// Failed and cancelled jobs keep it so they can be retried.
func (s *Service) handleMediaJob(ctx context.Context, j *job.Job, updateProgress func(float64)) (any, error) {
	var p job.TranscribeParams
	if err := json.Unmarshal(j.Params, &p); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}

	result, err := s.TranscribeMedia(ctx, MediaRequest{
		JobID:    j.ID,
		FilePath: j.FilePath,
		Title:    p.Title,
		Engine:   p.Engine,
		Model:    p.Model,
		Language: p.Language,
	}, updateProgress)
	if err != nil {
		return nil, err
	}

	if err := s.store.RemoveStaged(j.FilePath); err != nil {
		s.logger.Warn("failed to remove upload", zap.String("path", j.FilePath), zap.Error(err))
	}
	return result, nil
}

func (s *Service) handleYouTubeJob(ctx context.Context, j *job.Job, updateProgress func(float64)) (any, error) {
	var p job.YouTubeParams
	if err := json.Unmarshal(j.Params, &p); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}

	return s.TranscribeYouTube(ctx, YouTubeRequest{
		JobID:    j.ID,
		URL:      p.URL,
		Engine:   p.Engine,
		Model:    p.Model,
		Language: p.Language,
	}, updateProgress)
}
