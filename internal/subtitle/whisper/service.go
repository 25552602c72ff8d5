package whisper

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/config"
)

var ErrUnknownEngine = errors.New("unknown whisper engine")

// Service holds the registered engines and picks one per request
type Service struct {
	engines       map[string]Transcriber
	defaultEngine string
	logger        *zap.Logger
}

// NewService registers every engine whose URL or key is configured
func NewService(cfg config.WhisperConfig, logger *zap.Logger) *Service {
	s := &Service{
		engines:       make(map[string]Transcriber),
		defaultEngine: cfg.Engine,
		logger:        logger.Named("whisper"),
	}

	if cfg.CppURL != "" {
		s.RegisterEngine(NewWhisperCppClient(cfg.CppURL, logger))
	}
	if cfg.OpenVINOURL != "" {
		s.RegisterEngine(NewOpenVINOGenAIClient(cfg.OpenVINOURL, logger))
	}
	if cfg.OpenAIKey != "" {
		s.RegisterEngine(NewOpenAIWhisperClient(cfg.OpenAIKey, logger))
	}
	if cfg.AssemblyAIKey != "" {
		s.RegisterEngine(NewAssemblyAIClient(cfg.AssemblyAIKey, logger))
	}

	if _, ok := s.engines[s.defaultEngine]; !ok && len(s.engines) > 0 {
		s.logger.Warn("default engine not configured",
			zap.String("engine", s.defaultEngine),
			zap.Strings("available", s.EngineNames()))
	}
	return s
}

// RegisterEngine adds or replaces an engine under its Name()
func (s *Service) RegisterEngine(engine Transcriber) {
	s.engines[engine.Name()] = engine
	s.logger.Info("registered engine", zap.String("engine", engine.Name()))
}

// Engine resolves name, falling back to the configured default when empty.
func (s *Service) Engine(name string) (Transcriber, error) {
	if name == "" {
		name = s.defaultEngine
	}
	engine, ok := s.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownEngine, name, s.EngineNames())
	}
	return engine, nil
}

// Transcribe runs req on the named engine.
func (s *Service) Transcribe(ctx context.Context, engineName string, req TranscribeRequest, updateProgress ProgressFunc) (*TranscribeResult, error) {
	engine, err := s.Engine(engineName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("starting transcription",
		zap.String("engine", engine.Name()),
		zap.String("file", req.FilePath),
		zap.String("language", req.Language),
		zap.String("model", req.Model))

	result, err := engine.Transcribe(ctx, req, updateProgress)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	if result.Language == "" {
		result.Language = "auto"
	}

	s.logger.Info("transcription complete",
		zap.String("engine", engine.Name()),
		zap.Int("segments", result.Transcript.Len()),
		zap.String("language", result.Language))
	return result, nil
}

// EngineNames lists the registered engines in sorted order
func (s *Service) EngineNames() []string {
	names := make([]string, 0, len(s.engines))
	for name := range s.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultEngine returns the engine used when a request names none.
func (s *Service) DefaultEngine() string {
	return s.defaultEngine
}
