package whisper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/ffmpeg"
	"github.com/video-stream/transcript-studio/internal/subtitle"
)

const (
	openAITranscriptionURL = "https://api.openai.com/v1/audio/transcriptions"
	maxOpenAIFileSize      = 25 * 1024 * 1024 // 25MB limit
	openAIChunkSeconds     = 600
)

type splitFunc func(ctx context.Context, audioPath, dir string, segmentSeconds int) ([]string, error)

// OpenAIWhisperClient uses the OpenAI Whisper API
type OpenAIWhisperClient struct {
	apiKey      string
	url         string
	httpClient  *http.Client
	extract     extractFunc
	split       splitFunc
	maxFileSize int64
	logger      *zap.Logger
}

func NewOpenAIWhisperClient(apiKey string, logger *zap.Logger) *OpenAIWhisperClient {
	return &OpenAIWhisperClient{
		apiKey: apiKey,
		url:    openAITranscriptionURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
		extract:     ffmpeg.ExtractMP3,
		split:       ffmpeg.SplitAudio,
		maxFileSize: maxOpenAIFileSize,
		logger:      logger.Named("openai"),
	}
}

func (c *OpenAIWhisperClient) Name() string {
	return "openai"
}

func (c *OpenAIWhisperClient) Transcribe(ctx context.Context, req TranscribeRequest, updateProgress ProgressFunc) (*TranscribeResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	// MP3 is much smaller than WAV for upload
	updateProgress(0.05)
	audioPath, err := c.extract(ctx, req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	defer os.Remove(audioPath)

	updateProgress(0.1)

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, err
	}

	var t *subtitle.Transcript
	if info.Size() > c.maxFileSize {
		t, err = c.transcribeChunked(ctx, audioPath, req.Language, updateProgress)
	} else {
		updateProgress(0.2)
		t, err = c.transcribeSingle(ctx, audioPath, req.Language)
	}
	if err != nil {
		return nil, err
	}

	updateProgress(0.95)
	return &TranscribeResult{Transcript: t, Language: req.Language}, nil
}

func (c *OpenAIWhisperClient) transcribeSingle(ctx context.Context, audioPath, language string) (*subtitle.Transcript, error) {
	fields := map[string]string{
		"model":           "whisper-1",
		"response_format": "vtt",
	}
	if lang := languageField(language); lang != "" {
		fields["language"] = lang
	}
	body, contentType, err := audioForm(audioPath, fields)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Info("sending request", zap.String("audio", audioPath))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return parseVTTResponse(respBody)
}

// transcribeChunked splits a large audio file into 10-minute chunks,
// transcribes each and shifts chunk i by i*600 seconds before concatenating.
func (c *OpenAIWhisperClient) transcribeChunked(ctx context.Context, audioPath, language string, updateProgress ProgressFunc) (*subtitle.Transcript, error) {
	chunkDir, err := os.MkdirTemp("", "whisper-chunks-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(chunkDir)

	chunks, err := c.split(ctx, audioPath, chunkDir, openAIChunkSeconds)
	if err != nil {
		return nil, err
	}

	updateProgress(0.15)
	c.logger.Info("transcribing in chunks", zap.Int("chunks", len(chunks)))

	var segments []subtitle.Segment
	for i, chunk := range chunks {
		updateProgress(0.15 + (0.75 * float64(i) / float64(len(chunks))))

		part, err := c.transcribeSingle(ctx, chunk, language)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		segments = append(segments, part.Shift(float64(i*openAIChunkSeconds)).Segments...)
	}

	return subtitle.New(segments, subtitle.Metadata{})
}
