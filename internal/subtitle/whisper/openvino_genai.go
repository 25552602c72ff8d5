package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/ffmpeg"
)

const openVINOMaxRetries = 3

// ErrOutOfMemory is returned when the inference server runs out of GPU
// memory; retrying with the same model will not help.
var ErrOutOfMemory = errors.New("GPU out of memory, try a smaller model")

// OpenVINOGenAIClient talks to the OpenVINO GenAI WhisperPipeline server
type OpenVINOGenAIClient struct {
	baseURL    string
	httpClient *http.Client
	extract    extractFunc
	newBackOff func() backoff.BackOff
	logger     *zap.Logger
}

// NewOpenVINOGenAIClient creates a client for the OpenVINO GenAI whisper server
func NewOpenVINOGenAIClient(baseURL string, logger *zap.Logger) *OpenVINOGenAIClient {
	return &OpenVINOGenAIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Minute, // transcription can be very long
		},
		extract: ffmpeg.ExtractWAV,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 2 * time.Second
			bo.MaxInterval = 10 * time.Second
			return backoff.WithMaxRetries(bo, openVINOMaxRetries)
		},
		logger: logger.Named("openvino-genai"),
	}
}

func (c *OpenVINOGenAIClient) Name() string {
	return "openvino-genai"
}

// Transcribe sends the audio track to the OpenVINO GenAI server, retrying
// transient failures with exponential backoff.
func (c *OpenVINOGenAIClient) Transcribe(ctx context.Context, req TranscribeRequest, updateProgress ProgressFunc) (*TranscribeResult, error) {
	updateProgress(0.05)
	audioPath, err := c.extract(ctx, req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	defer os.Remove(audioPath)

	updateProgress(0.1)

	var result *TranscribeResult
	attempt := 0
	op := func() error {
		attempt++
		r, err := c.doSend(ctx, audioPath, req, updateProgress)
		if err == nil {
			result = r
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		c.logger.Warn("transient error", zap.Int("attempt", attempt), zap.Error(err))
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("openvino-genai server failed after %d attempts: %w", attempt, err)
	}
	return result, nil
}

func (c *OpenVINOGenAIClient) doSend(ctx context.Context, audioPath string, req TranscribeRequest, updateProgress ProgressFunc) (*TranscribeResult, error) {
	fields := map[string]string{"response_format": "vtt"}
	if lang := languageField(req.Language); lang != "" {
		fields["language"] = lang
	}
	if req.Model != "" {
		fields["model"] = req.Model
	}
	body, contentType, err := audioForm(audioPath, fields)
	if err != nil {
		return nil, err
	}

	updateProgress(0.15)

	// OpenAI-compatible endpoint
	url := c.baseURL + "/v1/audio/transcriptions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	c.logger.Info("sending request", zap.String("url", url), zap.String("audio", audioPath))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openvino-genai server request: %w", err)
	}
	defer resp.Body.Close()

	updateProgress(0.9)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyStr := string(respBody)
		if isOOMError(bodyStr) {
			return nil, fmt.Errorf("%w (status %d): %s", ErrOutOfMemory, resp.StatusCode, bodyStr)
		}
		return nil, &statusError{engine: "openvino-genai", code: resp.StatusCode, body: bodyStr}
	}

	t, err := parseVTTResponse(respBody)
	if err != nil {
		return nil, err
	}

	updateProgress(0.95)

	return &TranscribeResult{Transcript: t, Language: req.Language}, nil
}
