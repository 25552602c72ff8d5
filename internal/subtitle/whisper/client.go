package whisper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/ffmpeg"
)

// WhisperCppClient talks to the whisper.cpp HTTP server (whisper-server)
type WhisperCppClient struct {
	baseURL    string
	httpClient *http.Client
	extract    extractFunc
	logger     *zap.Logger
}

// NewWhisperCppClient creates a client for the whisper.cpp server
func NewWhisperCppClient(baseURL string, logger *zap.Logger) *WhisperCppClient {
	return &WhisperCppClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Minute, // transcription can be very long
		},
		extract: ffmpeg.ExtractWAV,
		logger:  logger.Named("whisper.cpp"),
	}
}

func (c *WhisperCppClient) Name() string {
	return "whisper.cpp"
}

// Transcribe sends the audio track to whisper-server and parses its VTT
func (c *WhisperCppClient) Transcribe(ctx context.Context, req TranscribeRequest, updateProgress ProgressFunc) (*TranscribeResult, error) {
	updateProgress(0.05)
	audioPath, err := c.extract(ctx, req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	defer os.Remove(audioPath)

	updateProgress(0.1)

	fields := map[string]string{
		"response_format": "vtt",
		"temperature":     "0.0",
	}
	if lang := languageField(req.Language); lang != "" {
		fields["language"] = lang
	}
	body, contentType, err := audioForm(audioPath, fields)
	if err != nil {
		return nil, err
	}

	updateProgress(0.15)

	url := c.baseURL + "/inference"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	c.logger.Info("sending request", zap.String("url", url), zap.String("audio", audioPath))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whisper server request: %w", err)
	}
	defer resp.Body.Close()

	updateProgress(0.9)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper server error (status %d): %s", resp.StatusCode, string(respBody))
	}

	t, err := parseVTTResponse(respBody)
	if err != nil {
		return nil, err
	}

	updateProgress(0.95)

	return &TranscribeResult{Transcript: t, Language: req.Language}, nil
}
