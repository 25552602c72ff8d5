package whisper

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/video-stream/transcript-studio/internal/subtitle"
)

// audioForm builds the multipart body shared by the OpenAI-compatible
// endpoints: the audio under "file" plus plain fields.
func audioForm(audioPath string, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	audioFile, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer audioFile.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audioFile); err != nil {
		return nil, "", fmt.Errorf("copy audio data: %w", err)
	}

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

// languageField returns the language to send, or "" for auto-detection.
func languageField(language string) string {
	if language == "" || language == "auto" {
		return ""
	}
	return language
}

// parseVTTResponse turns an engine's VTT body into a transcript.
func parseVTTResponse(body []byte) (*subtitle.Transcript, error) {
	vtt := string(body)
	// Ensure VTT header
	if !strings.HasPrefix(strings.TrimSpace(vtt), "WEBVTT") {
		vtt = "WEBVTT\n\n" + vtt
	}
	t, err := subtitle.ParseVTT(vtt)
	if err != nil {
		return nil, fmt.Errorf("parse engine output: %w", err)
	}
	return t, nil
}

type statusError struct {
	engine string
	code   int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s server error (status %d): %s", e.engine, e.code, e.body)
}

// retryable reports whether a failed request is worth repeating: gateway
// errors and dropped connections are, out-of-memory and client errors are not.
func retryable(err error) bool {
	if errors.Is(err, ErrOutOfMemory) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return isRetryableError(se.code, nil)
	}
	return isRetryableError(0, err)
}

// isOOMError checks if an error response indicates GPU out-of-memory
func isOOMError(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "out of memory") ||
		strings.Contains(lower, "oom") ||
		strings.Contains(lower, "memory") && strings.Contains(lower, "failed")
}

// isRetryableError checks if an HTTP error is transient and worth retrying
func isRetryableError(statusCode int, err error) bool {
	if err != nil {
		errStr := err.Error()
		return strings.Contains(errStr, "connection refused") ||
			strings.Contains(errStr, "connection reset") ||
			strings.Contains(errStr, "EOF") ||
			strings.Contains(errStr, "timeout")
	}
	return statusCode == 502 || statusCode == 503 || statusCode == 504
}
