package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATA_PATH", "/srv/studio")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, filepath.Join("/srv/studio", "transcripts.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join("/srv/studio", "uploads"), cfg.UploadPath)
	assert.Equal(t, filepath.Join("/srv/studio", "transcripts"), cfg.TranscriptPath)
	assert.Equal(t, int64(500*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "whisper.cpp", cfg.Whisper.Engine)
	assert.Equal(t, "auto", cfg.Whisper.Language)
	assert.Equal(t, "yt-dlp", cfg.YouTube.YtDlpPath)
	assert.False(t, cfg.MinIO.Enabled)

	assert.True(t, cfg.GeneratedJWTSecret)
	assert.Len(t, cfg.JWTSecret, 64)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("WHISPER_ENGINE", "openai")
	t.Setenv("WHISPER_OPENAI_KEY", "sk-test")
	t.Setenv("WHISPER_CPP_URL", "http://whisper:8080")
	t.Setenv("YOUTUBE_CAPTION_LANG", "es")
	t.Setenv("TRANSCRIPT_PATH", "/tmp/out")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.False(t, cfg.GeneratedJWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "openai", cfg.Whisper.Engine)
	assert.Equal(t, "sk-test", cfg.Whisper.OpenAIKey)
	assert.Equal(t, "http://whisper:8080", cfg.Whisper.CppURL)
	assert.Equal(t, "es", cfg.YouTube.CaptionLang)
	assert.Equal(t, "/tmp/out", cfg.TranscriptPath)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad engine":           {"WHISPER_ENGINE": "vosk"},
		"bad port":             {"PORT": "70000"},
		"bad log level":        {"LOG_LEVEL": "chatty"},
		"minio without access": {"MINIO_ENABLED": "true", "MINIO_ENDPOINT": "minio:9000"},
		"not a number":         {"MAX_UPLOAD_BYTES": "lots"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
