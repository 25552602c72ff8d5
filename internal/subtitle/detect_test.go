package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat_ExtensionWins(t *testing.T) {
	f, err := DetectFormat("Lecture.SRT", []byte("whatever"))
	require.NoError(t, err)
	assert.Equal(t, FormatSRT, f)

	f, err = DetectFormat("notes.txt", []byte("WEBVTT\n\n"))
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)
}

func TestDetectFormat_Sniffing(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Format
	}{
		{"vtt", "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nhello\n", FormatVTT},
		{"srt", "1\n00:00:01,000 --> 00:00:02,000\nhello\n\n", FormatSRT},
		{"srt without sequence", "00:00:01,000 --> 00:00:02,000\nhello\n", FormatSRT},
		{"html", "<!DOCTYPE html><html><head><title>x</title></head><body></body></html>", FormatHTML},
		{"text", "Just some words.\nAnother line.\n", FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DetectFormat("upload", []byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestDetectFormat_Unsupported(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	_, err := DetectFormat("image.png", png)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = DetectFormat("empty", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
