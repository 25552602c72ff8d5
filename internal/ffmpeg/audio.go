package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// wavArgs extracts audio as WAV 16kHz mono (required by whisper).
func wavArgs(in, out string) []string {
	return ffmpeggo.Input(in).
		Output(out, ffmpeggo.KwArgs{
			"vn":     "",
			"acodec": "pcm_s16le",
			"ar":     16000,
			"ac":     1,
		}).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput().
		GetArgs()
}

// mp3Args extracts audio as ~130kbps VBR MP3 for hosted APIs with upload
// limits.
func mp3Args(in, out string) []string {
	return ffmpeggo.Input(in).
		Output(out, ffmpeggo.KwArgs{
			"vn":     "",
			"acodec": "libmp3lame",
			"q:a":    4,
		}).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput().
		GetArgs()
}

// splitArgs cuts an MP3 into fixed-length segments named by pattern.
func splitArgs(in, pattern string, segmentSeconds int) []string {
	return ffmpeggo.Input(in).
		Output(pattern, ffmpeggo.KwArgs{
			"f":            "segment",
			"segment_time": segmentSeconds,
			"c:a":          "libmp3lame",
			"q:a":          4,
		}).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput().
		GetArgs()
}

// ExtractWAV writes the audio track of mediaPath to a temporary WAV file and
// returns its path. The caller removes it.
func ExtractWAV(ctx context.Context, mediaPath string) (string, error) {
	return extractTo(ctx, mediaPath, "audio-*.wav", wavArgs)
}

// ExtractMP3 is ExtractWAV for MP3 output.
func ExtractMP3(ctx context.Context, mediaPath string) (string, error) {
	return extractTo(ctx, mediaPath, "audio-*.mp3", mp3Args)
}

func extractTo(ctx context.Context, mediaPath, pattern string, args func(in, out string) []string) (string, error) {
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	tmpFile.Close()

	if err := run(ctx, args(mediaPath, tmpFile.Name())); err != nil {
		os.Remove(tmpFile.Name())
		return "", err
	}
	return tmpFile.Name(), nil
}

// SplitAudio cuts audioPath into segmentSeconds-long MP3 chunks inside dir
// and returns their paths in playback order.
func SplitAudio(ctx context.Context, audioPath, dir string, segmentSeconds int) ([]string, error) {
	pattern := filepath.Join(dir, "chunk_%03d.mp3")
	if err := run(ctx, splitArgs(audioPath, pattern, segmentSeconds)); err != nil {
		return nil, fmt.Errorf("split audio: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var chunks []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "chunk_") && strings.HasSuffix(e.Name(), ".mp3") {
			chunks = append(chunks, filepath.Join(dir, e.Name()))
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no audio chunks generated")
	}
	sort.Strings(chunks)
	return chunks, nil
}

func run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}
