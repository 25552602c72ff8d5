package ffmpeg

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// ErrNoAudio is returned by Probe for media without an audio stream; there
// is nothing to transcribe.
var ErrNoAudio = errors.New("media has no audio stream")

type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

type ProbeFormat struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags,omitempty"`
}

type ProbeStream struct {
	Index      int               `json:"index"`
	CodecName  string            `json:"codec_name"`
	CodecType  string            `json:"codec_type"` // video, audio, subtitle
	SampleRate string            `json:"sample_rate,omitempty"`
	Channels   int               `json:"channels,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
}

type MediaInfo struct {
	Duration   float64 `json:"duration"`
	Size       int64   `json:"size"`
	Container  string  `json:"container"`
	VideoCodec string  `json:"video_codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	SampleRate int     `json:"sample_rate,omitempty"`
	Channels   int     `json:"channels,omitempty"`
	Title      string  `json:"title,omitempty"`
	Artist     string  `json:"artist,omitempty"`
}

// HasAudio reports whether an audio stream was found.
func (m *MediaInfo) HasAudio() bool {
	return m.AudioCodec != ""
}

// Probe runs ffprobe on filePath. Media without an audio stream fails with
// ErrNoAudio alongside the partial info.
func Probe(filePath string) (*MediaInfo, error) {
	out, err := ffmpeggo.Probe(filePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", filePath, err)
	}
	info, err := parseProbe([]byte(out))
	if err != nil {
		return nil, err
	}
	if !info.HasAudio() {
		return info, ErrNoAudio
	}
	return info, nil
}

func parseProbe(output []byte) (*MediaInfo, error) {
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &MediaInfo{Container: result.Format.FormatName}
	info.Duration, _ = strconv.ParseFloat(result.Format.Duration, 64)
	info.Size, _ = strconv.ParseInt(result.Format.Size, 10, 64)
	for k, v := range result.Format.Tags {
		switch strings.ToLower(k) {
		case "title":
			info.Title = v
		case "artist":
			info.Artist = v
		}
	}

	for _, s := range result.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec == "" {
				info.VideoCodec = s.CodecName
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = s.CodecName
				info.SampleRate, _ = strconv.Atoi(s.SampleRate)
				info.Channels = s.Channels
			}
		}
	}

	return info, nil
}
