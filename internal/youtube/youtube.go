package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/video-stream/transcript-studio/internal/config"
	"github.com/video-stream/transcript-studio/internal/subtitle"
)

var (
	ErrNotYouTube    = errors.New("not a YouTube URL")
	ErrVideoNotFound = errors.New("video not found")
)

var (
	urlRe = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+`)
	idRe  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// IsYouTubeURL reports whether s looks like a youtube.com or youtu.be link.
func IsYouTubeURL(s string) bool {
	return urlRe.MatchString(strings.TrimSpace(s))
}

// VideoID extracts the 11 character video id from watch, short, embed,
// shorts and live links.
func VideoID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !IsYouTubeURL(s) {
		return "", ErrNotYouTube
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotYouTube, err)
	}

	var id string
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case strings.HasSuffix(u.Host, "youtu.be"):
		id = parts[0]
	case parts[0] == "watch":
		id = u.Query().Get("v")
	case len(parts) >= 2 && (parts[0] == "embed" || parts[0] == "shorts" || parts[0] == "live" || parts[0] == "v"):
		id = parts[1]
	}
	if !idRe.MatchString(id) {
		return "", fmt.Errorf("%w: no video id in %q", ErrNotYouTube, s)
	}
	return id, nil
}

// VideoInfo is the metadata shown on rendered transcripts.
type VideoInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Duration float64 `json:"duration"`
	URL      string  `json:"url"`
}

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 500 {
			msg = msg[len(msg)-500:]
		}
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, msg)
	}
	return out, nil
}

// Client fetches metadata, captions and audio for YouTube videos.
type Client struct {
	ytdlp       string
	captionLang string
	api         *ytapi.Service
	run         Runner
	logger      *zap.Logger
}

// NewClient creates a client. The Data API is only used when an API key is
// configured; everything else goes through yt-dlp. opts are passed to the
// Data API service.
func NewClient(ctx context.Context, cfg config.YouTubeConfig, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	c := &Client{
		ytdlp:       cfg.YtDlpPath,
		captionLang: cfg.CaptionLang,
		run:         execRunner,
		logger:      logger.Named("youtube"),
	}
	if c.ytdlp == "" {
		c.ytdlp = "yt-dlp"
	}
	if c.captionLang == "" {
		c.captionLang = "en"
	}
	if cfg.APIKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
		svc, err := ytapi.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create youtube service: %w", err)
		}
		c.api = svc
	}
	return c, nil
}

// Metadata returns title, channel and duration of the video.
func (c *Client) Metadata(ctx context.Context, videoURL string) (*VideoInfo, error) {
	id, err := VideoID(videoURL)
	if err != nil {
		return nil, err
	}

	if c.api != nil {
		info, err := c.apiMetadata(ctx, id)
		if err == nil || errors.Is(err, ErrVideoNotFound) {
			return info, err
		}
		c.logger.Warn("data api lookup failed, falling back to yt-dlp", zap.String("video_id", id), zap.Error(err))
	}

	dump, err := c.dump(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	return dump.info(videoURL), nil
}

func (c *Client) apiMetadata(ctx context.Context, id string) (*VideoInfo, error) {
	resp, err := c.api.Videos.List([]string{"snippet", "contentDetails"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos.list: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
	}

	item := resp.Items[0]
	info := &VideoInfo{ID: id, URL: "https://www.youtube.com/watch?v=" + id}
	if item.Snippet != nil {
		info.Title = item.Snippet.Title
		info.Author = item.Snippet.ChannelTitle
	}
	if item.ContentDetails != nil {
		info.Duration = parseISODuration(item.ContentDetails.Duration)
	}
	return info, nil
}

type ytdlpDump struct {
	ID                string                     `json:"id"`
	Title             string                     `json:"title"`
	Uploader          string                     `json:"uploader"`
	Channel           string                     `json:"channel"`
	Duration          float64                    `json:"duration"`
	WebpageURL        string                     `json:"webpage_url"`
	Subtitles         map[string]json.RawMessage `json:"subtitles"`
	AutomaticCaptions map[string]json.RawMessage `json:"automatic_captions"`
}

func (d *ytdlpDump) info(fallbackURL string) *VideoInfo {
	info := &VideoInfo{
		ID:       d.ID,
		Title:    d.Title,
		Author:   d.Uploader,
		Duration: d.Duration,
		URL:      d.WebpageURL,
	}
	if info.Author == "" {
		info.Author = d.Channel
	}
	if info.URL == "" {
		info.URL = fallbackURL
	}
	return info
}

func (d *ytdlpDump) hasCaptions(lang string) bool {
	_, manual := d.Subtitles[lang]
	_, auto := d.AutomaticCaptions[lang]
	return manual || auto
}

func (c *Client) dump(ctx context.Context, videoURL string) (*ytdlpDump, error) {
	out, err := c.run(ctx, c.ytdlp, "--dump-single-json", "--no-warnings", "--skip-download", "--no-playlist", videoURL)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata: %w", err)
	}
	var d ytdlpDump
	if err := json.Unmarshal(out, &d); err != nil {
		return nil, fmt.Errorf("decode yt-dlp metadata: %w", err)
	}
	return &d, nil
}

// Captions downloads manual or automatic captions in the configured
// language into dir. It returns nil, nil when the video has none.
func (c *Client) Captions(ctx context.Context, videoURL, dir string) (*subtitle.Transcript, error) {
	d, err := c.dump(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	if !d.hasCaptions(c.captionLang) {
		c.logger.Info("no captions available", zap.String("video_id", d.ID), zap.String("lang", c.captionLang))
		return nil, nil
	}

	_, err = c.run(ctx, c.ytdlp,
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", c.captionLang,
		"--sub-format", "vtt",
		"--no-playlist",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		videoURL,
	)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp captions: %w", err)
	}

	path, err := findFile(dir, ".vtt")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	parsed, err := subtitle.ParseVTT(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse captions: %w", err)
	}
	t, err := CollapseRolling(parsed)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, nil
	}

	c.logger.Info("captions downloaded",
		zap.String("video_id", d.ID),
		zap.String("size", humanize.Bytes(uint64(len(raw)))),
		zap.Int("segments", t.Len()),
	)
	return t, nil
}

// Audio downloads the best audio stream and converts it to mp3 in dir.
func (c *Client) Audio(ctx context.Context, videoURL, dir string) (string, error) {
	_, err := c.run(ctx, c.ytdlp,
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--no-playlist",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		videoURL,
	)
	if err != nil {
		return "", fmt.Errorf("yt-dlp audio: %w", err)
	}

	path, err := findFile(dir, ".mp3")
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("yt-dlp audio: no mp3 written to %s", dir)
	}

	if st, err := os.Stat(path); err == nil {
		c.logger.Info("audio downloaded", zap.String("path", path), zap.String("size", humanize.Bytes(uint64(st.Size()))))
	}
	return path, nil
}

func findFile(dir, ext string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[0], nil
}

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseISODuration converts the Data API's "PT1H2M3S" form to seconds.
func parseISODuration(s string) float64 {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	mult := []float64{86400, 3600, 60, 1}
	var total float64
	for i, unit := range mult {
		if m[i+1] == "" {
			continue
		}
		n, _ := strconv.Atoi(m[i+1])
		total += float64(n) * unit
	}
	return total
}
