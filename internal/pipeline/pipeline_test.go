package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/ffmpeg"
	"github.com/video-stream/transcript-studio/internal/job"
	"github.com/video-stream/transcript-studio/internal/storage"
	"github.com/video-stream/transcript-studio/internal/subtitle"
	"github.com/video-stream/transcript-studio/internal/subtitle/whisper"
	"github.com/video-stream/transcript-studio/internal/youtube"
)

const videoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func transcript(t *testing.T, texts ...string) *subtitle.Transcript {
	t.Helper()
	segs := make([]subtitle.Segment, len(texts))
	for i, text := range texts {
		segs[i] = subtitle.Segment{Start: float64(i) * 2, End: float64(i)*2 + 1.5, Text: text}
	}
	tr, err := subtitle.New(segs, subtitle.Metadata{})
	require.NoError(t, err)
	return tr
}

type fakeEngines struct {
	calls  []whisper.TranscribeRequest
	result *subtitle.Transcript
	lang   string
	err    error
}

func (f *fakeEngines) Transcribe(_ context.Context, _ string, req whisper.TranscribeRequest, progress whisper.ProgressFunc) (*whisper.TranscribeResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	progress(0.5)
	progress(1)
	return &whisper.TranscribeResult{Transcript: f.result.Clone(), Language: f.lang}, nil
}

type fakeVideos struct {
	info        *youtube.VideoInfo
	captions    *subtitle.Transcript
	captionsErr error
	audioCalls  int
}

func (f *fakeVideos) Metadata(context.Context, string) (*youtube.VideoInfo, error) {
	return f.info, nil
}

func (f *fakeVideos) Captions(context.Context, string, string) (*subtitle.Transcript, error) {
	if f.captions == nil {
		return nil, f.captionsErr
	}
	return f.captions.Clone(), nil
}

func (f *fakeVideos) Audio(_ context.Context, _ string, dir string) (string, error) {
	f.audioCalls++
	return dir + "/audio.mp3", nil
}

type fixture struct {
	svc     *Service
	store   *storage.Store
	engines *fakeEngines
	videos  *fakeVideos
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.New(afero.NewMemMapFs(), "/data/transcripts", "/data/uploads", zap.NewNop())
	require.NoError(t, err)

	engines := &fakeEngines{result: transcript(t, "Hello there.", "General Kenobi."), lang: "en"}
	videos := &fakeVideos{info: &youtube.VideoInfo{ID: "dQw4w9WgXcQ", Title: "Video Title", Author: "Channel", URL: videoURL}}

	svc := NewService(engines, videos, store, zap.NewNop())
	svc.probe = func(string) (*ffmpeg.MediaInfo, error) {
		return &ffmpeg.MediaInfo{Duration: 4, AudioCodec: "aac", Artist: "Probe Artist"}, nil
	}
	return &fixture{svc: svc, store: store, engines: engines, videos: videos}
}

func TestTranscribeMedia(t *testing.T) {
	f := newFixture(t)
	jobID := uuid.New().String()

	var progress []float64
	res, err := f.svc.TranscribeMedia(context.Background(), MediaRequest{
		JobID:    jobID,
		FilePath: "/data/uploads/x/My Lecture.mp4",
		Engine:   "openai",
		Language: "auto",
	}, func(p float64) { progress = append(progress, p) })
	require.NoError(t, err)

	assert.Equal(t, jobID, res.JobID)
	assert.Equal(t, "My Lecture", res.Title)
	assert.Equal(t, SourceWhisper, res.Source)
	assert.Equal(t, "openai", res.Engine)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, "Hello there. General Kenobi.", res.FullText)
	assert.Equal(t, res.FullText, res.Preview)
	assert.Equal(t, 2, res.Segments)
	assert.InDelta(t, 3.5, res.Duration, 0.001)
	assert.Len(t, res.Files, 4)
	assert.Equal(t, "MyLecture.srt", res.Files[subtitle.FormatSRT])

	require.Len(t, f.engines.calls, 1)
	assert.Equal(t, "auto", f.engines.calls[0].Language)

	assert.IsNonDecreasing(t, progress)
	assert.InDelta(t, 0.9, progress[len(progress)-1], 0.001)

	html, err := f.store.ReadArtifact(jobID, subtitle.FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, html, "Probe Artist")
}

func TestTranscribeMedia_NoAudio(t *testing.T) {
	f := newFixture(t)
	f.svc.probe = func(string) (*ffmpeg.MediaInfo, error) {
		return &ffmpeg.MediaInfo{VideoCodec: "h264"}, ffmpeg.ErrNoAudio
	}

	_, err := f.svc.TranscribeMedia(context.Background(), MediaRequest{JobID: uuid.New().String(), FilePath: "a.mp4"}, nil)
	assert.ErrorIs(t, err, ffmpeg.ErrNoAudio)
	assert.Empty(t, f.engines.calls)
}

func TestTranscribeMedia_EngineError(t *testing.T) {
	f := newFixture(t)
	f.engines.err = errors.New("unknown whisper engine: x")

	_, err := f.svc.TranscribeMedia(context.Background(), MediaRequest{JobID: uuid.New().String(), FilePath: "a.mp4"}, nil)
	assert.ErrorContains(t, err, "unknown whisper engine")
}

func TestTranscribeYouTube_Captions(t *testing.T) {
	f := newFixture(t)
	f.videos.captions = transcript(t, "from captions")

	res, err := f.svc.TranscribeYouTube(context.Background(), YouTubeRequest{JobID: uuid.New().String(), URL: videoURL}, nil)
	require.NoError(t, err)

	assert.Equal(t, SourceCaptions, res.Source)
	assert.Empty(t, res.Engine)
	assert.Equal(t, "Video Title", res.Title)
	assert.Equal(t, "from captions", res.FullText)
	assert.Empty(t, f.engines.calls)
	assert.Zero(t, f.videos.audioCalls)
}

func TestTranscribeYouTube_FallsBackToEngine(t *testing.T) {
	for name, captionsErr := range map[string]error{
		"no captions":     nil,
		"captions failed": errors.New("yt-dlp captions: exit status 1"),
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.videos.captionsErr = captionsErr

			res, err := f.svc.TranscribeYouTube(context.Background(), YouTubeRequest{
				JobID:  uuid.New().String(),
				URL:    videoURL,
				Engine: "whisper.cpp",
				Model:  "small",
			}, nil)
			require.NoError(t, err)

			assert.Equal(t, SourceWhisper, res.Source)
			assert.Equal(t, "whisper.cpp", res.Engine)
			assert.Equal(t, 1, f.videos.audioCalls)
			require.Len(t, f.engines.calls, 1)
			assert.True(t, strings.HasSuffix(f.engines.calls[0].FilePath, "audio.mp3"))
			assert.Equal(t, "small", f.engines.calls[0].Model)
		})
	}
}

func TestTranscribeYouTube_RejectsOtherURLs(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.TranscribeYouTube(context.Background(), YouTubeRequest{JobID: uuid.New().String(), URL: "https://vimeo.com/1"}, nil)
	assert.ErrorIs(t, err, youtube.ErrNotYouTube)
}

const srtUpload = "1\n00:00:00,000 --> 00:00:01,500\nFirst line\n\n2\n00:00:02,000 --> 00:00:03,500\nSecond line\n\n"

func TestConvert(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Convert(context.Background(), ConvertRequest{
		Filename: "team sync.srt",
		Content:  []byte(srtUpload),
		Author:   "Ops",
	})
	require.NoError(t, err)

	assert.Equal(t, "team sync", res.Title)
	assert.Equal(t, SourceConvert, res.Source)
	assert.Len(t, res.Files, 4)
	assert.Equal(t, "TeamSync.vtt", res.Files[subtitle.FormatVTT])
	_, err = uuid.Parse(res.JobID)
	assert.NoError(t, err)

	vtt, err := f.store.ReadArtifact(res.JobID, subtitle.FormatVTT)
	require.NoError(t, err)
	assert.Contains(t, vtt, "00:00:02.000 --> 00:00:03.500")
}

func TestConvert_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Convert(context.Background(), ConvertRequest{
		Filename: "broken.srt",
		Content:  []byte("1\nnot a timing line\ntext\n"),
	})
	assert.ErrorIs(t, err, subtitle.ErrMalformedSubtitle)

	_, err = f.svc.Convert(context.Background(), ConvertRequest{
		Filename: "blob",
		Content:  []byte{0x00, 0x01, 0x02, 0xff, 0xfe},
	})
	assert.ErrorIs(t, err, subtitle.ErrUnsupportedFormat)
}

func TestEdit(t *testing.T) {
	f := newFixture(t)
	converted, err := f.svc.Convert(context.Background(), ConvertRequest{Filename: "talk.srt", Content: []byte(srtUpload)})
	require.NoError(t, err)

	res, err := f.svc.Edit(context.Background(), EditRequest{
		JobID: converted.JobID,
		Text:  "First line, fixed\n\nSecond line, fixed\n",
		Title: "Fixed Talk",
	})
	require.NoError(t, err)

	assert.Equal(t, SourceEdit, res.Source)
	assert.Equal(t, "Fixed Talk", res.Title)
	assert.Equal(t, "First line, fixed Second line, fixed", res.FullText)
	assert.Equal(t, []string{"First line, fixed", "Second line, fixed"}, res.Lines)
	assert.Equal(t, "FixedTalk.srt", res.Files[subtitle.FormatSRT])

	srt, err := f.store.ReadArtifact(converted.JobID, subtitle.FormatSRT)
	require.NoError(t, err)
	assert.Contains(t, srt, "00:00:02,000 --> 00:00:03,500\nSecond line, fixed")
}

func TestEdit_MismatchKeepsArtifacts(t *testing.T) {
	f := newFixture(t)
	converted, err := f.svc.Convert(context.Background(), ConvertRequest{Filename: "talk.srt", Content: []byte(srtUpload)})
	require.NoError(t, err)
	before, err := f.store.ReadArtifact(converted.JobID, subtitle.FormatSRT)
	require.NoError(t, err)

	_, err = f.svc.Edit(context.Background(), EditRequest{JobID: converted.JobID, Text: "one\ntwo\nthree"})
	var mismatch *subtitle.EditMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Segments)
	assert.Equal(t, 3, mismatch.Lines)

	after, err := f.store.ReadArtifact(converted.JobID, subtitle.FormatSRT)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEdit_UnknownJob(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Edit(context.Background(), EditRequest{JobID: uuid.New().String(), Text: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPreview(t *testing.T) {
	short := strings.Repeat("a", previewLength)
	assert.Equal(t, short, preview(short))

	long := strings.Repeat("é", previewLength+1)
	got := preview(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, previewLength+3, len([]rune(got)))
}

type registry map[job.JobType]job.JobHandler

func (r registry) RegisterHandler(t job.JobType, h job.JobHandler) { r[t] = h }

func TestJobHandlers(t *testing.T) {
	f := newFixture(t)
	handlers := registry{}
	f.svc.RegisterHandlers(handlers)
	require.Len(t, handlers, 2)

	staged, err := f.store.StageUpload("clip.mp4", strings.NewReader("data"))
	require.NoError(t, err)

	params, _ := json.Marshal(job.TranscribeParams{Engine: "openai", Title: "Clip"})
	out, err := handlers[job.JobTranscribeMedia](context.Background(), &job.Job{
		ID:       uuid.New().String(),
		Type:     job.JobTranscribeMedia,
		FilePath: staged,
		Params:   params,
	}, func(float64) {})
	require.NoError(t, err)
	assert.Equal(t, "Clip", out.(*Result).Title)
	assert.NoError(t, f.store.RemoveStaged(staged), "removing twice is harmless")

	f.videos.captions = transcript(t, "captioned")
	params, _ = json.Marshal(job.YouTubeParams{URL: videoURL})
	out, err = handlers[job.JobTranscribeYouTube](context.Background(), &job.Job{
		ID:     uuid.New().String(),
		Type:   job.JobTranscribeYouTube,
		Params: params,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceCaptions, out.(*Result).Source)

	_, err = handlers[job.JobTranscribeYouTube](context.Background(), &job.Job{ID: uuid.New().String(), Params: json.RawMessage(`{`)}, nil)
	assert.ErrorContains(t, err, "decode params")
}
