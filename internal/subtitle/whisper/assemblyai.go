package whisper

import (
	"context"
	"fmt"
	"os"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/video-stream/transcript-studio/internal/ffmpeg"
	"github.com/video-stream/transcript-studio/internal/subtitle"
)

// AssemblyAIClient uses the hosted AssemblyAI API through its SDK. Sentences
// become segments.
type AssemblyAIClient struct {
	client  *aai.Client
	extract extractFunc
	logger  *zap.Logger
}

func NewAssemblyAIClient(apiKey string, logger *zap.Logger, opts ...aai.ClientOption) *AssemblyAIClient {
	return &AssemblyAIClient{
		client:  aai.NewClientWithOptions(append([]aai.ClientOption{aai.WithAPIKey(apiKey)}, opts...)...),
		extract: ffmpeg.ExtractMP3,
		logger:  logger.Named("assemblyai"),
	}
}

func (c *AssemblyAIClient) Name() string {
	return "assemblyai"
}

func (c *AssemblyAIClient) Transcribe(ctx context.Context, req TranscribeRequest, updateProgress ProgressFunc) (*TranscribeResult, error) {
	updateProgress(0.05)
	audioPath, err := c.extract(ctx, req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	defer os.Remove(audioPath)

	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	updateProgress(0.1)
	uploadURL, err := c.client.Upload(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("upload to AssemblyAI: %w", err)
	}
	c.logger.Info("audio uploaded", zap.String("upload_url", uploadURL))

	params := &aai.TranscriptOptionalParams{}
	if lang := languageField(req.Language); lang != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(lang)
	} else {
		params.LanguageDetection = aai.Bool(true)
	}

	updateProgress(0.2)
	transcript, err := c.client.Transcripts.TranscribeFromURL(ctx, uploadURL, params)
	if err != nil {
		return nil, fmt.Errorf("AssemblyAI transcription: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		msg := "unknown error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return nil, fmt.Errorf("AssemblyAI error: %s", msg)
	}

	updateProgress(0.85)
	id := aai.ToString(transcript.ID)
	sentences, err := c.client.Transcripts.GetSentences(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("AssemblyAI sentences: %w", err)
	}

	t, err := sentencesToTranscript(sentences.Sentences)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if transcript.LanguageCode != "" {
		language = string(transcript.LanguageCode)
	}
	c.logger.Info("transcription complete", zap.String("transcript_id", id), zap.Int("segments", t.Len()))

	updateProgress(0.95)
	return &TranscribeResult{Transcript: t, Language: language}, nil
}

// sentencesToTranscript converts millisecond sentence timings to segments.
func sentencesToTranscript(sentences []aai.TranscriptSentence) (*subtitle.Transcript, error) {
	segments := make([]subtitle.Segment, 0, len(sentences))
	for _, s := range sentences {
		segments = append(segments, subtitle.Segment{
			Start: float64(aai.ToInt64(s.Start)) / 1000.0, // ms to seconds
			End:   float64(aai.ToInt64(s.End)) / 1000.0,
			Text:  aai.ToString(s.Text),
		})
	}
	return subtitle.New(segments, subtitle.Metadata{})
}
