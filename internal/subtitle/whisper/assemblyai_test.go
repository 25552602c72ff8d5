package whisper

import (
	"testing"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/video-stream/transcript-studio/internal/subtitle"
)

func TestSentencesToTranscript(t *testing.T) {
	tr, err := sentencesToTranscript([]aai.TranscriptSentence{
		{Start: aai.Int64(0), End: aai.Int64(1830), Text: aai.String("Good morning everyone.")},
		{Start: aai.Int64(1830), End: aai.Int64(4200), Text: aai.String("  Let's begin. ")},
		{Start: aai.Int64(4200), End: aai.Int64(4300), Text: aai.String("")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Good morning everyone.", "Let's begin."}, tr.Texts())
	assert.InDelta(t, 1.83, tr.Segments[1].Start, 1e-9)
	assert.InDelta(t, 4.2, tr.TotalDuration(), 1e-9)
}

func TestSentencesToTranscript_Invalid(t *testing.T) {
	_, err := sentencesToTranscript([]aai.TranscriptSentence{
		{Start: aai.Int64(5000), End: aai.Int64(1000), Text: aai.String("backwards")},
	})
	assert.ErrorIs(t, err, subtitle.ErrInvalidSegment)
}
