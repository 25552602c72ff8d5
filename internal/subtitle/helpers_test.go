package subtitle

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleWords = []string{"the", "lecture", "covers", "signals", "and", "systems", "today", "we", "start", "with", "Fourier", "series"}

// randomTranscript builds n segments with non-decreasing, sub-millisecond
// timings so that round trips exercise rounding.
func randomTranscript(t *testing.T, r *rand.Rand, n int) *Transcript {
	t.Helper()
	segments := make([]Segment, 0, n)
	start := r.Float64() * 5
	for i := 0; i < n; i++ {
		length := 0.2 + r.Float64()*6
		words := make([]string, 1+r.Intn(8))
		for j := range words {
			words[j] = sampleWords[r.Intn(len(sampleWords))]
		}
		segments = append(segments, Segment{Start: start, End: start + length, Text: strings.Join(words, " ")})
		start += r.Float64() * length * 1.5
	}
	tr, err := New(segments, Metadata{})
	require.NoError(t, err)
	return tr
}

func fixedTranscript(t *testing.T, texts ...string) *Transcript {
	t.Helper()
	segments := make([]Segment, len(texts))
	for i, text := range texts {
		segments[i] = Segment{Start: float64(i) * 2.5, End: float64(i)*2.5 + 2, Text: text}
	}
	tr, err := New(segments, Metadata{})
	require.NoError(t, err)
	return tr
}

func assertSameSegments(t *testing.T, want, got *Transcript) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	for i := range want.Segments {
		assert.Equal(t, want.Segments[i].Text, got.Segments[i].Text, "segment %d text", i)
		assert.InDelta(t, want.Segments[i].Start, got.Segments[i].Start, 0.001, "segment %d start", i)
		assert.InDelta(t, want.Segments[i].End, got.Segments[i].End, 0.001, "segment %d end", i)
	}
}
