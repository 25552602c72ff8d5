package subtitle

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSRT(t *testing.T) {
	tr := fixedTranscript(t, "Hello there.", "General Kenobi.")

	want := "1\n00:00:00,000 --> 00:00:02,000\nHello there.\n\n" +
		"2\n00:00:02,500 --> 00:00:04,500\nGeneral Kenobi.\n\n"
	assert.Equal(t, want, RenderSRT(tr))
}

func TestRenderSRT_ContiguousNumbering(t *testing.T) {
	// Empty segments are dropped at construction, leaving gaps in the
	// source indices; output numbering must not reflect them.
	tr, err := New([]Segment{
		{Start: 0, End: 1, Text: "one"},
		{Start: 1, End: 2, Text: ""},
		{Start: 2, End: 3, Text: "two"},
		{Start: 3, End: 4, Text: " "},
		{Start: 4, End: 5, Text: "three"},
	}, Metadata{})
	require.NoError(t, err)

	blocks := splitBlocks(RenderSRT(tr))
	require.Len(t, blocks, 3)
	for i, b := range blocks {
		assert.Equal(t, []string{"1", "2", "3"}[i], b[0])
	}
}

func TestSRT_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		want := randomTranscript(t, r, 1+r.Intn(40))
		got, err := ParseSRT(RenderSRT(want))
		require.NoError(t, err)
		assertSameSegments(t, want, got)
	}
}

func TestParseSRT_Lenient(t *testing.T) {
	content := "\ufeff1\r\n00:00:01,000 --> 00:00:02,500\r\nfirst line\r\nsecond line\r\n\r\n" +
		"00:00:03.000 --> 00:00:04.000\r\nno sequence number\r\n\r\n\r\n\r\n"

	tr, err := ParseSRT(content)
	require.NoError(t, err)
	require.Equal(t, 2, tr.Len())
	assert.Equal(t, "first line second line", tr.Segments[0].Text)
	assert.InDelta(t, 2.5, tr.Segments[0].End, 1e-9)
	assert.Equal(t, "no sequence number", tr.Segments[1].Text)
	assert.InDelta(t, 3.0, tr.Segments[1].Start, 1e-9)
}

func TestParseSRT_MalformedBlock(t *testing.T) {
	tests := []struct {
		name    string
		content string
		block   int
	}{
		{
			name:    "missing timing line",
			content: "1\n00:00:01,000 --> 00:00:02,000\nok\n\n2\njust text\nmore text\n",
			block:   1,
		},
		{
			name:    "garbage timing line",
			content: "1\n00:00:01,000 --> 00:00:02,000\nok\n\n2\n00:00:03,000 --> 00:00:04,000\nok\n\n3\nsoon --> later\ntext\n",
			block:   2,
		},
		{
			name:    "first block",
			content: "hello\nworld\n",
			block:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSRT(tt.content)
			require.ErrorIs(t, err, ErrMalformedSubtitle)

			var malformed *MalformedError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.block, malformed.Block)
			assert.True(t, strings.Contains(err.Error(), "block"))
		})
	}
}

func TestParseSRT_InvertedTiming(t *testing.T) {
	_, err := ParseSRT("1\n00:00:05,000 --> 00:00:02,000\nbackwards\n")
	assert.ErrorIs(t, err, ErrInvalidSegment)
}
