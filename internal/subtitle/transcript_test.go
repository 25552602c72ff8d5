package subtitle

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSegment(t *testing.T) {
	seg, err := NewSegment(1, 2, "  hello \n world ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", seg.Text)
	assert.InDelta(t, 1.0, seg.Duration(), 1e-9)

	_, err = NewSegment(2, 1, "inverted")
	assert.ErrorIs(t, err, ErrInvalidSegment)
}

func TestNew_RejectsInvalidTimings(t *testing.T) {
	tests := []struct {
		name     string
		segments []Segment
		index    int
	}{
		{"negative start", []Segment{{Start: -1, End: 1, Text: "a"}}, 0},
		{"end before start", []Segment{{Start: 0, End: 1, Text: "a"}, {Start: 3, End: 2, Text: "b"}}, 1},
		{"not a number", []Segment{{Start: math.NaN(), End: 1, Text: "a"}}, 0},
		{"out of order", []Segment{{Start: 5, End: 6, Text: "a"}, {Start: 4, End: 7, Text: "b"}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.segments, Metadata{})
			require.ErrorIs(t, err, ErrInvalidSegment)

			var segErr *SegmentError
			require.True(t, errors.As(err, &segErr))
			assert.Equal(t, tt.index, segErr.Index)
		})
	}
}

func TestNew_DropsEmptySegments(t *testing.T) {
	tr, err := New([]Segment{
		{Start: 0, End: 1, Text: "first"},
		{Start: 1, End: 2, Text: "   "},
		{Start: 2, End: 3, Text: "second\tline"},
	}, Metadata{Title: "Lecture"})
	require.NoError(t, err)

	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, []string{"first", "second line"}, tr.Texts())
	assert.Equal(t, "Lecture", tr.Metadata.Title)
}

func TestNew_NormalizesControlAndInvalidText(t *testing.T) {
	tr, err := New([]Segment{
		{Start: 0, End: 1, Text: "a\x00b"},
		{Start: 1, End: 2, Text: "bell\x07 \x1b[0m"},
		{Start: 2, End: 3, Text: "bad \xff byte"},
		{Start: 3, End: 4, Text: "\x00\x01"},
	}, Metadata{})
	require.NoError(t, err)

	assert.Equal(t, []string{"ab", "bell [0m", "bad \uFFFD byte"}, tr.Texts())
}

func TestTranscript_TotalDuration(t *testing.T) {
	empty, err := New(nil, Metadata{})
	require.NoError(t, err)
	assert.Zero(t, empty.TotalDuration())

	tr, err := New([]Segment{{Start: 0, End: 1.5, Text: "a"}, {Start: 1.5, End: 4.25, Text: "b"}}, Metadata{})
	require.NoError(t, err)
	assert.InDelta(t, 4.25, tr.TotalDuration(), 1e-9)
}

func TestTranscript_FullTextIsIdempotent(t *testing.T) {
	tr, err := New([]Segment{
		{Start: 0, End: 1, Text: " Hello,  there. "},
		{Start: 1, End: 2, Text: "General\nKenobi."},
	}, Metadata{})
	require.NoError(t, err)

	full := tr.FullText()
	assert.Equal(t, "Hello, there. General Kenobi.", full)

	again, err := New([]Segment{{Start: 0, End: 0, Text: full}}, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, full, again.FullText())
}

func TestTranscript_ShiftAndClone(t *testing.T) {
	tr, err := New([]Segment{{Start: 0, End: 1, Text: "a"}}, Metadata{})
	require.NoError(t, err)

	shifted := tr.Shift(600)
	assert.InDelta(t, 600.0, shifted.Segments[0].Start, 1e-9)
	assert.InDelta(t, 601.0, shifted.Segments[0].End, 1e-9)
	assert.Zero(t, tr.Segments[0].Start)
}
