package subtitle

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderText(t *testing.T) {
	tr := fixedTranscript(t, "first", "second", "third")
	assert.Equal(t, "first\nsecond\nthird\n", RenderText(tr))
}

func TestParseText(t *testing.T) {
	tr, err := ParseText("  one  \r\n\r\ntwo\n\n\nthree\n")
	require.NoError(t, err)

	assert.True(t, tr.Untimed)
	assert.Equal(t, []string{"one", "two", "three"}, tr.Texts())
	for _, seg := range tr.Segments {
		assert.Zero(t, seg.Start)
		assert.Zero(t, seg.End)
	}
}

func TestText_RoundTripKeepsTextOnly(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	want := randomTranscript(t, r, 25)

	got, err := ParseText(RenderText(want))
	require.NoError(t, err)

	assert.Equal(t, want.Len(), got.Len())
	assert.Equal(t, want.Texts(), got.Texts())
	assert.True(t, got.Untimed)
	assert.Zero(t, got.TotalDuration())
}
