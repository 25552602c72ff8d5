package subtitle

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVTT(t *testing.T) {
	tr := fixedTranscript(t, "Hello there.", "Tom & Jerry <3")

	out := RenderVTT(tr)
	assert.True(t, strings.HasPrefix(out, "WEBVTT\n\n1\n00:00:00.000 --> 00:00:02.000\n"))
	assert.Contains(t, out, "2\n00:00:02.500 --> 00:00:04.500\nTom &amp; Jerry &lt;3\n\n")
	assert.NotContains(t, out, ",")
}

func TestVTT_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		want := randomTranscript(t, r, 1+r.Intn(40))
		got, err := ParseVTT(RenderVTT(want))
		require.NoError(t, err)
		assertSameSegments(t, want, got)
	}

	escaped := fixedTranscript(t, "Tom & Jerry <3", "a > b")
	got, err := ParseVTT(RenderVTT(escaped))
	require.NoError(t, err)
	assertSameSegments(t, escaped, got)
}

func TestParseVTT_SkipsHeaderAndMetadataBlocks(t *testing.T) {
	content := `WEBVTT
Kind: captions
Language: en

NOTE generated by an automatic captioner

STYLE
::cue { color: yellow }

00:00.000 --> 00:02.000 align:start position:0%
hello<00:00:00.500><c> world</c>

intro
00:00:02.000 --> 00:00:04.000
<v Roger>second &amp; last</v>
`
	tr, err := ParseVTT(content)
	require.NoError(t, err)
	require.Equal(t, 2, tr.Len())
	assert.Equal(t, "hello world", tr.Segments[0].Text)
	assert.Equal(t, "second & last", tr.Segments[1].Text)
	assert.InDelta(t, 4.0, tr.TotalDuration(), 1e-9)
}

func TestParseVTT_WhitespaceLinesStayInCue(t *testing.T) {
	content := "WEBVTT\n\n" +
		"00:00:00.160 --> 00:00:02.950 align:start position:0%\n \nhello<00:00:00.480><c> everyone</c>\n\n" +
		"00:00:02.950 --> 00:00:02.960 align:start position:0%\nhello everyone\n \n\n" +
		"00:00:02.960 --> 00:00:04.000\n\t\n"

	tr, err := ParseVTT(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello everyone", "hello everyone"}, tr.Texts())
	assert.InDelta(t, 0.16, tr.Segments[0].Start, 1e-9)
	assert.InDelta(t, 2.96, tr.Segments[1].End, 1e-9)
}

func TestParseVTT_CueGluedToHeader(t *testing.T) {
	tr, err := ParseVTT("WEBVTT\n00:00:01.000 --> 00:00:02.000\nglued\n")
	require.NoError(t, err)
	require.Equal(t, 1, tr.Len())
	assert.Equal(t, "glued", tr.Segments[0].Text)
}

func TestParseVTT_AcceptsCommaSeparator(t *testing.T) {
	tr, err := ParseVTT("WEBVTT\n\n00:00:01,250 --> 00:00:02,000\ncomma\n")
	require.NoError(t, err)
	assert.InDelta(t, 1.25, tr.Segments[0].Start, 1e-9)
}

func TestParseVTT_MalformedBlockIndexCountsCues(t *testing.T) {
	content := "WEBVTT\n\nNOTE ignored\n\n00:00:01.000 --> 00:00:02.000\nok\n\nthis block\nhas no timing\n"

	_, err := ParseVTT(content)
	require.ErrorIs(t, err, ErrMalformedSubtitle)

	var malformed *MalformedError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 1, malformed.Block)
}
