package youtube

import (
	"strings"

	"github.com/video-stream/transcript-studio/internal/subtitle"
)

// CollapseRolling removes the repetition in YouTube auto-captions, where
// each cue repeats the previous line before adding new words and short
// "hold" cues repeat it verbatim. Repeated cues extend the previous segment;
// cues that start with earlier text keep only the new words.
func CollapseRolling(t *subtitle.Transcript) (*subtitle.Transcript, error) {
	out := make([]subtitle.Segment, 0, len(t.Segments))
	prevRaw := ""

	for _, seg := range t.Segments {
		raw := seg.Text
		if n := len(out); n > 0 {
			last := &out[n-1]
			if raw == last.Text || raw == prevRaw {
				if seg.End > last.End {
					last.End = seg.End
				}
				prevRaw = raw
				continue
			}
			seg.Text = trimRepeated(raw, last.Text, prevRaw)
			if seg.Text == "" {
				if seg.End > last.End {
					last.End = seg.End
				}
				prevRaw = raw
				continue
			}
		}
		out = append(out, seg)
		prevRaw = raw
	}

	return subtitle.New(out, t.Metadata)
}

func trimRepeated(text string, prefixes ...string) string {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if text == p {
			return ""
		}
		if strings.HasPrefix(text, p+" ") {
			return strings.TrimSpace(text[len(p):])
		}
	}
	return text
}
