package subtitle

import (
	"fmt"
	"strings"
)

// RenderSRT renders SubRip blocks numbered 1..N.
func RenderSRT(t *Transcript) string {
	var sb strings.Builder
	for i, seg := range t.Segments {
		fmt.Fprintf(&sb, "%d\n", i+1)
		fmt.Fprintf(&sb, "%s --> %s\n", FormatSRTTimestamp(seg.Start), FormatSRTTimestamp(seg.End))
		sb.WriteString(seg.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// ParseSRT parses SubRip content. Sequence numbers are optional and ignored;
// either millisecond separator is accepted.
func ParseSRT(content string) (*Transcript, error) {
	blocks := splitBlocks(content)
	cues := make([]cue, 0, len(blocks))
	for i, lines := range blocks {
		c, err := parseCueBlock(i, lines)
		if err != nil {
			return nil, err
		}
		cues = append(cues, c)
	}
	return cuesToTranscript(cues, nil)
}
