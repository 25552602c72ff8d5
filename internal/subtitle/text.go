package subtitle

import (
	"strings"
)

// RenderText renders one line per segment, without timestamps.
func RenderText(t *Transcript) string {
	var sb strings.Builder
	for _, seg := range t.Segments {
		sb.WriteString(seg.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// ParseText turns each non-empty line into a segment. Plain text carries no
// timing, so the result is marked Untimed and every Start/End is a zero
// sentinel. Text survives a render/parse round trip; timing does not.
func ParseText(content string) (*Transcript, error) {
	var segments []Segment
	for _, line := range strings.Split(normalizeNewlines(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		segments = append(segments, Segment{Text: line})
	}

	t, err := New(segments, Metadata{})
	if err != nil {
		return nil, err
	}
	t.Untimed = true
	return t, nil
}
