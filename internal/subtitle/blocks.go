package subtitle

import (
	"strings"
)

// cue is a parsed block before it becomes a Segment.
type cue struct {
	start, end float64
	lines      []string
}

// normalizeNewlines strips a UTF-8 BOM and converts CRLF/CR to LF.
func normalizeNewlines(content string) string {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

// splitBlocks splits content on empty lines. Lines holding only whitespace
// do not end a block; auto-generated captions put one after the timing line
// of every cue. Each block is returned as its trimmed, non-blank lines.
func splitBlocks(content string) [][]string {
	var blocks [][]string
	var current []string

	for _, line := range strings.Split(normalizeNewlines(content), "\n") {
		if line == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}

	return blocks
}

// parseCueBlock reads one SRT/VTT block. The timing line is either the first
// line or, after a sequence number / cue identifier, the second one.
func parseCueBlock(index int, lines []string) (cue, error) {
	timingIdx := -1
	for i := 0; i < len(lines) && i < 2; i++ {
		if strings.Contains(lines[i], "-->") {
			timingIdx = i
			break
		}
	}
	if timingIdx < 0 {
		return cue{}, &MalformedError{Block: index, Line: lines[0], Reason: "no timing line"}
	}

	start, end, ok := parseTimingLine(lines[timingIdx])
	if !ok {
		return cue{}, &MalformedError{Block: index, Line: lines[timingIdx], Reason: "unparseable timing line"}
	}

	return cue{start: start, end: end, lines: lines[timingIdx+1:]}, nil
}

// cuesToTranscript converts parsed cues into a validated Transcript. Cue text
// lines are joined with a single space.
func cuesToTranscript(cues []cue, textOf func(string) string) (*Transcript, error) {
	segments := make([]Segment, 0, len(cues))
	for _, c := range cues {
		parts := make([]string, 0, len(c.lines))
		for _, l := range c.lines {
			if textOf != nil {
				l = textOf(l)
			}
			parts = append(parts, l)
		}
		segments = append(segments, Segment{
			Start: c.start,
			End:   c.end,
			Text:  strings.Join(parts, " "),
		})
	}
	return New(segments, Metadata{})
}
