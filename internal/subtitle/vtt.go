package subtitle

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

const vttHeader = "WEBVTT"

// cueTagRe matches inline cue markup such as <i>, <c.colorE5E5E5>, <v Roger>
// and the karaoke timestamps <00:00:01.234> found in auto-generated captions.
var cueTagRe = regexp.MustCompile(`</?[a-zA-Z0-9][^<>]*>|<\d[\d:.]*>`)

var vttEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// RenderVTT renders a WebVTT document. Cue identifiers mirror the SRT
// sequence numbers.
func RenderVTT(t *Transcript) string {
	var sb strings.Builder
	sb.WriteString(vttHeader)
	sb.WriteString("\n\n")
	for i, seg := range t.Segments {
		fmt.Fprintf(&sb, "%d\n", i+1)
		fmt.Fprintf(&sb, "%s --> %s\n", FormatVTTTimestamp(seg.Start), FormatVTTTimestamp(seg.End))
		sb.WriteString(vttEscaper.Replace(seg.Text))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// ParseVTT parses WebVTT content. The header, NOTE, STYLE and REGION blocks
// are skipped; block indexes in errors count cue blocks only.
func ParseVTT(content string) (*Transcript, error) {
	blocks := splitBlocks(content)
	cues := make([]cue, 0, len(blocks))
	index := 0

	for i, lines := range blocks {
		if i == 0 && strings.HasPrefix(lines[0], vttHeader) {
			// Header metadata (Kind:, Language:) shares the block; a cue
			// glued to the header without a blank line is still a cue.
			rest := lines[1:]
			if !containsTiming(rest) {
				continue
			}
			lines = trimToTiming(rest)
		}
		if isVTTMetaBlock(lines[0]) {
			continue
		}

		c, err := parseCueBlock(index, lines)
		if err != nil {
			return nil, err
		}
		cues = append(cues, c)
		index++
	}

	return cuesToTranscript(cues, vttCueText)
}

func isVTTMetaBlock(first string) bool {
	for _, kw := range []string{"NOTE", "STYLE", "REGION"} {
		if first == kw || strings.HasPrefix(first, kw+" ") || strings.HasPrefix(first, kw+"\t") {
			return true
		}
	}
	return false
}

func containsTiming(lines []string) bool {
	for _, l := range lines {
		if strings.Contains(l, "-->") {
			return true
		}
	}
	return false
}

// trimToTiming drops header lines that precede the first cue of a block.
// One line before the timing line is kept as a potential cue identifier.
func trimToTiming(lines []string) []string {
	for i, l := range lines {
		if strings.Contains(l, "-->") {
			if i > 0 && !strings.Contains(lines[i-1], ":") {
				return lines[i-1:]
			}
			return lines[i:]
		}
	}
	return lines
}

func vttCueText(line string) string {
	return html.UnescapeString(cueTagRe.ReplaceAllString(line, ""))
}
