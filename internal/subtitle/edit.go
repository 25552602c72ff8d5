package subtitle

import (
	"strings"
)

// ApplyEdit maps edited full text back onto t positionally: non-empty line i
// replaces the text of segment i and every timing is kept. When the number of
// lines differs from the number of segments there is no safe association, so
// it fails with ErrEditMismatch instead of truncating, padding or merging.
func ApplyEdit(t *Transcript, edited string) (*Transcript, error) {
	var lines []string
	for _, line := range strings.Split(normalizeNewlines(edited), "\n") {
		if line = normalizeText(line); line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) != len(t.Segments) {
		return nil, &EditMismatchError{Segments: len(t.Segments), Lines: len(lines)}
	}

	out := t.Clone()
	for i := range out.Segments {
		out.Segments[i].Text = lines[i]
	}
	return out, nil
}
