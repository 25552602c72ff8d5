package subtitle

import (
	"bytes"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// DetectFormat infers the format of an uploaded transcript. The file
// extension wins when it names a known format; otherwise the content is
// sniffed. Binary or otherwise unrecognised content fails with
// ErrUnsupportedFormat.
func DetectFormat(filename string, content []byte) (Format, error) {
	if ext := filepath.Ext(filename); ext != "" {
		if f, err := ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return sniffFormat(filename, content)
}

func sniffFormat(filename string, content []byte) (Format, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(content, []byte("\ufeff")))
	if len(trimmed) == 0 {
		return "", &UnsupportedFormatError{Tag: filepath.Ext(filename)}
	}

	mtype := mimetype.Detect(content)
	switch {
	case mtype.Is("text/vtt") || bytes.HasPrefix(trimmed, []byte(vttHeader)):
		return FormatVTT, nil
	case mtype.Is("application/x-subrip") || timingRe.Match(firstTimingCandidate(trimmed)):
		return FormatSRT, nil
	case mtype.Is("text/html"):
		return FormatHTML, nil
	}

	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return FormatText, nil
		}
	}
	return "", &UnsupportedFormatError{Tag: mtype.String()}
}

// firstTimingCandidate returns the first line containing "-->" among the
// opening lines, where an SRT timing line would appear.
func firstTimingCandidate(content []byte) []byte {
	lines := bytes.SplitN(content, []byte("\n"), 4)
	for _, l := range lines {
		if bytes.Contains(l, []byte("-->")) {
			return bytes.TrimSpace(l)
		}
	}
	return nil
}
