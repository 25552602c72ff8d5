package storage

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultName is used when a title sanitises to nothing.
const DefaultName = "Transcript"

var mediaExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".flv": true,
	".wmv": true, ".webm": true, ".mp3": true, ".wav": true, ".aac": true,
	".m4a": true, ".flac": true, ".ogg": true,
}

var transcriptExtensions = map[string]bool{
	".txt": true, ".srt": true, ".vtt": true, ".html": true, ".htm": true,
}

// IsMediaFile reports whether name has an audio or video extension that
// can be transcribed.
func IsMediaFile(name string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(name))]
}

func IsTranscriptFile(name string) bool {
	return transcriptExtensions[strings.ToLower(filepath.Ext(name))]
}

var (
	reservedChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	spaceRun      = regexp.MustCompile(`\s+`)
	nonWord       = regexp.MustCompile(`[^A-Za-z0-9_\s]`)
)

var toASCII = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// SanitizeFilename folds s to ASCII (accents are decomposed and dropped),
// strips characters that are invalid in file names and collapses runs of
// whitespace.
func SanitizeFilename(s string) string {
	folded, _, err := transform.String(toASCII, s)
	if err != nil {
		folded = s
	}
	folded = reservedChars.ReplaceAllString(folded, "")
	folded = spaceRun.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}

// PascalName turns a title into the base name of the rendered files:
// "My talk: part 2" becomes "MyTalkPart2". An empty result yields
// DefaultName.
func PascalName(title string) string {
	clean := nonWord.ReplaceAllString(SanitizeFilename(title), "")

	var sb strings.Builder
	for _, w := range strings.Fields(clean) {
		sb.WriteString(strings.ToUpper(w[:1]))
		sb.WriteString(strings.ToLower(w[1:]))
	}
	if sb.Len() == 0 {
		return DefaultName
	}
	return sb.String()
}
