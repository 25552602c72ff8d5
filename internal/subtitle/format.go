package subtitle

import (
	"strings"
)

// Format is one of the supported transcript encodings. The set is closed:
// every switch over Format below is exhaustive and anything else is
// rejected with ErrUnsupportedFormat.
type Format string

const (
	FormatText Format = "txt"
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatHTML Format = "html"
)

// Formats lists every output format in rendering order.
var Formats = []Format{FormatText, FormatSRT, FormatVTT, FormatHTML}

// ParseFormat maps a tag such as "srt", ".VTT" or "text" to a Format.
func ParseFormat(tag string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), ".")) {
	case "txt", "text":
		return FormatText, nil
	case "srt":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", &UnsupportedFormatError{Tag: tag}
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	switch f {
	case FormatText, FormatSRT, FormatVTT, FormatHTML:
		return true
	}
	return false
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type used when serving the artifact.
func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatSRT:
		return "application/x-subrip; charset=utf-8"
	case FormatVTT:
		return "text/vtt; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

// Render renders t in format f.
func Render(t *Transcript, f Format) (string, error) {
	switch f {
	case FormatText:
		return RenderText(t), nil
	case FormatSRT:
		return RenderSRT(t), nil
	case FormatVTT:
		return RenderVTT(t), nil
	case FormatHTML:
		return RenderHTML(t)
	}
	return "", &UnsupportedFormatError{Tag: string(f)}
}

// Parse parses content encoded in format f.
func Parse(content string, f Format) (*Transcript, error) {
	switch f {
	case FormatText:
		return ParseText(content)
	case FormatSRT:
		return ParseSRT(content)
	case FormatVTT:
		return ParseVTT(content)
	case FormatHTML:
		return ParseHTML(content)
	}
	return nil, &UnsupportedFormatError{Tag: string(f)}
}

// Artifact is the outcome of rendering one format. Exactly one of Content
// and Err is meaningful.
type Artifact struct {
	Format  Format
	Content string
	Err     error
}

// RenderAll renders every format independently. A failure in one format is
// recorded on its artifact and does not prevent the others.
func RenderAll(t *Transcript) []Artifact {
	artifacts := make([]Artifact, 0, len(Formats))
	for _, f := range Formats {
		content, err := Render(t, f)
		artifacts = append(artifacts, Artifact{Format: f, Content: content, Err: err})
	}
	return artifacts
}
