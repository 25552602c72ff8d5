package subtitle

import (
	"math"
	"strings"
	"unicode"
)

// Segment is one timed utterance. Start and End are offsets in seconds from
// the start of the media.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns End - Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Metadata is descriptive information shown in the HTML rendering only.
type Metadata struct {
	Title     string `json:"title,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Author    string `json:"author,omitempty"`
	Language  string `json:"language,omitempty"`
}

// Transcript is an ordered list of segments in playback order.
//
// Untimed is set when the segments came from a source without timing
// information (plain text). Their Start and End are zero sentinels, not
// real offsets.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Metadata Metadata  `json:"metadata"`
	Untimed  bool      `json:"untimed,omitempty"`
}

// NewSegment validates and normalises a single segment. Text whitespace is
// collapsed so that every segment renders on a single line.
func NewSegment(start, end float64, text string) (Segment, error) {
	seg := Segment{Start: start, End: end, Text: normalizeText(text)}
	if err := validateSegment(0, seg); err != nil {
		return Segment{}, err
	}
	return seg, nil
}

// New builds a Transcript from raw segments. Segments with empty text are
// dropped. A negative start, an inverted span or a start earlier than the
// previous segment's start fails with ErrInvalidSegment; nothing is clamped
// or reordered.
func New(segments []Segment, meta Metadata) (*Transcript, error) {
	t := &Transcript{
		Segments: make([]Segment, 0, len(segments)),
		Metadata: meta,
	}

	prevStart := 0.0
	for i, s := range segments {
		s.Text = normalizeText(s.Text)
		if err := validateSegment(i, s); err != nil {
			return nil, err
		}
		if s.Text == "" {
			continue
		}
		if len(t.Segments) > 0 && s.Start < prevStart {
			return nil, &SegmentError{Index: i, Start: s.Start, End: s.End, Reason: "starts before previous segment"}
		}
		prevStart = s.Start
		t.Segments = append(t.Segments, s)
	}

	return t, nil
}

func validateSegment(index int, s Segment) error {
	switch {
	case math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0):
		return &SegmentError{Index: index, Start: s.Start, End: s.End, Reason: "timing is not a finite number"}
	case s.Start < 0:
		return &SegmentError{Index: index, Start: s.Start, End: s.End, Reason: "negative start"}
	case s.End < s.Start:
		return &SegmentError{Index: index, Start: s.Start, End: s.End, Reason: "end before start"}
	}
	return nil
}

// Len returns the number of segments.
func (t *Transcript) Len() int {
	return len(t.Segments)
}

// TotalDuration returns the end of the last segment, or zero when empty.
func (t *Transcript) TotalDuration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// FullText joins segment texts with single spaces.
func (t *Transcript) FullText() string {
	texts := make([]string, len(t.Segments))
	for i, s := range t.Segments {
		texts[i] = s.Text
	}
	return normalizeText(strings.Join(texts, " "))
}

// Texts returns the segment texts in order.
func (t *Transcript) Texts() []string {
	texts := make([]string, len(t.Segments))
	for i, s := range t.Segments {
		texts[i] = s.Text
	}
	return texts
}

// Clone returns a deep copy.
func (t *Transcript) Clone() *Transcript {
	c := *t
	c.Segments = append([]Segment(nil), t.Segments...)
	return &c
}

// Shift returns a copy with every segment moved by offset seconds.
func (t *Transcript) Shift(offset float64) *Transcript {
	c := t.Clone()
	for i := range c.Segments {
		c.Segments[i].Start += offset
		c.Segments[i].End += offset
	}
	return c
}

// normalizeText collapses whitespace runs to single spaces, drops control
// characters and replaces invalid UTF-8 with U+FFFD, so every rendered format
// carries the text unchanged.
func normalizeText(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
