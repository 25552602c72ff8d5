package subtitle

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. The concrete error values below
// carry the details (segment index, block index, line counts).
var (
	ErrInvalidSegment    = errors.New("invalid segment")
	ErrMalformedSubtitle = errors.New("malformed subtitle")
	ErrEditMismatch      = errors.New("edit does not match transcript")
	ErrUnsupportedFormat = errors.New("unsupported transcript format")
)

// SegmentError reports a segment with a negative start, an end before its
// start, or a start earlier than the previous segment.
type SegmentError struct {
	Index  int
	Start  float64
	End    float64
	Reason string
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("invalid segment %d (%.3f --> %.3f): %s", e.Index, e.Start, e.End, e.Reason)
}

func (e *SegmentError) Is(target error) bool { return target == ErrInvalidSegment }

// MalformedError reports a subtitle block that has no parseable timing line.
// Block is the 0-based index of the block among the file's cue blocks.
type MalformedError struct {
	Block  int
	Line   string
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("malformed subtitle block %d: %s (%q)", e.Block, e.Reason, e.Line)
	}
	return fmt.Sprintf("malformed subtitle block %d: %s", e.Block, e.Reason)
}

func (e *MalformedError) Is(target error) bool { return target == ErrMalformedSubtitle }

// EditMismatchError is returned when edited text cannot be mapped line by
// line onto the existing segments.
type EditMismatchError struct {
	Segments int
	Lines    int
}

func (e *EditMismatchError) Error() string {
	return fmt.Sprintf("edited text has %d lines but transcript has %d segments", e.Lines, e.Segments)
}

func (e *EditMismatchError) Is(target error) bool { return target == ErrEditMismatch }

// UnsupportedFormatError names the tag or content type that was rejected.
type UnsupportedFormatError struct {
	Tag string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Tag == "" {
		return ErrUnsupportedFormat.Error()
	}
	return fmt.Sprintf("%s: %q", ErrUnsupportedFormat.Error(), e.Tag)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }
