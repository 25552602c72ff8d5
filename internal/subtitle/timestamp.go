package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// timingRe matches a cue timing line. Hours are optional (WebVTT allows
// MM:SS.mmm) and both millisecond separators are accepted. Anything after
// the end timestamp (VTT cue settings) is ignored.
var timingRe = regexp.MustCompile(`^\s*((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})\s*-->\s*((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})(?:\s|$)`)

var clockRe = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{2})[.,](\d{1,3})$`)

// clock is a timestamp split into its display fields.
type clock struct {
	hours, minutes, seconds, millis int64
}

// splitSeconds breaks seconds into clock fields. Milliseconds are rounded and
// a rounding overflow carries into seconds, minutes and hours, so 59.9996s
// becomes 00:01:00.000 rather than 00:00:59.1000.
func splitSeconds(s float64) clock {
	if s < 0 || math.IsNaN(s) {
		s = 0
	}
	whole := math.Floor(s)
	millis := int64(math.Round((s - whole) * 1000))
	total := int64(whole)
	if millis >= 1000 {
		total += millis / 1000
		millis %= 1000
	}
	return clock{
		hours:   total / 3600,
		minutes: (total % 3600) / 60,
		seconds: total % 60,
		millis:  millis,
	}
}

// FormatTimestamp renders seconds as HH:MM:SS<sep>mmm. Hours grow past two
// digits when needed.
func FormatTimestamp(seconds float64, sep byte) string {
	c := splitSeconds(seconds)
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", c.hours, c.minutes, c.seconds, sep, c.millis)
}

// FormatSRTTimestamp renders HH:MM:SS,mmm.
func FormatSRTTimestamp(seconds float64) string {
	return FormatTimestamp(seconds, ',')
}

// FormatVTTTimestamp renders HH:MM:SS.mmm.
func FormatVTTTimestamp(seconds float64) string {
	return FormatTimestamp(seconds, '.')
}

// ParseTimestamp parses [H:]MM:SS[.,]mmm into seconds.
func ParseTimestamp(ts string) (float64, error) {
	m := clockRe.FindStringSubmatch(ts)
	if m == nil {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}

	var h int64
	if m[1] != "" {
		h, _ = strconv.ParseInt(m[1], 10, 64)
	}
	mins, _ := strconv.ParseInt(m[2], 10, 64)
	secs, _ := strconv.ParseInt(m[3], 10, 64)
	if mins > 59 || secs > 59 {
		return 0, fmt.Errorf("invalid timestamp %q: field out of range", ts)
	}

	// "5" after the separator means 500ms, not 5ms.
	frac := m[4]
	for len(frac) < 3 {
		frac += "0"
	}
	ms, _ := strconv.ParseInt(frac, 10, 64)

	totalMs := ((h*60+mins)*60+secs)*1000 + ms
	return float64(totalMs) / 1000.0, nil
}

// parseTimingLine extracts start and end seconds from a cue timing line.
func parseTimingLine(line string) (start, end float64, ok bool) {
	m := timingRe.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	start, err := ParseTimestamp(m[1])
	if err != nil {
		return 0, 0, false
	}
	end, err = ParseTimestamp(m[2])
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// displayTime is the short badge shown next to HTML segments: MM:SS, or
// H:MM:SS once the media runs past an hour.
func displayTime(seconds float64) string {
	c := splitSeconds(math.Floor(seconds))
	if c.hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", c.hours, c.minutes, c.seconds)
	}
	return fmt.Sprintf("%02d:%02d", c.minutes, c.seconds)
}

// humanDuration renders 1h 2m 3s, 2m 3s or 3s.
func humanDuration(seconds float64) string {
	c := splitSeconds(math.Floor(seconds))
	switch {
	case c.hours > 0:
		return fmt.Sprintf("%dh %dm %ds", c.hours, c.minutes, c.seconds)
	case c.minutes > 0:
		return fmt.Sprintf("%dm %ds", c.minutes, c.seconds)
	default:
		return fmt.Sprintf("%ds", c.seconds)
	}
}
