package meta

import (
	"fmt"
	"time"
)

// Timestamp string layout: YYYYMMDDTHHMMSS followed by up to six microsecond
// digits and a numeric timezone offset, e.g. "20230102T030405060708+0000".
// The same string appears in archive filenames, archive metadata and the
// box index.

const timestampBaseLayout = "20060102T150405"

// FormatTimestamp renders t in the canonical form: full microsecond
// precision and a fixed-width ±HHMM offset.
func FormatTimestamp(t time.Time) string {
	base := t.Format(timestampBaseLayout)
	micros := t.Nanosecond() / 1000
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%06d%s%02d%02d", base, micros, sign, offset/3600, (offset%3600)/60)
}

// ParseTimestamp parses a timestamp string. Fractional digits may be
// shortened or absent; the offset may be "Z", "±HHMM" or "±HH:MM".
func ParseTimestamp(s string) (time.Time, error) {
	if len(s) < len(timestampBaseLayout) {
		return time.Time{}, fmt.Errorf("timestamp %q: too short", s)
	}
	base, rest := s[:len(timestampBaseLayout)], s[len(timestampBaseLayout):]

	fracEnd := 0
	for fracEnd < len(rest) && rest[fracEnd] >= '0' && rest[fracEnd] <= '9' {
		fracEnd++
	}
	frac, offsetPart := rest[:fracEnd], rest[fracEnd:]
	if len(frac) > 6 {
		return time.Time{}, fmt.Errorf("timestamp %q: more than microsecond precision", s)
	}

	loc, err := parseOffset(offsetPart)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}

	t, err := time.ParseInLocation(timestampBaseLayout, base, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}

	micros := 0
	for i := 0; i < 6; i++ {
		micros *= 10
		if i < len(frac) {
			micros += int(frac[i] - '0')
		}
	}
	return t.Add(time.Duration(micros) * time.Microsecond), nil
}

func parseOffset(s string) (*time.Location, error) {
	switch {
	case s == "Z" || s == "z":
		return time.UTC, nil
	case len(s) == 0:
		return nil, fmt.Errorf("missing timezone offset")
	}
	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return nil, fmt.Errorf("bad timezone offset %q", s)
	}
	digits := s[1:]
	if len(digits) == 5 && digits[2] == ':' {
		digits = digits[:2] + digits[3:]
	}
	if len(digits) != 4 {
		return nil, fmt.Errorf("bad timezone offset %q", s)
	}
	for i := 0; i < 4; i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return nil, fmt.Errorf("bad timezone offset %q", s)
		}
	}
	hh := int(digits[0]-'0')*10 + int(digits[1]-'0')
	mm := int(digits[2]-'0')*10 + int(digits[3]-'0')
	seconds := sign * (hh*3600 + mm*60)
	if seconds == 0 {
		return time.UTC, nil
	}
	return time.FixedZone(s, seconds), nil
}

// TimestampMicros converts a parsed timestamp to integer microseconds since
// the Unix epoch, normalized to UTC. This is the representation used for all
// time comparisons and for the index's freeze_time_unix column.
func TimestampMicros(t time.Time) int64 {
	return t.UnixMicro()
}
