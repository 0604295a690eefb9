package takenat

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Source describes where a capture time was derived from.
//
// The priority order is:
//  1. metadata
//  2. filename
//  3. unknown
type Source string

const (
	SourceMetadata Source = "metadata"
	SourceFilename Source = "filename"
	SourceUnknown  Source = "unknown"
)

// Result contains a best-effort capture time and its source.
type Result struct {
	TakenAt time.Time
	Source  Source
}

// metadataLayouts are tried in order. EXIF timestamps usually carry no zone.
var metadataLayouts = []string{
	"2006:01:02 15:04:05",
	"2006:01:02 15:04:05Z07:00",
	"2006:01:02 15:04:05.999999999",
	"2006:01:02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Determine returns the capture time for a record with the given metadata
// timestamp string and file path. Timestamps without a zone are interpreted
// in loc; a nil loc means time.Local.
func Determine(datetime, path string, loc *time.Location) Result {
	if loc == nil {
		loc = time.Local
	}
	if t, ok := ParseMetadata(datetime, loc); ok {
		return Result{TakenAt: t, Source: SourceMetadata}
	}
	if t, ok := parseFromFilename(filepath.Base(path), loc); ok {
		return Result{TakenAt: t, Source: SourceFilename}
	}
	return Result{Source: SourceUnknown}
}

// ParseMetadata parses an EXIF-style timestamp ("2006:01:02 15:04:05" with
// optional fraction and offset). All-zero placeholders are rejected.
func ParseMetadata(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	if s == "" || strings.HasPrefix(s, "0000") {
		return time.Time{}, false
	}
	for _, layout := range metadataLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var (
	reImgVidDateTime = regexp.MustCompile(`(?i)^(?:IMG|VID)_(\d{8})_(\d{6})`)
	rePxlDateTimeMs  = regexp.MustCompile(`(?i)^PXL_(\d{8})_(\d{6})\d{3,}`)
	reDashDots       = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[ _](\d{2})\.(\d{2})\.(\d{2})`)
	reImgWhatsApp    = regexp.MustCompile(`(?i)^IMG-(\d{8})-WA\d+`)
)

func parseFromFilename(filename string, loc *time.Location) (time.Time, bool) {
	if m := reImgVidDateTime.FindStringSubmatch(filename); m != nil {
		return fromParts(loc, m[1][0:4], m[1][4:6], m[1][6:8], m[2][0:2], m[2][2:4], m[2][4:6])
	}
	if m := rePxlDateTimeMs.FindStringSubmatch(filename); m != nil {
		return fromParts(loc, m[1][0:4], m[1][4:6], m[1][6:8], m[2][0:2], m[2][2:4], m[2][4:6])
	}
	if m := reDashDots.FindStringSubmatch(filename); m != nil {
		return fromParts(loc, m[1:]...)
	}
	if m := reImgWhatsApp.FindStringSubmatch(filename); m != nil {
		return fromParts(loc, m[1][0:4], m[1][4:6], m[1][6:8], "00", "00", "00")
	}
	return time.Time{}, false
}

// fromParts builds a time from year, month, day, hour, minute, second strings.
// Out-of-range fields are rejected rather than normalized.
func fromParts(loc *time.Location, parts ...string) (time.Time, bool) {
	if len(parts) != 6 {
		return time.Time{}, false
	}
	var n [6]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, false
		}
		n[i] = v
	}
	t := time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], 0, loc)
	if t.Month() != time.Month(n[1]) || t.Day() != n[2] || t.Hour() != n[3] || t.Minute() != n[4] || t.Second() != n[5] {
		return time.Time{}, false
	}
	return t, true
}
