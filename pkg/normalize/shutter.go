package normalize

import (
	"math"
	"strconv"
	"strings"
)

// ShutterStops converts an exposure-time string ("1/250", "0.004", "2",
// "1/250 sec") into seconds and stops, where stops = log2(1/seconds).
//
// The string is parsed as-is first; on failure every character other than a
// digit, '.' or '/' is stripped and parsing is retried once. Non-positive
// durations are rejected.
func ShutterStops(raw string) (seconds, ev float64, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, 0, false
	}

	v, parsed := parseExposure(s)
	if !parsed {
		v, parsed = parseExposure(stripExposure(s))
	}
	if !parsed || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, 0, false
	}
	return v, math.Log2(1 / v), true
}

// parseExposure is strict: "a/b" requires a non-zero denominator.
func parseExposure(s string) (float64, bool) {
	if a, b, found := strings.Cut(s, "/"); found {
		num, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return 0, false
		}
		den, err := strconv.ParseFloat(b, 64)
		if err != nil || den == 0 {
			return 0, false
		}
		return num / den, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func stripExposure(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '/' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
