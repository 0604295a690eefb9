package aggregate

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/quidome/focalstats/pkg/meta"
)

// ErrUnknownMetric is returned by ParseMetric for unsupported names.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric selects which measurement of a record is aggregated.
type Metric string

const (
	MetricFocal35 Metric = "focal35" // 35 mm-equivalent focal length, mm
	MetricFocal   Metric = "focal"   // physical focal length, mm
	MetricShutter Metric = "shutter" // shutter speed in stops (EV)
	MetricISO     Metric = "iso"
)

// Metrics lists the supported metrics.
var Metrics = []Metric{MetricFocal35, MetricFocal, MetricShutter, MetricISO}

// ParseMetric returns the Metric named s.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownMetric, s)
}

// Value extracts the metric from r; ok is false when r has no such value.
func (m Metric) Value(r meta.Record) (float64, bool) {
	var p *float64
	switch m {
	case MetricFocal35:
		p = r.Focal35mm
	case MetricFocal:
		p = r.FocalMM
	case MetricShutter:
		p = r.ShutterEV
	case MetricISO:
		p = r.ISO
	}
	if p == nil {
		return 0, false
	}
	if (m == MetricFocal35 || m == MetricFocal) && *p <= 0 {
		return 0, false
	}
	return *p, true
}

// MinWidth is the smallest bin width that makes sense for m.
func (m Metric) MinWidth() float64 {
	switch m {
	case MetricShutter:
		return 0.01
	case MetricISO:
		return 10
	default:
		return 1
	}
}

// DefaultWidth is the bin width used when none is configured.
func (m Metric) DefaultWidth() float64 {
	switch m {
	case MetricShutter:
		return 1
	case MetricISO:
		return 100
	default:
		return 5
	}
}

// Width returns w clamped to MinWidth, or DefaultWidth when w <= 0.
func (m Metric) Width(w float64) float64 {
	if !(w > 0) {
		return m.DefaultWidth()
	}
	return math.Max(w, m.MinWidth())
}

func (m Metric) Description() string {
	switch m {
	case MetricFocal:
		return "focal length"
	case MetricShutter:
		return "shutter speed"
	case MetricISO:
		return "ISO"
	default:
		return "35mm equivalent"
	}
}

// Unit is a short unit label for bin values.
func (m Metric) Unit() string {
	switch m {
	case MetricShutter:
		return "EV"
	case MetricISO:
		return "ISO"
	default:
		return "mm"
	}
}

// Label formats a bin value for display.
func (m Metric) Label(bin float64) string {
	switch m {
	case MetricShutter:
		return ShutterLabel(bin)
	case MetricISO:
		return "ISO " + strconv.FormatFloat(bin, 'f', -1, 64)
	default:
		return strconv.FormatFloat(bin, 'f', -1, 64) + "mm"
	}
}

// ShutterLabel renders a stop value as a shutter speed: "1/250" below one
// second, "2s" otherwise.
func ShutterLabel(ev float64) string {
	seconds := 1 / math.Pow(2, ev)
	if seconds >= 1 {
		return fmt.Sprintf("%ds", int(math.Round(seconds)))
	}
	return fmt.Sprintf("1/%d", int(math.Round(1/seconds)))
}
