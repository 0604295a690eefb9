package aggregate

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/quidome/focalstats/pkg/meta"
)

// Key derives a group name from a record. An empty key means "no group".
type Key func(meta.Record) string

// ByModel groups records by camera model.
func ByModel(r meta.Record) string { return r.Model }

// ByLens groups records by lens model.
func ByLens(r meta.Record) string { return r.Lens }

// TopK partitions records by group and returns, per group, the k most
// populated bins of value (see Top for ordering). Records with an empty group
// key or no value are skipped.
func TopK(records []meta.Record, group Key, value Metric, width float64, k int) map[string]Distribution {
	values := make(map[string][]float64)
	for _, r := range records {
		g := group(r)
		if g == "" {
			continue
		}
		v, ok := value.Value(r)
		if !ok {
			continue
		}
		values[g] = append(values[g], v)
	}

	out := make(map[string]Distribution, len(values))
	for g, vs := range values {
		out[g] = Top(vs, width, k)
	}
	return out
}

// Groups returns the keys of a TopK result in ascending order.
func Groups(m map[string]Distribution) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// View is the selection and binning configuration for one report. It is a
// plain value; nothing in this package holds on to it.
type View struct {
	Metric   Metric
	BinWidth float64

	// Cameras and Lenses restrict records to the listed models and lenses.
	// Empty means no restriction. Records without a model (lens) are kept.
	Cameras []string
	Lenses  []string

	// Since and Until bound the capture time (inclusive). A zero bound is
	// open. When either is set, records with an unknown capture time are
	// dropped.
	Since time.Time
	Until time.Time
}

// Width is the effective bin width.
func (v View) Width() float64 {
	return v.metric().Width(v.BinWidth)
}

// Keep reports whether r passes the view's selection.
func (v View) Keep(r meta.Record) bool {
	if len(v.Cameras) > 0 && r.Model != "" && !slices.Contains(v.Cameras, r.Model) {
		return false
	}
	if len(v.Lenses) > 0 && r.Lens != "" && !slices.Contains(v.Lenses, r.Lens) {
		return false
	}
	if v.Since.IsZero() && v.Until.IsZero() {
		return true
	}
	if r.TakenAt.IsZero() {
		return false
	}
	if !v.Since.IsZero() && r.TakenAt.Before(v.Since) {
		return false
	}
	if !v.Until.IsZero() && r.TakenAt.After(v.Until) {
		return false
	}
	return true
}

// Filter returns the records kept by the view.
func (v View) Filter(records []meta.Record) []meta.Record {
	out := make([]meta.Record, 0, len(records))
	for _, r := range records {
		if v.Keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Values returns the metric values of the kept records, skipping absent ones.
func (v View) Values(records []meta.Record) []float64 {
	m := v.metric()
	var out []float64
	for _, r := range records {
		if !v.Keep(r) {
			continue
		}
		if val, ok := m.Value(r); ok {
			out = append(out, val)
		}
	}
	return out
}

// Distribution bins the kept values in ascending order.
func (v View) Distribution(records []meta.Record) Distribution {
	return NewDistribution(v.Values(records), v.Width())
}

// Top returns the k most populated bins of the kept values.
func (v View) Top(records []meta.Record, k int) Distribution {
	return Top(v.Values(records), v.Width(), k)
}

// Label renders a bin of the view's metric.
func (v View) Label(bin float64) string {
	return v.metric().Label(bin)
}

// Title describes the metric and bin width, e.g. "35mm equivalent, bin 5 mm".
func (v View) Title() string {
	m := v.metric()
	return fmt.Sprintf("%s, bin %s %s", m.Description(), strconv.FormatFloat(v.Width(), 'f', -1, 64), m.Unit())
}

// TopK groups the kept records by key.
func (v View) TopK(records []meta.Record, key Key, k int) map[string]Distribution {
	return TopK(v.Filter(records), key, v.metric(), v.Width(), k)
}

func (v View) metric() Metric {
	if v.Metric == "" {
		return MetricFocal35
	}
	return v.Metric
}
