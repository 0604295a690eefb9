// Package meta defines the per-file capture records flowing through the
// pipeline: the raw record produced by extraction and its normalized form.
package meta

import (
	"time"

	"github.com/quidome/focalstats/pkg/crop"
	"github.com/quidome/focalstats/pkg/normalize"
	"github.com/quidome/focalstats/pkg/takenat"
)

// RawRecord is what a metadata reader found for one file.
//
// Numeric fields keep the encoding the reader delivered (normalize.Rational,
// "a/b" strings, json.Number, integers); nil means absent. Empty strings mean
// absent.
type RawRecord struct {
	File      string
	Model     string
	Lens      string
	FocalMM   any
	Focal35mm any
	FNumber   any
	Exposure  string
	ISO       any
	DateTime  string
}

// Incomplete reports whether the fields that decide further fallback reads
// (focal length and model) are still missing. A focal length of zero, as
// written for manual lenses, counts as missing.
func (r RawRecord) Incomplete() bool {
	return !knownFocal(r.FocalMM) || r.Model == ""
}

// Merge fills the absent fields of r from other. Fields already set in r are
// never replaced.
func (r RawRecord) Merge(other RawRecord) RawRecord {
	if r.File == "" {
		r.File = other.File
	}
	if r.Model == "" {
		r.Model = other.Model
	}
	if r.Lens == "" {
		r.Lens = other.Lens
	}
	if r.FocalMM == nil || (!knownFocal(r.FocalMM) && knownFocal(other.FocalMM)) {
		r.FocalMM = other.FocalMM
	}
	if r.Focal35mm == nil {
		r.Focal35mm = other.Focal35mm
	}
	if r.FNumber == nil {
		r.FNumber = other.FNumber
	}
	if r.Exposure == "" {
		r.Exposure = other.Exposure
	}
	if r.ISO == nil {
		r.ISO = other.ISO
	}
	if r.DateTime == "" {
		r.DateTime = other.DateTime
	}
	return r
}

// Record is a normalized RawRecord. Nil pointers are absent values.
type Record struct {
	File     string
	Model    string
	Lens     string
	FocalMM  *float64
	FNumber  *float64
	Exposure string
	ISO      *float64
	DateTime string

	// Focal35mm is either the value recorded by the camera or, when
	// EquivalentIsEstimated is set, one derived from a crop factor.
	Focal35mm             *float64
	EquivalentIsEstimated bool

	ShutterSeconds *float64
	ShutterEV      *float64

	TakenAt       time.Time
	TakenAtSource takenat.Source
}

// Normalize coerces raw's numeric fields to floats, resolves the 35 mm
// equivalent with est and derives shutter stops and capture time.
func Normalize(raw RawRecord, est crop.Estimator, loc *time.Location) Record {
	rec := Record{
		File:     raw.File,
		Model:    raw.Model,
		Lens:     raw.Lens,
		FocalMM:  focalPtr(raw.FocalMM),
		FNumber:  normalize.Ptr(raw.FNumber),
		Exposure: raw.Exposure,
		ISO:      normalize.Ptr(raw.ISO),
		DateTime: raw.DateTime,
	}

	rec.Focal35mm, rec.EquivalentIsEstimated = est.Estimate(rec.FocalMM, rec.Model, normalize.Ptr(raw.Focal35mm))

	if seconds, ev, ok := normalize.ShutterStops(raw.Exposure); ok {
		rec.ShutterSeconds = &seconds
		rec.ShutterEV = &ev
	}

	taken := takenat.Determine(raw.DateTime, raw.File, loc)
	rec.TakenAt = taken.TakenAt
	rec.TakenAtSource = taken.Source

	return rec
}

// knownFocal reports whether v is a usable focal length. Cameras record 0 or
// 0/0 when the lens does not report one.
func knownFocal(v any) bool {
	f, ok := normalize.ToFloat(v)
	return ok && f > 0
}

func focalPtr(v any) *float64 {
	if !knownFocal(v) {
		return nil
	}
	return normalize.Ptr(v)
}

// NormalizeAll normalizes every record, preserving order.
func NormalizeAll(raws []RawRecord, est crop.Estimator, loc *time.Location) []Record {
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw, est, loc))
	}
	return out
}

// Models returns the distinct non-empty camera models in first-seen order.
func Models(records []Record) []string {
	seen := make(map[string]bool)
	var models []string
	for _, r := range records {
		if r.Model == "" || seen[r.Model] {
			continue
		}
		seen[r.Model] = true
		models = append(models, r.Model)
	}
	return models
}
