// Package report renders normalized records for people and spreadsheets.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/quidome/focalstats/pkg/meta"
)

// Header is the first row written by WriteCSV.
var Header = []string{"file", "model", "lens", "focal_mm", "focal_35mm", "fnumber", "exposure", "iso", "datetime"}

// WriteCSV writes one row per record. Absent values are empty cells and
// focal_35mm is the resolved equivalent, estimated or not.
func WriteCSV(w io.Writer, records []meta.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.File,
			r.Model,
			r.Lens,
			formatFloat(r.FocalMM),
			formatFloat(r.Focal35mm),
			formatFloat(r.FNumber),
			r.Exposure,
			formatFloat(r.ISO),
			r.DateTime,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.File, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes records to path, replacing any existing file.
func SaveCSV(path string, records []meta.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close csv: %w", cerr)
		}
	}()
	return WriteCSV(f, records)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
