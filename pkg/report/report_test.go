package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/quidome/focalstats/pkg/aggregate"
	"github.com/quidome/focalstats/pkg/crop"
	"github.com/quidome/focalstats/pkg/meta"
	"github.com/quidome/focalstats/pkg/normalize"
)

func ptr(v float64) *float64 { return &v }

func TestWriteCSV(t *testing.T) {
	records := []meta.Record{
		{
			File:                  "a.jpg",
			Model:                 "X-T5",
			Lens:                  "XF16-80mm, OIS",
			FocalMM:               ptr(23),
			Focal35mm:             ptr(34.5),
			EquivalentIsEstimated: true,
			FNumber:               ptr(1.4),
			Exposure:              "1/250",
			ISO:                   ptr(400),
			DateTime:              "2024:05:01 10:20:30",
		},
		{File: "b.jpg"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "file,model,lens,focal_mm,focal_35mm,fnumber,exposure,iso,datetime\n" +
		"a.jpg,X-T5,\"XF16-80mm, OIS\",23,34.5,1.4,1/250,400,2024:05:01 10:20:30\n" +
		"b.jpg,,,,,,,,\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv\n got: %q\nwant: %q", buf.String(), want)
	}
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := SaveCSV(path, []meta.Record{{File: "a.jpg", Model: "OM-1"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := [][]string{Header, {"a.jpg", "OM-1", "", "", "", "", "", "", ""}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("unexpected rows\n got: %v\nwant: %v", rows, want)
	}

	if err := SaveCSV(filepath.Join(t.TempDir(), "missing", "out.csv"), nil); err == nil {
		t.Fatalf("expected an error for a missing directory")
	}
}

func TestSummary(t *testing.T) {
	records := []meta.Record{
		{Model: "X-T5", Lens: "XF23", Focal35mm: ptr(35)},
		{Model: "X-T5", Lens: "XF23", Focal35mm: ptr(50)},
		{Model: "X-T5", Lens: "XF23", Focal35mm: ptr(36)},
		{Model: "ILCE-7M4", Focal35mm: ptr(24)},
		{Model: "ILCE-7M4"},
	}

	var buf bytes.Buffer
	if err := Summary(&buf, records, aggregate.View{BinWidth: 5}, 15); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"=== 35mm equivalent, bin 5 mm ===",
		"35mm :      2  ( 50.0%)",
		"50mm :      1  ( 25.0%)",
		"25mm :      1  ( 25.0%)",
		"Total: 4",
		"=== Top 5 per camera ===",
		"- ILCE-7M4: 25mm x1",
		"- X-T5: 35mm x2, 50mm x1",
		"=== Top 5 per lens ===",
		"- XF23: 35mm x2, 50mm x1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	if strings.Index(out, "35mm :") > strings.Index(out, "50mm :") {
		t.Fatalf("expected bins ordered by count:\n%s", out)
	}
}

func TestSummary_ZeroFocalSkipped(t *testing.T) {
	raws := []meta.RawRecord{
		{File: "a.jpg", Model: "ILCE-7M4", FocalMM: normalize.Rational{Num: 0, Den: 0}},
		{File: "b.jpg", Model: "ILCE-7M4", FocalMM: normalize.Rational{Num: 0, Den: 1}},
		{File: "c.jpg", Model: "ILCE-7M4", FocalMM: normalize.Rational{Num: 50, Den: 1}},
	}
	records := meta.NormalizeAll(raws, crop.Estimator{}, time.UTC)

	var buf bytes.Buffer
	if err := Summary(&buf, records, aggregate.View{Metric: aggregate.MetricFocal, BinWidth: 1}, 15); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"50mm :      1  (100.0%)",
		"Total: 1",
		"- ILCE-7M4: 50mm x1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, " 0mm") {
		t.Fatalf("expected no 0mm bin:\n%s", out)
	}
}

func TestSummary_TopLimitsOverallBins(t *testing.T) {
	records := []meta.Record{
		{Focal35mm: ptr(24)},
		{Focal35mm: ptr(24)},
		{Focal35mm: ptr(50)},
	}

	var buf bytes.Buffer
	if err := Summary(&buf, records, aggregate.View{BinWidth: 1}, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "50mm") {
		t.Fatalf("expected only the top bin:\n%s", out)
	}
	if !strings.Contains(out, "Total: 3") {
		t.Fatalf("expected the total over all bins:\n%s", out)
	}
	if strings.Contains(out, "per camera") {
		t.Fatalf("expected no camera section without models:\n%s", out)
	}
}

func TestSummary_Shutter(t *testing.T) {
	ev := 7.965784284662087 // 1/250
	records := []meta.Record{{Model: "X-T5", ShutterEV: &ev}}

	var buf bytes.Buffer
	view := aggregate.View{Metric: aggregate.MetricShutter, BinWidth: 1}
	if err := Summary(&buf, records, view, 15); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "1/256") {
		t.Fatalf("expected a shutter label, got:\n%s", buf.String())
	}
}

func TestSummary_NoData(t *testing.T) {
	var buf bytes.Buffer
	if err := Summary(&buf, []meta.Record{{Model: "X-T5"}}, aggregate.View{}, 15); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != NoData {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
