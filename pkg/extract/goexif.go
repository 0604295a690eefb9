package extract

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/quidome/focalstats/pkg/meta"
	"github.com/quidome/focalstats/pkg/normalize"
)

const (
	tagModel            = 0x0110
	tagDateTime         = 0x0132
	tagExifIFD          = 0x8769
	tagExposureTime     = 0x829A
	tagFNumber          = 0x829D
	tagISO              = 0x8827
	tagDateTimeOriginal = 0x9003
	tagFocalLength      = 0x920A
	tagFocalLength35    = 0xA405 // FocalLengthIn35mmFilm, 41989
	tagLensModel        = 0xA434
)

// GoExif reads the EXIF block with github.com/rwcarlsen/goexif and picks the
// record fields by tag id.
type GoExif struct{}

func (GoExif) Name() string { return "goexif" }

func (GoExif) Read(r io.Reader) (meta.RawRecord, error) {
	x, err := exif.Decode(r)
	if x == nil {
		if err == nil {
			return meta.RawRecord{}, ErrNoExif
		}
		return meta.RawRecord{}, fmt.Errorf("decode exif: %w", err)
	}
	// A non-nil x with an error is a partial decode; keep what was read.

	tags := make(map[uint16]*tiff.Tag)
	_ = x.Walk(walkFunc(func(_ exif.FieldName, tag *tiff.Tag) error {
		if _, seen := tags[tag.Id]; !seen {
			tags[tag.Id] = tag
		}
		return nil
	}))

	value := func(id uint16) any {
		tag, ok := tags[id]
		if !ok {
			return nil
		}
		return tagValue(tag)
	}
	text := func(id uint16) string {
		return textOf(value(id))
	}

	return meta.RawRecord{
		Model:     text(tagModel),
		Lens:      text(tagLensModel),
		FocalMM:   value(tagFocalLength),
		Focal35mm: value(tagFocalLength35),
		FNumber:   value(tagFNumber),
		Exposure:  text(tagExposureTime),
		ISO:       value(tagISO),
		DateTime:  text(tagDateTimeOriginal),
	}, nil
}

type walkFunc func(exif.FieldName, *tiff.Tag) error

func (f walkFunc) Walk(name exif.FieldName, tag *tiff.Tag) error { return f(name, tag) }

// tagValue returns the first element of tag as string, int64, float64 or
// normalize.Rational; nil when it cannot be read.
func tagValue(tag *tiff.Tag) any {
	if tag.Count == 0 {
		return nil
	}
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return nil
		}
		return strings.TrimSpace(strings.TrimRight(s, "\x00"))
	case tiff.RatVal:
		num, den, err := tag.Rat2(0)
		if err != nil {
			return nil
		}
		return normalize.Rational{Num: num, Den: den}
	case tiff.IntVal:
		v, err := tag.Int64(0)
		if err != nil {
			return nil
		}
		return v
	case tiff.FloatVal:
		v, err := tag.Float(0)
		if err != nil {
			return nil
		}
		return v
	default:
		return nil
	}
}

func textOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case normalize.Rational:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
