package extract

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/tiff"

	"github.com/quidome/focalstats/pkg/meta"
)

const (
	jpegSOI          = 0xD8
	jpegAPP1         = 0xE1
	jpegSOS          = 0xDA
	exifHeaderLength = 6

	ifdImage = "Image"
	ifdExif  = "EXIF"
)

// ifdTagNames maps qualified tag names ("<IFD> <Tag>") to tag ids. Several
// names may share an id: PhotographicSensitivity is the EXIF 2.3 name of
// ISOSpeedRatings.
var ifdTagNames = map[string]uint16{
	"Image Model":                  tagModel,
	"Image DateTime":               tagDateTime,
	"EXIF LensModel":               tagLensModel,
	"EXIF FocalLength":             tagFocalLength,
	"EXIF FocalLengthIn35mmFilm":   tagFocalLength35,
	"EXIF FNumber":                 tagFNumber,
	"EXIF ExposureTime":            tagExposureTime,
	"EXIF ISOSpeedRatings":         tagISO,
	"EXIF PhotographicSensitivity": tagISO,
	"EXIF DateTimeOriginal":        tagDateTimeOriginal,
}

// IFDReader locates the APP1 segment itself, decodes its TIFF block with
// goexif's tiff package and looks fields up by qualified tag name. It does not
// depend on goexif's JPEG scanning, so it still reads files GoExif rejects.
type IFDReader struct{}

func (IFDReader) Name() string { return "ifd" }

func (IFDReader) Read(r io.Reader) (meta.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return meta.RawRecord{}, fmt.Errorf("read image: %w", err)
	}

	dirs, err := decodeDirs(data)
	if err != nil {
		return meta.RawRecord{}, err
	}

	get := func(names ...string) any {
		for _, name := range names {
			ifd, _, _ := strings.Cut(name, " ")
			if tag, ok := dirs[ifd][ifdTagNames[name]]; ok {
				if v := tagValue(tag); v != nil {
					return v
				}
			}
		}
		return nil
	}

	return meta.RawRecord{
		Model:     textOf(get("Image Model")),
		Lens:      textOf(get("EXIF LensModel")),
		FocalMM:   get("EXIF FocalLength"),
		Focal35mm: get("EXIF FocalLengthIn35mmFilm"),
		FNumber:   get("EXIF FNumber"),
		Exposure:  textOf(get("EXIF ExposureTime")),
		ISO:       get("EXIF ISOSpeedRatings", "EXIF PhotographicSensitivity"),
		DateTime:  textOf(get("EXIF DateTimeOriginal", "Image DateTime")),
	}, nil
}

// decodeDirs returns the tags of IFD0 and the EXIF sub-IFD, keyed by IFD name
// and tag id.
func decodeDirs(data []byte) (map[string]map[uint16]*tiff.Tag, error) {
	block, err := findExifBlock(data)
	if err != nil {
		return nil, err
	}

	raw := block[exifHeaderLength:]
	t, err := tiff.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExif, err)
	}
	if len(t.Dirs) == 0 {
		return nil, fmt.Errorf("%w: no image directory", ErrInvalidExif)
	}

	dirs := map[string]map[uint16]*tiff.Tag{
		ifdImage: tagsByID(t.Dirs[0]),
	}

	if ptr, ok := dirs[ifdImage][tagExifIFD]; ok {
		// a broken sub-IFD still leaves the IFD0 values usable
		if sub, err := decodeSubDir(raw, ptr, t.Order); err == nil {
			dirs[ifdExif] = tagsByID(sub)
		}
	}
	return dirs, nil
}

func decodeSubDir(raw []byte, ptr *tiff.Tag, order binary.ByteOrder) (*tiff.Dir, error) {
	if ptr.Format() != tiff.IntVal || ptr.Count == 0 {
		return nil, fmt.Errorf("%w: bad exif pointer", ErrInvalidExif)
	}
	offset, err := ptr.Int64(0)
	if err != nil {
		return nil, err
	}
	if offset <= 0 || offset >= int64(len(raw)) {
		return nil, fmt.Errorf("%w: exif pointer out of range", ErrInvalidExif)
	}

	r := bytes.NewReader(raw)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	dir, _, err := tiff.DecodeDir(r, order)
	return dir, err
}

func tagsByID(dir *tiff.Dir) map[uint16]*tiff.Tag {
	tags := make(map[uint16]*tiff.Tag, len(dir.Tags))
	for _, tag := range dir.Tags {
		if _, seen := tags[tag.Id]; !seen {
			tags[tag.Id] = tag
		}
	}
	return tags
}

func findExifBlock(data []byte) ([]byte, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != jpegSOI {
		return nil, fmt.Errorf("%w: not a jpeg image", ErrInvalidExif)
	}

	offset := 2
	for offset+4 <= len(data) {
		if data[offset] != 0xFF {
			return nil, fmt.Errorf("%w: bad jpeg marker", ErrInvalidExif)
		}

		marker := data[offset+1]
		if marker == jpegSOS {
			break
		}

		segmentLength := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
		if segmentLength < 2 || offset+2+segmentLength > len(data) {
			return nil, fmt.Errorf("%w: bad jpeg segment length", ErrInvalidExif)
		}

		segmentStart := offset + 4
		segmentEnd := offset + 2 + segmentLength

		if marker == jpegAPP1 && segmentEnd-segmentStart > exifHeaderLength {
			segment := data[segmentStart:segmentEnd]
			if string(segment[:exifHeaderLength]) == "Exif\x00\x00" {
				return segment, nil
			}
		}

		offset = segmentEnd
	}

	return nil, ErrNoExif
}
