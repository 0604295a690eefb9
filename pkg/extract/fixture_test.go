package extract

import (
	"encoding/binary"
	"sort"
	"testing"
)

const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5

	ifdEntrySize = 12
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(tag uint16, s string) ifdEntry {
	data := append([]byte(s), 0x00)
	return ifdEntry{tag: tag, typ: typeASCII, count: uint32(len(data)), data: data}
}

func rationalEntry(tag uint16, num, den uint32) ifdEntry {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:4], num)
	binary.LittleEndian.PutUint32(data[4:8], den)
	return ifdEntry{tag: tag, typ: typeRational, count: 1, data: data}
}

func shortEntry(tag uint16, v uint16) ifdEntry {
	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, v)
	return ifdEntry{tag: tag, typ: typeShort, count: 1, data: data}
}

func longEntry(tag uint16, v uint32) ifdEntry {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, v)
	return ifdEntry{tag: tag, typ: typeLong, count: 1, data: data}
}

// encodeIFD lays out entries as an IFD starting at offset, followed by the
// values that do not fit inline.
func encodeIFD(entries []ifdEntry, offset uint32) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	size := uint32(2 + len(entries)*ifdEntrySize + 4)
	out := make([]byte, size)
	binary.LittleEndian.PutUint16(out[0:2], uint16(len(entries)))

	var extra []byte
	for i, e := range entries {
		p := 2 + i*ifdEntrySize
		binary.LittleEndian.PutUint16(out[p:p+2], e.tag)
		binary.LittleEndian.PutUint16(out[p+2:p+4], e.typ)
		binary.LittleEndian.PutUint32(out[p+4:p+8], e.count)
		if len(e.data) <= 4 {
			copy(out[p+8:p+12], e.data)
			continue
		}
		binary.LittleEndian.PutUint32(out[p+8:p+12], offset+size+uint32(len(extra)))
		extra = append(extra, e.data...)
		if len(extra)%2 == 1 {
			extra = append(extra, 0)
		}
	}
	return append(out, extra...)
}

// buildJPEG returns a minimal JPEG whose APP1 segment carries ifd0 and, when
// exifIFD is non-empty, an EXIF sub-IFD linked from ifd0.
func buildJPEG(t *testing.T, ifd0, exifIFD []ifdEntry) []byte {
	t.Helper()

	header := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}

	entries := append([]ifdEntry(nil), ifd0...)
	if len(exifIFD) > 0 {
		entries = append(entries, longEntry(tagExifIFD, 0))
	}
	first := encodeIFD(entries, 8)

	tiff := append([]byte(nil), header...)
	if len(exifIFD) > 0 {
		subOffset := uint32(8 + len(first))
		for i := range entries {
			if entries[i].tag == tagExifIFD {
				entries[i] = longEntry(tagExifIFD, subOffset)
			}
		}
		first = encodeIFD(entries, 8)
		tiff = append(tiff, first...)
		tiff = append(tiff, encodeIFD(exifIFD, subOffset)...)
	} else {
		tiff = append(tiff, first...)
	}

	payload := append([]byte("Exif\x00\x00"), tiff...)
	length := len(payload) + 2
	if length > 0xFFFF {
		t.Fatalf("exif payload too large: %d", length)
	}

	jpeg := []byte{0xFF, jpegSOI, 0xFF, jpegAPP1, byte(length >> 8), byte(length)}
	jpeg = append(jpeg, payload...)
	return append(jpeg, 0xFF, 0xD9)
}

// sampleJPEG is a Fujifilm-like capture with every field set.
func sampleJPEG(t *testing.T) []byte {
	t.Helper()
	return buildJPEG(t,
		[]ifdEntry{
			asciiEntry(tagModel, "X-T5"),
			asciiEntry(tagDateTime, "2024:05:01 12:00:00"),
		},
		[]ifdEntry{
			rationalEntry(tagExposureTime, 1, 250),
			rationalEntry(tagFNumber, 14, 10),
			shortEntry(tagISO, 400),
			asciiEntry(tagDateTimeOriginal, "2024:05:01 10:20:30"),
			rationalEntry(tagFocalLength, 23, 1),
			shortEntry(tagFocalLength35, 35),
			asciiEntry(tagLensModel, "XF23mmF1.4 R LM WR"),
		},
	)
}

// noExifJPEG has no APP1 segment at all.
var noExifJPEG = []byte{0xFF, 0xD8, 0xFF, 0xD9}
