package metadata

import (
	"image"
	_ "image/gif"  // dimension fallback
	_ "image/jpeg" // dimension fallback
	_ "image/png"  // dimension fallback
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"fo-go/internal/fo"
)

// captureFields lists the EXIF timestamps in priority order. EXIF's CreateDate
// and DateTimeDigitized are the same tag (0x9004).
var captureFields = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

var captureLayouts = []string{
	"2006:01:02 15:04:05",
	"2006:01:02 15:04:05Z07:00",
	"2006:01:02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Extract reads embedded metadata. Only images are inspected; anything that
// cannot be decoded yields fo.ExtractionNone.
func (e *Extractor) Extract(path string, category fo.Category) (result fo.Extraction) {
	if category != fo.CategoryImage {
		return fo.Extraction{Kind: fo.ExtractionUnsupported}
	}

	// goexif can panic on truncated or hostile input.
	defer func() {
		if r := recover(); r != nil {
			result = fo.Extraction{Kind: fo.ExtractionNone}
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return fo.Extraction{Kind: fo.ExtractionNone}
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return fo.Extraction{Kind: fo.ExtractionNone}
	}

	data := &fo.ExifData{}
	for _, field := range captureFields {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		if t, ok := captureTime(raw, e.loc); ok {
			data.CaptureTime = &t
			data.CaptureField = string(field)
			break
		}
	}

	data.Make = stringTag(x, exif.Make)
	data.Model = stringTag(x, exif.Model)
	data.Width = intTag(x, exif.PixelXDimension)
	data.Height = intTag(x, exif.PixelYDimension)
	data.Orientation = intTag(x, exif.Orientation)
	if lat, long, err := x.LatLong(); err == nil {
		data.Latitude = &lat
		data.Longitude = &long
	}

	if data.Width == 0 || data.Height == 0 {
		if _, err := f.Seek(0, 0); err == nil {
			if cfg, _, err := image.DecodeConfig(f); err == nil {
				data.Width, data.Height = cfg.Width, cfg.Height
			}
		}
	}

	return fo.Extraction{Kind: fo.ExtractionImageExif, Exif: data}
}

// captureTime parses an EXIF timestamp. Values without an offset are read in
// loc. The result is in UTC.
func captureTime(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range captureLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

func intTag(x *exif.Exif, name exif.FieldName) int {
	tag, err := x.Get(name)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}
