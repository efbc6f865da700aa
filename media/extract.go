package media

import (
	"bytes"
	"image"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/ourlineintime/lineintime/model"
)

// exifTimeLayout is the colon-separated timestamp format EXIF uses.
const exifTimeLayout = "2006:01:02 15:04:05"

type tagWalker map[string]string

func (w tagWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	w[string(name)] = strings.Trim(tag.String(), `"`)
	return nil
}

// Extract pulls dimensions, EXIF tags and GPS coordinates out of image
// payloads. Non-image types yield empty metadata without error; a
// missing EXIF block is normal and also not an error. Only a payload
// that claims to be an image but cannot be decoded reports one.
func Extract(data []byte, mimeType string) (model.Metadata, error) {
	md := model.Metadata{}
	if !isImage(mimeType) {
		return md, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return md, err
	}
	md.Dimensions = &model.Dimensions{Width: cfg.Width, Height: cfg.Height}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return md, nil
	}

	tags := tagWalker{}
	if err := x.Walk(tags); err == nil && len(tags) > 0 {
		md.EXIF = tags
	}

	if lat, lng, err := x.LatLong(); err == nil {
		md.GPS = &model.GPSInfo{Lat: lat, Lng: lng}
	}

	return md, nil
}

// captureTime derives the original capture timestamp from EXIF,
// preferring DateTimeOriginal over the file-level DateTime.
func captureTime(md model.Metadata) *time.Time {
	for _, field := range []string{"DateTimeOriginal", "DateTime"} {
		v, ok := md.EXIF[field]
		if !ok {
			continue
		}
		if t, err := time.Parse(exifTimeLayout, v); err == nil {
			return &t
		}
	}
	return nil
}

func captureLocation(md model.Metadata) *model.GeoPoint {
	if md.GPS == nil {
		return nil
	}
	return &model.GeoPoint{Lat: md.GPS.Lat, Lng: md.GPS.Lng}
}
