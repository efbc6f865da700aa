package media

import (
	"bytes"

	"github.com/disintegration/imaging"
)

// Thumbnail scales an image down to fit within maxW x maxH, preserving
// aspect ratio, and re-encodes it as JPEG. Images already inside the
// bounds pass through imaging.Fit unscaled.
func Thumbnail(data []byte, maxW, maxH int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fit(img, maxW, maxH, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
