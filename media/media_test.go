package media

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ourlineintime/lineintime/config"
	"github.com/ourlineintime/lineintime/model"
)

func testMediaConfig() config.Media {
	return config.Media{
		ThumbMaxWidth:  300,
		ThumbMaxHeight: 300,
		MaxImageBytes:  10 << 20,
		MaxVideoBytes:  100 << 20,
		MaxAudioBytes:  50 << 20,
		MaxBatchFiles:  10,
	}
}

func pngPayload(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"IMG 1234.JPG", "img-1234.jpg"},
		{"family reunion (2019).png", "family-reunion-2019.png"},
		{"../../etc/passwd", "passwd"},
		{"...", "file"},
		{"noext", "noext"},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.in); got != c.want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValidateUpload(t *testing.T) {
	cfg := testMediaConfig()

	if err := ValidateUpload("image/jpeg", 1024, cfg); err != nil {
		t.Fatalf("expected jpeg of 1KB to pass: %v", err)
	}
	if err := ValidateUpload("application/pdf", 1024, cfg); err == nil {
		t.Fatal("expected unsupported type to be rejected")
	}
	if err := ValidateUpload("image/png", cfg.MaxImageBytes+1, cfg); err == nil {
		t.Fatal("expected oversize image to be rejected")
	}
	if err := ValidateUpload("video/mp4", cfg.MaxImageBytes+1, cfg); err != nil {
		t.Fatalf("video ceiling should be higher than the image one: %v", err)
	}
	if err := ValidateUpload("audio/mp3", 0, cfg); err == nil {
		t.Fatal("expected empty file to be rejected")
	}
}

func TestExtract_NonImage(t *testing.T) {
	md, err := Extract([]byte("not an image at all"), "audio/mp3")
	if err != nil {
		t.Fatalf("non-image extraction should not fail: %v", err)
	}
	if !md.Empty() {
		t.Fatalf("expected empty metadata, got %+v", md)
	}
}

func TestExtract_ImageDimensions(t *testing.T) {
	md, err := Extract(pngPayload(t, 64, 48), "image/png")
	if err != nil {
		t.Fatalf("extracting png: %v", err)
	}
	if md.Dimensions == nil {
		t.Fatal("expected dimensions to be extracted")
	}
	if md.Dimensions.Width != 64 || md.Dimensions.Height != 48 {
		t.Fatalf("got dimensions %dx%d, want 64x48", md.Dimensions.Width, md.Dimensions.Height)
	}
	if md.GPS != nil {
		t.Fatal("png without exif should have no gps")
	}
}

func TestExtract_CorruptImage(t *testing.T) {
	if _, err := Extract([]byte("garbage"), "image/jpeg"); err == nil {
		t.Fatal("expected undecodable image to report an error")
	}
}

func TestCaptureTime_PrefersOriginal(t *testing.T) {
	md := model.Metadata{EXIF: map[string]string{
		"DateTime":         "2021:05:04 10:00:00",
		"DateTimeOriginal": "2019:08:17 14:30:05",
	}}
	got := captureTime(md)
	if got == nil {
		t.Fatal("expected a capture time")
	}
	want := time.Date(2019, 8, 17, 14, 30, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if captureTime(model.Metadata{}) != nil {
		t.Fatal("expected nil capture time without exif")
	}
}

func TestThumbnail_FitsWithinBounds(t *testing.T) {
	out, err := Thumbnail(pngPayload(t, 800, 600), 300, 300)
	if err != nil {
		t.Fatalf("thumbnailing: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding thumbnail: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 300 || b.Dy() != 225 {
		t.Fatalf("got %dx%d, want 300x225", b.Dx(), b.Dy())
	}

	if _, format, err := image.DecodeConfig(bytes.NewReader(out)); err != nil || format != "jpeg" {
		t.Fatalf("expected jpeg output, got format %q err %v", format, err)
	}
}

func TestThumbnail_CorruptInput(t *testing.T) {
	if _, err := Thumbnail([]byte("garbage"), 300, 300); err == nil {
		t.Fatal("expected error for undecodable input")
	}
}
