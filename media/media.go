// Package media implements the ingestion pipeline: metadata extraction,
// thumbnailing, object-store persistence and per-asset processing state.
package media

import (
	"fmt"
	"path"
	"strings"

	"github.com/gosimple/slug"

	"github.com/ourlineintime/lineintime/config"
)

type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryAudio Category = "audio"
)

// The declared-type allow-list the upload layer enforces before the
// pipeline runs.
var supportedTypes = map[string]Category{
	"image/jpeg": CategoryImage,
	"image/png":  CategoryImage,
	"image/webp": CategoryImage,
	"image/heic": CategoryImage,
	"video/mp4":  CategoryVideo,
	"video/mov":  CategoryVideo,
	"video/avi":  CategoryVideo,
	"audio/mp3":  CategoryAudio,
	"audio/wav":  CategoryAudio,
	"audio/m4a":  CategoryAudio,
}

func CategoryOf(mimeType string) (Category, bool) {
	c, ok := supportedTypes[strings.ToLower(mimeType)]
	return c, ok
}

func isImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

// ValidateUpload enforces the allow-list and the per-category size
// ceiling. This is the upload layer's responsibility; the pipeline
// assumes its input already passed.
func ValidateUpload(mimeType string, size int64, cfg config.Media) error {
	category, ok := CategoryOf(mimeType)
	if !ok {
		return fmt.Errorf("unsupported file type: %s", mimeType)
	}

	var ceiling int64
	switch category {
	case CategoryImage:
		ceiling = cfg.MaxImageBytes
	case CategoryVideo:
		ceiling = cfg.MaxVideoBytes
	case CategoryAudio:
		ceiling = cfg.MaxAudioBytes
	}

	if size <= 0 {
		return fmt.Errorf("empty file")
	}

	if size > ceiling {
		return fmt.Errorf("%s file of %d bytes exceeds the %d byte limit", category, size, ceiling)
	}

	return nil
}

// SanitizeFilename reduces a client-supplied filename to a slugged base
// name plus its original extension, leaving nothing outside the
// alphanumeric/dot/dash set.
func SanitizeFilename(filename string) string {
	ext := path.Ext(filename)
	base := strings.TrimSuffix(path.Base(filename), ext)

	cleanBase := slug.Make(base)
	if cleanBase == "" {
		cleanBase = "file"
	}

	cleanExt := ""
	if ext != "" {
		cleanExt = "." + slug.Make(strings.TrimPrefix(ext, "."))
	}

	return cleanBase + cleanExt
}

// Object-store key layout. Only the thumbnail prefix is granted public
// read by bucket policy.
func storageKey(assetID, filename string) string {
	return "media/" + assetID + "/" + filename
}

func thumbnailKey(assetID, filename string) string {
	return "thumbnails/" + assetID + "/thumb_" + filename
}
