package media

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ourlineintime/lineintime/config"
	"github.com/ourlineintime/lineintime/model"
	"github.com/ourlineintime/lineintime/storage/object"
)

// RecordStore is the slice of the media record store the pipeline needs.
type RecordStore interface {
	Create(ctx context.Context, item *model.MediaItem) error
}

// Upload is one client-supplied file, already validated by the upload
// layer against the allow-list and size ceilings.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}

type Pipeline struct {
	objects    object.Store
	records    RecordStore
	log        *zap.SugaredLogger
	metrics    *Metrics
	cfg        config.Media
	presignTTL time.Duration
}

func NewPipeline(objects object.Store, records RecordStore, log *zap.SugaredLogger, metrics *Metrics, cfg config.Media, presignTTL time.Duration) *Pipeline {
	return &Pipeline{
		objects:    objects,
		records:    records,
		log:        log,
		metrics:    metrics,
		cfg:        cfg,
		presignTTL: presignTTL,
	}
}

// Ingest runs one upload through the full pipeline: extraction, original
// upload, thumbnailing for images, and record persistence. Extraction
// failure is logged and skipped; any later failure aborts ingestion,
// leaves a best-effort error-status record behind, and returns the
// original error.
func (p *Pipeline) Ingest(ctx context.Context, memoryID, uploadedBy string, up Upload) (*model.MediaItem, error) {
	start := time.Now()
	item, err := p.ingest(ctx, memoryID, uploadedBy, up)
	if err != nil {
		p.metrics.observeIngest("error", time.Since(start))
		return nil, err
	}
	p.metrics.observeIngest("complete", time.Since(start))
	return item, nil
}

func (p *Pipeline) ingest(ctx context.Context, memoryID, uploadedBy string, up Upload) (*model.MediaItem, error) {
	assetID := uuid.NewString()
	// The record keeps the name the client sent; the sanitized form is
	// only ever used inside object keys.
	safeName := SanitizeFilename(up.Filename)

	md, err := Extract(up.Data, up.MimeType)
	if err != nil {
		p.metrics.observeExtractionFailure()
		p.log.Warnw("metadata extraction failed, ingesting without it",
			"filename", up.Filename, "error", err)
		md = model.Metadata{}
	}

	item := &model.MediaItem{
		ID:               assetID,
		MemoryID:         memoryID,
		Filename:         up.Filename,
		MimeType:         up.MimeType,
		FileSize:         int64(len(up.Data)),
		StorageKey:       storageKey(assetID, safeName),
		Metadata:         md,
		UploadedBy:       uploadedBy,
		CapturedAt:       captureTime(md),
		CapturedLocation: captureLocation(md),
	}

	if err := p.objects.Put(ctx, item.StorageKey, bytes.NewReader(up.Data), item.FileSize, up.MimeType); err != nil {
		p.recordFailure(ctx, item)
		return nil, fmt.Errorf("storing %s: %w", up.Filename, err)
	}

	if _, ok := CategoryOf(up.MimeType); ok && isImage(up.MimeType) {
		thumb, err := Thumbnail(up.Data, p.cfg.ThumbMaxWidth, p.cfg.ThumbMaxHeight)
		if err != nil {
			// The original stays behind under its storage key; the
			// orphan sweep reclaims it.
			p.recordFailure(ctx, item)
			return nil, fmt.Errorf("thumbnailing %s: %w", up.Filename, err)
		}
		item.ThumbnailKey = thumbnailKey(assetID, safeName)
		if err := p.objects.Put(ctx, item.ThumbnailKey, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
			p.recordFailure(ctx, item)
			return nil, fmt.Errorf("storing thumbnail for %s: %w", up.Filename, err)
		}
	}

	item.Status = model.StatusComplete
	if err := p.records.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("recording %s: %w", up.Filename, err)
	}

	return item, nil
}

// recordFailure persists an error-status record for a failed ingestion
// so the attempt is visible. The row carries no metadata and no
// thumbnail key: a thumbnail key must only ever reference a stored
// object, and the sweep treats referenced keys as live. The write is
// best effort; losing it only costs the audit trail, not correctness.
func (p *Pipeline) recordFailure(ctx context.Context, item *model.MediaItem) {
	failed := *item
	failed.Status = model.StatusError
	failed.Metadata = model.Metadata{}
	failed.CapturedAt = nil
	failed.CapturedLocation = nil
	failed.ThumbnailKey = ""
	if err := p.records.Create(ctx, &failed); err != nil {
		p.log.Errorw("could not record failed ingestion",
			"filename", failed.Filename, "error", err)
	}
}

// IngestAll ingests a batch concurrently with all-or-nothing reporting:
// if any file fails the whole call errors, but in-flight siblings are
// not cancelled and files that already completed keep their objects and
// records.
func (p *Pipeline) IngestAll(ctx context.Context, memoryID, uploadedBy string, ups []Upload) ([]*model.MediaItem, error) {
	items := make([]*model.MediaItem, len(ups))

	var g errgroup.Group
	for i, up := range ups {
		g.Go(func() error {
			item, err := p.Ingest(ctx, memoryID, uploadedBy, up)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// PresignItem mints fresh time-limited read URLs for an item and, when
// present, its thumbnail. URLs are never cached.
func (p *Pipeline) PresignItem(ctx context.Context, item *model.MediaItem) (string, string, error) {
	url, err := p.objects.PresignGet(ctx, item.StorageKey, p.presignTTL)
	if err != nil {
		return "", "", fmt.Errorf("presigning %s: %w", item.StorageKey, err)
	}

	thumbURL := ""
	if item.ThumbnailKey != "" {
		thumbURL, err = p.objects.PresignGet(ctx, item.ThumbnailKey, p.presignTTL)
		if err != nil {
			return "", "", fmt.Errorf("presigning %s: %w", item.ThumbnailKey, err)
		}
	}

	return url, thumbURL, nil
}
