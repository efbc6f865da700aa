// Package mediadb persists one record per ingested asset.
package mediadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ourlineintime/lineintime/model"
)

var ErrNotFound = errors.New("media item not found")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const itemColumns = `id, memory_id, filename, mime_type, file_size, storage_key,
thumbnail_key, extracted_metadata, uploaded_by, captured_at,
ST_Y(captured_location) AS lat, ST_X(captured_location) AS lng,
processing_status, created_at`

func (s *Store) insertQuery() string {
	return `INSERT INTO media_items (
id, memory_id, filename, mime_type, file_size, storage_key,
thumbnail_key, extracted_metadata, uploaded_by, captured_at,
captured_location, processing_status
) VALUES (
$1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10,
CASE WHEN $11::float8 IS NULL OR $12::float8 IS NULL THEN NULL
ELSE ST_SetSRID(ST_MakePoint($12::float8, $11::float8), 4326) END, $13
) RETURNING created_at`
}

func (s *Store) selectQuery() string {
	return `SELECT ` + itemColumns + ` FROM media_items WHERE id = $1`
}

func (s *Store) listByMemoryQuery() string {
	return `SELECT ` + itemColumns + ` FROM media_items WHERE memory_id = $1 ORDER BY created_at ASC`
}

func (s *Store) updateStatusQuery() string {
	return `UPDATE media_items SET processing_status = $1 WHERE id = $2`
}

func (s *Store) updateThumbnailQuery() string {
	return `UPDATE media_items SET thumbnail_key = NULLIF($1, '') WHERE id = $2`
}

func (s *Store) deleteQuery() string {
	return `DELETE FROM media_items WHERE id = $1`
}

func (s *Store) pendingQuery() string {
	return `SELECT ` + itemColumns + ` FROM media_items WHERE processing_status = 'pending' ORDER BY created_at ASC LIMIT $1`
}

func (s *Store) storageKeysQuery() string {
	return `SELECT storage_key, thumbnail_key FROM media_items`
}

func (s *Store) Create(ctx context.Context, item *model.MediaItem) error {
	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	var lat, lng *float64
	if item.CapturedLocation != nil {
		lat = &item.CapturedLocation.Lat
		lng = &item.CapturedLocation.Lng
	}

	err = s.db.QueryRowContext(ctx, s.insertQuery(),
		item.ID, item.MemoryID, item.Filename, item.MimeType, item.FileSize,
		item.StorageKey, item.ThumbnailKey, string(metadata), item.UploadedBy,
		item.CapturedAt, lat, lng, string(item.Status),
	).Scan(&item.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert media item: %w", err)
	}

	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*model.MediaItem, error) {
	row := s.db.QueryRowContext(ctx, s.selectQuery(), id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get media item: %w", err)
	}

	return item, nil
}

func (s *Store) ListByMemory(ctx context.Context, memoryID string) ([]*model.MediaItem, error) {
	rows, err := s.db.QueryContext(ctx, s.listByMemoryQuery(), memoryID)
	if err != nil {
		return nil, fmt.Errorf("list media for memory: %w", err)
	}
	defer rows.Close()

	items := []*model.MediaItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list media for memory: %w", err)
	}

	return items, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status model.ProcessingStatus) error {
	if _, err := s.db.ExecContext(ctx, s.updateStatusQuery(), string(status), id); err != nil {
		return fmt.Errorf("update processing status: %w", err)
	}

	return nil
}

func (s *Store) UpdateThumbnailKey(ctx context.Context, id string, thumbnailKey string) error {
	if _, err := s.db.ExecContext(ctx, s.updateThumbnailQuery(), thumbnailKey, id); err != nil {
		return fmt.Errorf("update thumbnail key: %w", err)
	}

	return nil
}

// Delete removes the record only and reports whether a row existed.
// Object-store cleanup belongs to the caller, which removes objects
// before the record so a failed delete leaves orphaned objects (swept by
// reconciliation) rather than a record pointing at nothing.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.deleteQuery(), id)
	if err != nil {
		return false, fmt.Errorf("delete media item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete media item: %w", err)
	}

	return n > 0, nil
}

// FindPendingProcessing is retained for deferred pipelines; the
// synchronous pipeline always resolves to a terminal state.
func (s *Store) FindPendingProcessing(ctx context.Context, limit int) ([]*model.MediaItem, error) {
	rows, err := s.db.QueryContext(ctx, s.pendingQuery(), limit)
	if err != nil {
		return nil, fmt.Errorf("find pending media: %w", err)
	}
	defer rows.Close()

	items := []*model.MediaItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find pending media: %w", err)
	}

	return items, nil
}

// ListStorageKeys returns every object-store key any record references,
// originals and thumbnails alike. Used by the orphan sweep.
func (s *Store) ListStorageKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.storageKeysQuery())
	if err != nil {
		return nil, fmt.Errorf("list storage keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var storageKey string
		var thumbnailKey sql.NullString
		if err := rows.Scan(&storageKey, &thumbnailKey); err != nil {
			return nil, fmt.Errorf("scan storage keys: %w", err)
		}
		keys = append(keys, storageKey)
		if thumbnailKey.Valid && thumbnailKey.String != "" {
			keys = append(keys, thumbnailKey.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list storage keys: %w", err)
	}

	return keys, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.MediaItem, error) {
	var item model.MediaItem
	var thumbnailKey sql.NullString
	var metadata []byte
	var capturedAt sql.NullTime
	var lat, lng sql.NullFloat64
	var status string

	err := row.Scan(
		&item.ID, &item.MemoryID, &item.Filename, &item.MimeType, &item.FileSize,
		&item.StorageKey, &thumbnailKey, &metadata, &item.UploadedBy, &capturedAt,
		&lat, &lng, &status, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.ThumbnailKey = thumbnailKey.String
	item.Status = model.ProcessingStatus(status)

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	if capturedAt.Valid {
		t := capturedAt.Time
		item.CapturedAt = &t
	}

	if lat.Valid && lng.Valid {
		item.CapturedLocation = &model.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
	}

	return &item, nil
}
