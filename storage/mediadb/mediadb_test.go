package mediadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ourlineintime/lineintime/model"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewStore(db), mock
}

func itemRows(t *testing.T, items ...*model.MediaItem) *sqlmock.Rows {
	t.Helper()

	rows := sqlmock.NewRows([]string{
		"id", "memory_id", "filename", "mime_type", "file_size", "storage_key",
		"thumbnail_key", "extracted_metadata", "uploaded_by", "captured_at",
		"lat", "lng", "processing_status", "created_at",
	})

	for _, item := range items {
		metadata, err := json.Marshal(item.Metadata)
		if err != nil {
			t.Fatalf("marshal metadata: %v", err)
		}

		var thumb any
		if item.ThumbnailKey != "" {
			thumb = item.ThumbnailKey
		}

		var capturedAt any
		if item.CapturedAt != nil {
			capturedAt = *item.CapturedAt
		}

		var lat, lng any
		if item.CapturedLocation != nil {
			lat = item.CapturedLocation.Lat
			lng = item.CapturedLocation.Lng
		}

		rows.AddRow(item.ID, item.MemoryID, item.Filename, item.MimeType,
			item.FileSize, item.StorageKey, thumb, metadata, item.UploadedBy,
			capturedAt, lat, lng, string(item.Status), item.CreatedAt)
	}

	return rows
}

func sampleItem() *model.MediaItem {
	capturedAt := time.Date(2020, 6, 15, 12, 30, 0, 0, time.UTC)
	return &model.MediaItem{
		ID:           "11111111-1111-1111-1111-111111111111",
		MemoryID:     "22222222-2222-2222-2222-222222222222",
		Filename:     "beach.jpg",
		MimeType:     "image/jpeg",
		FileSize:     2048,
		StorageKey:   "media/11111111-1111-1111-1111-111111111111/beach.jpg",
		ThumbnailKey: "thumbnails/11111111-1111-1111-1111-111111111111/thumb_beach.jpg",
		Metadata: model.Metadata{
			Dimensions: &model.Dimensions{Width: 1024, Height: 768},
		},
		UploadedBy:       "33333333-3333-3333-3333-333333333333",
		CapturedAt:       &capturedAt,
		CapturedLocation: &model.GeoPoint{Lat: 59.3, Lng: 18.1},
		Status:           model.StatusComplete,
		CreatedAt:        time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestCreate_WithLocation(t *testing.T) {
	store, mock := newTestStore(t)
	item := sampleItem()

	mock.ExpectQuery(regexp.QuoteMeta(store.insertQuery())).
		WithArgs(item.ID, item.MemoryID, item.Filename, item.MimeType,
			item.FileSize, item.StorageKey, item.ThumbnailKey, sqlmock.AnyArg(),
			item.UploadedBy, item.CapturedAt, sqlmock.AnyArg(), sqlmock.AnyArg(),
			string(model.StatusComplete)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(item.CreatedAt))

	if err := store.Create(context.Background(), item); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_ErrorRowWithoutMetadata(t *testing.T) {
	store, mock := newTestStore(t)
	item := sampleItem()
	item.ThumbnailKey = ""
	item.Metadata = model.Metadata{}
	item.CapturedAt = nil
	item.CapturedLocation = nil
	item.Status = model.StatusError

	mock.ExpectQuery(regexp.QuoteMeta(store.insertQuery())).
		WithArgs(item.ID, item.MemoryID, item.Filename, item.MimeType,
			item.FileSize, item.StorageKey, "", sqlmock.AnyArg(), item.UploadedBy,
			nil, nil, nil, string(model.StatusError)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	if err := store.Create(context.Background(), item); err != nil {
		t.Fatalf("create error row: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByID_RoundTrip(t *testing.T) {
	store, mock := newTestStore(t)
	item := sampleItem()

	mock.ExpectQuery(regexp.QuoteMeta(store.selectQuery())).
		WithArgs(item.ID).
		WillReturnRows(itemRows(t, item))

	got, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.StorageKey != item.StorageKey {
		t.Fatalf("unexpected storage key: %s", got.StorageKey)
	}

	if got.Metadata.Dimensions == nil || got.Metadata.Dimensions.Width != 1024 {
		t.Fatalf("metadata lost in round trip: %+v", got.Metadata)
	}

	if got.CapturedLocation == nil || got.CapturedLocation.Lat != 59.3 {
		t.Fatalf("captured location lost: %+v", got.CapturedLocation)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(store.selectQuery())).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestListByMemory_Empty(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(store.listByMemoryQuery())).
		WithArgs("mem-1").
		WillReturnRows(itemRows(t))

	items, err := store.ListByMemory(context.Background(), "mem-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", items)
	}
}

func TestDelete_ReportsExistence(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta(store.deleteQuery())).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	existed, err := store.Delete(context.Background(), "gone")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if existed {
		t.Fatalf("expected existed=false for missing row")
	}

	mock.ExpectExec(regexp.QuoteMeta(store.deleteQuery())).
		WithArgs("there").
		WillReturnResult(sqlmock.NewResult(0, 1))

	existed, err = store.Delete(context.Background(), "there")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !existed {
		t.Fatalf("expected existed=true for deleted row")
	}
}

func TestUpdateStatus(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta(store.updateStatusQuery())).
		WithArgs(string(model.StatusError), "item-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.UpdateStatus(context.Background(), "item-1", model.StatusError); err != nil {
		t.Fatalf("update status: %v", err)
	}
}

func TestListStorageKeys_IncludesThumbnails(t *testing.T) {
	store, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"storage_key", "thumbnail_key"}).
		AddRow("media/a/one.jpg", "thumbnails/a/thumb_one.jpg").
		AddRow("media/b/two.mp4", nil)

	mock.ExpectQuery(regexp.QuoteMeta(store.storageKeysQuery())).
		WillReturnRows(rows)

	keys, err := store.ListStorageKeys(context.Background())
	if err != nil {
		t.Fatalf("list storage keys: %v", err)
	}

	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %v", keys)
	}
}
