//go:build testcontainers
// +build testcontainers

package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ourlineintime/lineintime/config"
	"github.com/ourlineintime/lineintime/storage/object/s3"
)

func newMinioStore(t *testing.T) (*s3.StoreImpl, string) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:RELEASE.2024-01-16T16-07-38Z",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForLog("API:").WithStartupTimeout(60 * time.Second),
	}

	cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start minio container: %v", err)
	}

	t.Cleanup(func() {
		_ = cont.Terminate(ctx)
	})

	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "9000/tcp")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	store, err := s3.NewStore(ctx, &config.Storage{
		Endpoint:          fmt.Sprintf("%s:%s", host, port.Port()),
		AccessKeyId:       "minioadmin",
		SecretKeyId:       "minioadmin",
		Bucket:            "lineintime-test",
		Secure:            false,
		PresignTTLSeconds: 3600,
	})
	if err != nil {
		t.Fatalf("failed to build object store: %v", err)
	}

	return store, fmt.Sprintf("http://%s:%s", host, port.Port())
}

func TestObjectStoreRoundTrip(t *testing.T) {
	store, _ := newMinioStore(t)
	ctx := context.Background()

	payload := []byte("jpeg bytes go here")
	key := "media/asset-1/photo.jpg"

	if err := store.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), "image/jpeg"); err != nil {
		t.Fatalf("put: %v", err)
	}

	rc, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("reading object: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: got %q", got)
	}

	url, err := store.PresignGet(ctx, key, time.Hour)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("fetching presigned url: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("presigned url returned %d", res.StatusCode)
	}
}

func TestObjectStoreListAndRemove(t *testing.T) {
	store, _ := newMinioStore(t)
	ctx := context.Background()

	keys := []string{
		"media/a/one.jpg",
		"media/b/two.jpg",
		"thumbnails/a/thumb_one.jpg",
	}
	for _, key := range keys {
		if err := store.Put(ctx, key, strings.NewReader("x"), 1, "image/jpeg"); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	var listed []string
	for entry := range store.List(ctx, "media/") {
		if entry.Err != nil {
			t.Fatalf("list: %v", entry.Err)
		}
		listed = append(listed, entry.Key)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 media objects, got %v", listed)
	}

	if err := store.Remove(ctx, "media/a/one.jpg"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	// Removing an absent key reports no error.
	if err := store.Remove(ctx, "media/a/one.jpg"); err != nil {
		t.Fatalf("second remove: %v", err)
	}

	listed = nil
	for entry := range store.List(ctx, "media/") {
		if entry.Err != nil {
			t.Fatalf("list after remove: %v", entry.Err)
		}
		listed = append(listed, entry.Key)
	}
	if len(listed) != 1 || listed[0] != "media/b/two.jpg" {
		t.Fatalf("unexpected listing after remove: %v", listed)
	}
}

func TestThumbnailPrefixIsPubliclyReadable(t *testing.T) {
	store, base := newMinioStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "thumbnails/a/thumb.jpg", strings.NewReader("thumb"), 5, "image/jpeg"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "media/a/full.jpg", strings.NewReader("full!"), 5, "image/jpeg"); err != nil {
		t.Fatalf("put: %v", err)
	}

	res, err := http.Get(base + "/lineintime-test/thumbnails/a/thumb.jpg")
	if err != nil {
		t.Fatalf("fetching thumbnail anonymously: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("thumbnail should be public, got %d", res.StatusCode)
	}

	res, err = http.Get(base + "/lineintime-test/media/a/full.jpg")
	if err != nil {
		t.Fatalf("fetching original anonymously: %v", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		t.Fatal("original must not be publicly readable")
	}
}
