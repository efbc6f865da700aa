package common

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/ourlineintime/lineintime/storage/mediadb"
	"github.com/ourlineintime/lineintime/storage/memorydb"
)

func TestLogAndWriteError_MapsTo500(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	LogAndWriteError(rr, req, zap.NewNop().Sugar(), "op", errors.New("boom"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestLogAndWriteError_MemoryNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	LogAndWriteError(rr, req, zap.NewNop().Sugar(), "op", memorydb.ErrNotFound)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestLogAndWriteError_MediaNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	LogAndWriteError(rr, req, zap.NewNop().Sugar(), "op", mediadb.ErrNotFound)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
