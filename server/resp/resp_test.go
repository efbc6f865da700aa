package resp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteOK(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteOK(rr, map[string]string{"hello": "world"})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json content type, got %q", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["hello"] != "world" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestWriteCreatedAddsLocationAndBody(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteCreated(rr, "/api/memories/123", map[string]string{"id": "123"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if rr.Header().Get("Location") != "/api/memories/123" {
		t.Fatalf("expected Location header set")
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["id"] != "123" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestWriteNoContent(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteNoContent(rr)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if body := rr.Body.String(); body != "" {
		t.Fatalf("expected empty body, got %q", body)
	}
}

func TestWriteBadRequest(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteBadRequest(rr, "bad input")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if body.Error != "bad_request" || body.Description != "bad input" {
		t.Fatalf("unexpected error response %+v", body)
	}
}

func TestWriteNotFound(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteNotFound(rr, "no such memory")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if body.Error != "not_found" {
		t.Fatalf("unexpected error response %+v", body)
	}
}
