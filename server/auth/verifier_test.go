package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Basic abc123", ""},
		{"Bearer", ""},
	}
	for _, c := range cases {
		if got := ExtractBearerToken(c.in); got != c.want {
			t.Fatalf("ExtractBearerToken(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRemoteVerifier_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"user-1","name":"Ada","role":"admin"}`))
	}))
	t.Cleanup(srv.Close)

	identity, err := NewRemoteVerifier(srv.URL).Verify(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("verifying: %v", err)
	}
	if identity.ID != "user-1" || !identity.IsAdmin() {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestRemoteVerifier_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	_, err := NewRemoteVerifier(srv.URL).Verify(context.Background(), "bad")
	if !errors.Is(err, ErrUnverified) {
		t.Fatalf("expected ErrUnverified, got %v", err)
	}
}

func TestRemoteVerifier_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"nobody"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewRemoteVerifier(srv.URL).Verify(context.Background(), "tok")
	if !errors.Is(err, ErrUnverified) {
		t.Fatalf("expected ErrUnverified, got %v", err)
	}
}

func TestGetIdentity_Absent(t *testing.T) {
	if GetIdentity(context.Background()) != nil {
		t.Fatal("expected nil identity on empty context")
	}
}
