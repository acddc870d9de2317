package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/addismusic/media-service/internal/store"
)

func TestCheckStore_ok(t *testing.T) {
	mem := store.NewMemory()
	if err := CheckStore(context.Background(), mem, "addis-music", "hls-playlist"); err != nil {
		t.Errorf("healthy store should pass: %v", err)
	}
	if n := mem.Calls("list"); n != 2 {
		t.Errorf("list calls = %d, want one per bucket", n)
	}
}

func TestCheckStore_failure(t *testing.T) {
	mem := store.NewMemory()
	mem.FailWith("list", errors.New("connection refused"))
	if err := CheckStore(context.Background(), mem, "addis-music"); err == nil {
		t.Error("unreachable store should fail the check")
	}
}

func TestCheckEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	if err := CheckEndpoints(context.Background(), srv.URL); err != nil {
		t.Errorf("200 endpoints should pass: %v", err)
	}
}

func TestCheckEndpoints_non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	if err := CheckEndpoints(context.Background(), srv.URL); err == nil {
		t.Error("non-200 should fail the check")
	}
}
