package host_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blueprintapi/blueprint/pkg/host"
)

func TestChiRouterAdapterMountsAndServesRoute(t *testing.T) {
	r := host.NewChiRouterAdapter()
	r.Mount(http.MethodPost, "/widgets", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/widgets", nil)
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestChiRouterAdapterAppliesCORSHeaders(t *testing.T) {
	r := host.NewChiRouterAdapter()
	r.Mount(http.MethodGet, "/widgets", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/widgets", nil)
	req.Header.Set("Origin", "https://example.com")
	r.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("got Access-Control-Allow-Origin %q, want %q", got, "*")
	}
}

func TestChiRouterAdapterReturnsNotFoundForUnmountedRoute(t *testing.T) {
	r := host.NewChiRouterAdapter()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusNotFound)
	}
}
