package host

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/blueprintapi/blueprint/pkg/contracts"
)

// ChiRouterAdapter is Blueprint's default contracts.RouterAdapter,
// grounded on the teacher's internal/api.NewRouter middleware stack
// (chi.Router plus chi/middleware.RequestID/RealIP/Recoverer and
// go-chi/cors), generalized from the teacher's fixed route table to
// accept whatever paths Mount is called with.
type ChiRouterAdapter struct {
	mux chi.Router
}

// NewChiRouterAdapter builds the default router with the teacher's global
// middleware stack already mounted.
func NewChiRouterAdapter() *ChiRouterAdapter {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))
	return &ChiRouterAdapter{mux: r}
}

// Mount implements contracts.RouterAdapter.
func (a *ChiRouterAdapter) Mount(method, pattern string, handler http.HandlerFunc) {
	a.mux.Method(method, pattern, handler)
}

// Handler returns the underlying http.Handler for use with http.Server.
func (a *ChiRouterAdapter) Handler() http.Handler {
	return a.mux
}

var _ contracts.RouterAdapter = (*ChiRouterAdapter)(nil)
