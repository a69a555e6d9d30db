package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gestibat/gestibat/internal/middleware"
)

// resourceRoute binds a resource kind to its exact URL form. The backend
// contract is trailing-slash inconsistent, so each entry is literal.
type resourceRoute struct {
	kind       string
	collection string
	item       string
}

var resourceRoutes = []resourceRoute{
	{"clients", "/clients/", "/clients/{id}/"},
	{"employees", "/employees/", "/employees/{id}/"},
	{"contracts", "/contracts/", "/contracts/{id}/"},
	{"chantiers", "/chantiers/", "/chantiers/{id}/"},
	{"assignments", "/assignments", "/assignments/{id}"},
	{"attendances", "/attendances/", "/attendances/{id}/"},
	{"quotes", "/quotes/", "/quotes/{id}/"},
	{"po", "/po/", "/po/{id}/"},
	{"invoices", "/invoices", "/invoices/{id}"},
	{"payments", "/payments/", "/payments/{id}/"},
}

// NewRouter constructs the HTTP handler serving the GestiBat API.
//
// Routes:
//
//	POST /token/          → authHandler.Login
//	POST /token/refresh/  → authHandler.Refresh
//	POST /token/logout/   → authHandler.Logout
//	GET/POST  <collection>      → resource list/create (bearer protected)
//	PATCH/DELETE <collection>{id} → resource update/delete (bearer protected)
func NewRouter(
	authHandler *AuthHandler,
	resourceHandler *ResourceHandler,
	verifier middleware.TokenVerifier,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Reject bodies that are neither JSON nor uploads
	r.Use(chiMiddleware.AllowContentType("application/json", "multipart/form-data"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Public token endpoints: the refresh credential rides in a cookie,
	// never a bearer header.
	r.Route("/token", func(r chi.Router) {
		r.Post("/", authHandler.Login)
		r.Post("/refresh/", authHandler.Refresh)
		r.Post("/logout/", authHandler.Logout)
	})

	// Protected group: requires a valid access token
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(verifier))
		for _, route := range resourceRoutes {
			r.Get(route.collection, resourceHandler.List(route.kind))
			r.Post(route.collection, resourceHandler.Create(route.kind))
			r.Patch(route.item, resourceHandler.Update(route.kind))
			r.Delete(route.item, resourceHandler.Delete(route.kind))
		}
	})

	return r
}
