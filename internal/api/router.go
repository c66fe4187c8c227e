package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardengine/cardengine/internal/cardops"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// cardsDir is used to resolve the attachments directory.
func NewRouter(eng *cardops.Engine, authEnabled bool, token string, sseHandler http.Handler, cardsDir string) chi.Router {
	h := NewHandler(eng)
	ah := NewAttachmentHandler(cardsDir)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Card CRUD.
	r.Get("/cards", h.ListCards)
	r.Post("/cards", h.CreateCard)
	r.Get("/cards/*", h.GetCard)
	r.Put("/cards/*", h.UpdateCard)
	r.Delete("/cards/*", h.DeleteCard)

	// Status and rename need to distinguish a literal suffix from an
	// arbitrarily nested (slash-containing) key, so they get a regex
	// param route instead of the plain wildcard used above.
	r.Put("/cards/{key:.*}/status", h.UpdateCardStatus)
	r.Post("/cards/{key:.*}/rename", h.RenameCard)

	// Search.
	r.Get("/search", h.Search)

	// Graph.
	r.Get("/graph/*", h.Graph)

	// Consistency report.
	r.Get("/validate", h.Validate)

	// Attachments upload (auth-protected).
	r.Post("/attachments", ah.Upload)
	r.Get("/attachments/{filename}", ah.ServeFile)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
