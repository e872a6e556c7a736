package fields

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the field endpoints. writeLimit wraps POST only; pass
// nil to leave writes unthrottled.
func SetupRoutes(h *Handler, writeLimit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.ListHandler)
	r.Group(func(r chi.Router) {
		if writeLimit != nil {
			r.Use(writeLimit)
		}
		r.Post("/", h.CreateHandler)
	})

	return r
}
