package assignment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/{id}/submit", h.Submit)
	r.Get("/badges/{week}", h.Badge)
	return r
}
