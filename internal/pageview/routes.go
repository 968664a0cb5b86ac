package pageview

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/enter", h.Enter)
	r.Post("/exit", h.Exit)
	return r
}
