package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.GetIdentity)
	r.Post("/", h.SetIdentity)
	r.Delete("/", h.ClearIdentity)
	return r
}
