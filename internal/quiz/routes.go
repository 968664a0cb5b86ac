package quiz

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.GetSession)
	r.Post("/generate", h.Generate)
	r.Put("/answers/{index}", h.SelectAnswer)
	r.Post("/submit", h.Submit)
	r.Post("/cancel", h.Cancel)
	r.Get("/topics", h.Topics)
	r.Get("/history", h.History)
	return r
}
