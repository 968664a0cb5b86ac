package syncer

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/progress", h.GetProgress)
	r.Get("/progress/viewed-pages", h.ServerViewedPages)
	r.Post("/sync", h.Reconcile)
	r.Post("/bot-interactions", h.RecordBotInteraction)
	return r
}
