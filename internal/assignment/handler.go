package assignment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/validation"
)

type Handler struct {
	service AssignmentService
}

func NewHandler(s AssignmentService) *Handler {
	return &Handler{service: s}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("reload") == "true" {
		if _, err := h.service.Reload(r.Context()); err != nil {
			if errors.Is(err, auth.ErrIdentityMissing) {
				config.Error(w, http.StatusUnauthorized, "identity not set")
				return
			}
			config.Error(w, http.StatusBadGateway, "could not load assignments")
			return
		}
	}
	config.JSON(w, http.StatusOK, h.service.Snapshot())
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		config.Error(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	var req SubmitRequest
	if !validation.Decode(w, r, &req) {
		return
	}

	out, err := h.service.Submit(r.Context(), id, req.Submission)
	switch {
	case err == nil:
		config.JSON(w, http.StatusOK, out)
	case errors.Is(err, auth.ErrUnauthenticated):
		config.Error(w, http.StatusUnauthorized, "sign in before submitting")
	case errors.Is(err, ErrBusy):
		config.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrSubmitFailed):
		config.Error(w, http.StatusBadGateway, "submission failed, please retry")
	default:
		log.WithError(err).Error("Assignment submission failed unexpectedly")
		config.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) Badge(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil || week <= 0 {
		config.Error(w, http.StatusBadRequest, "invalid week")
		return
	}
	config.JSON(w, http.StatusOK, h.service.Badge(week))
}
