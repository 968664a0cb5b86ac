package quiz

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
	service QuizService
}

func NewHandler(s QuizService) *Handler {
	return &Handler{service: s}
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	config.JSON(w, http.StatusOK, h.service.Snapshot())
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !validation.Decode(w, r, &req) {
		return
	}

	snap, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusCreated, snap)
}

func (h *Handler) SelectAnswer(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		config.Error(w, http.StatusBadRequest, "invalid question index")
		return
	}

	var req AnswerRequest
	if !validation.Decode(w, r, &req) {
		return
	}

	if err := h.service.SelectAnswer(index, req.Answer); err != nil {
		h.writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusOK, h.service.Snapshot())
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !validation.Decode(w, r, &req) {
		return
	}

	result, err := h.service.Submit(r.Context(), func(answered, total int) bool {
		return req.ConfirmPartial
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusOK, result)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if !validation.Decode(w, r, &req) {
		return
	}

	cancelled, err := h.service.Cancel(func() bool { return req.Confirm })
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusOK, map[string]any{
		"cancelled": cancelled,
		"quiz":      h.service.Snapshot(),
	})
}

func (h *Handler) Topics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.Topics(r.Context())
	if err != nil {
		config.WithContext(r.Context()).WithError(err).Warn("Failed to fetch quiz topics")
		config.Error(w, http.StatusBadGateway, "could not fetch topics")
		return
	}
	config.JSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	config.JSON(w, http.StatusOK, map[string]any{"history": history})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var partial *PartialError
	switch {
	case errors.As(err, &partial):
		config.JSON(w, http.StatusConflict, map[string]any{
			"error":    "partial submission not confirmed",
			"answered": partial.Answered,
			"total":    partial.Total,
		})
	case errors.Is(err, auth.ErrUnauthenticated):
		config.Error(w, http.StatusUnauthorized, "identity not set")
	case errors.Is(err, ErrBusy), errors.Is(err, ErrSessionActive):
		config.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNoActiveSession):
		config.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidAnswer):
		config.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrGeneration), errors.Is(err, ErrSubmit):
		config.WithContext(r.Context()).WithError(err).Warn("Quiz request to course service failed")
		config.Error(w, http.StatusBadGateway, err.Error())
	default:
		config.WithContext(r.Context()).WithError(err).Error("Quiz request failed")
		config.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
