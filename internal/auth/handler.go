package auth

import (
	"errors"
	"net/http"

	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/validation"
)

type Handler struct {
	resolver Resolver
	session  *Session
	waiter   *Waiter
}

func NewHandler(r Resolver, s *Session, w *Waiter) *Handler {
	return &Handler{resolver: r, session: s, waiter: w}
}

type IdentityRequest struct {
	Email   string `json:"email" validate:"omitempty,email"`
	Token   string `json:"token" validate:"omitempty,jwt"`
	Persist bool   `json:"persist"`
}

func (h *Handler) GetIdentity(w http.ResponseWriter, r *http.Request) {
	id, err := h.resolver.Resolve(r.Context())
	if errors.Is(err, ErrIdentityMissing) {
		config.Error(w, http.StatusNotFound, "identity not set")
		return
	}
	if err != nil {
		config.WithContext(r.Context()).WithError(err).Error("Identity lookup failed")
		config.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	config.JSON(w, http.StatusOK, id)
}

func (h *Handler) SetIdentity(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var req IdentityRequest
	if !validation.Decode(w, r, &req) {
		return
	}

	if req.Email == "" && req.Token == "" {
		config.Error(w, http.StatusBadRequest, "email or token is required")
		return
	}
	if req.Email == "" {
		if _, err := EmailFromToken(req.Token); err != nil {
			log.WithError(err).Warn("Token rejected as identity source")
			config.Error(w, http.StatusUnauthorized, "token does not carry a usable email")
			return
		}
	}
	h.session.Set(req.Email, req.Token)

	if req.Persist && req.Email != "" {
		if err := h.resolver.Persist(r.Context(), req.Email); err != nil {
			log.WithError(err).Error("Failed to persist identity")
			config.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}
	h.waiter.Kick()

	id, err := h.resolver.Resolve(r.Context())
	if err != nil {
		log.WithError(err).Error("Identity lookup failed after update")
		config.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	config.JSON(w, http.StatusOK, id)
}

func (h *Handler) ClearIdentity(w http.ResponseWriter, r *http.Request) {
	if err := h.resolver.Forget(r.Context()); err != nil {
		config.WithContext(r.Context()).WithError(err).Error("Failed to clear identity")
		config.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	config.JSON(w, http.StatusOK, map[string]string{
		"message": "identity cleared",
	})
}
