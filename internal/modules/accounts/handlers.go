package accounts

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/lunaria-app/lunaria/internal/domain"
)

// Handler handles account HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new account handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "accounts").Logger(),
	}
}

// Routes mounts the account routes
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/total", h.handleTotal)
	r.Patch("/{id}", h.handleUpdateFlags)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	accts, err := h.service.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if accts == nil {
		accts = []domain.BankAccount{}
	}
	h.writeJSON(w, http.StatusOK, accts)
}

func (h *Handler) handleTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.TotalBalance()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"total": total})
}

func (h *Handler) handleUpdateFlags(w http.ResponseWriter, r *http.Request) {
	var update FlagUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acct, err := h.service.UpdateFlags(chi.URLParam(r, "id"), update)
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, acct)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
