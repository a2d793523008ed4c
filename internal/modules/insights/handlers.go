package insights

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles insight HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new insights handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "insights").Logger(),
	}
}

// Routes registers insight routes
func (h *Handler) Routes(r chi.Router) {
	r.Get("/spending", h.spending)
	r.Get("/trend", h.trend)
}

func (h *Handler) spending(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Spending()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute spending stats")
		writeError(w, http.StatusInternalServerError, "failed to compute spending stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	points, err := h.service.Trend(days)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute balance trend")
		writeError(w, http.StatusInternalServerError, "failed to compute balance trend")
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
