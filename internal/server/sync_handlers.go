package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lunaria-app/lunaria/internal/modules/sync"
)

// syncTimeout bounds a manually triggered sync cycle.
const syncTimeout = 5 * time.Minute

// SyncHandlers exposes sync trigger and status endpoints
type SyncHandlers struct {
	service *sync.Service
	log     zerolog.Logger
}

// NewSyncHandlers creates new sync handlers
func NewSyncHandlers(service *sync.Service, log zerolog.Logger) *SyncHandlers {
	return &SyncHandlers{
		service: service,
		log:     log.With().Str("handler", "sync").Logger(),
	}
}

// HandleTrigger starts a sync cycle in the background.
// POST /api/sync
func (h *SyncHandlers) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	if h.service.Running() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "sync already in progress"})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		if _, err := h.service.Sync(ctx); err != nil && !errors.Is(err, sync.ErrSyncInProgress) {
			h.log.Error().Err(err).Msg("Manual sync failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// HandleStatus reports the running flag and last recorded outcome.
// GET /api/sync/status
func (h *SyncHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	last, err := h.service.LastSnapshot()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load last sync snapshot")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load sync status"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running":   h.service.Running(),
		"last_sync": last, // null when no sync has run yet
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
