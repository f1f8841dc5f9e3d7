package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// ArchiveHandler serves the archive trigger endpoint.
type ArchiveHandler struct {
	logger    *slog.Logger
	triggerCh chan<- struct{} // when non-nil, sending triggers one archive run
}

// NewArchiveHandler creates an ArchiveHandler with the given logger.
func NewArchiveHandler(logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{logger: logger}
}

// WithTriggerChannel sets the channel to send on when a trigger is requested.
// The archive loop must receive from this channel to run one cycle.
func (h *ArchiveHandler) WithTriggerChannel(ch chan<- struct{}) *ArchiveHandler {
	h.triggerCh = ch
	return h
}

// TriggerArchive enqueues one archive run. If a trigger channel is
// configured, a non-blocking send is performed so the archive loop runs one
// cycle.
// POST /api/archive/trigger
func (h *ArchiveHandler) TriggerArchive(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "handler: archive trigger requested")
	if h.triggerCh != nil {
		select {
		case h.triggerCh <- struct{}{}:
		default:
			// already triggered and not yet consumed
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"message":      "archive trigger enqueued",
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}
