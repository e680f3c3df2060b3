package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/aliyuchatgptt/falgates/internal/verify"
)

// CheckInHandler serves check-in history.
type CheckInHandler struct {
	recorder *verify.Recorder
}

// NewCheckInHandler creates the check-in handler.
func NewCheckInHandler(recorder *verify.Recorder) *CheckInHandler {
	return &CheckInHandler{recorder: recorder}
}

// List returns recent check-in events, newest first. The limit query
// parameter bounds the result; unset falls back to the configured default.
func (h *CheckInHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := h.recorder.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("listing check-ins failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list check-ins")
		return
	}
	respondJSON(w, http.StatusOK, events)
}
