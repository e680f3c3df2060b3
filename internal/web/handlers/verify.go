package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aliyuchatgptt/falgates/internal/verify"
)

// VerifyHandler serves the check-in verification endpoints.
type VerifyHandler struct {
	orchestrator *verify.Orchestrator
}

// NewVerifyHandler creates the verification handler.
func NewVerifyHandler(o *verify.Orchestrator) *VerifyHandler {
	return &VerifyHandler{orchestrator: o}
}

type verifyRequest struct {
	Photo string `json:"photo"` // base64 probe
}

// VerifyResponse is a resolved verification outcome.
type VerifyResponse struct {
	Success      bool      `json:"success"`
	StaffID      string    `json:"staff_id,omitempty"`
	StaffName    string    `json:"staff_name,omitempty"`
	AssignedUnit string    `json:"assigned_unit,omitempty"`
	Confidence   float64   `json:"confidence"`
	Message      string    `json:"message,omitempty"`
	Explanation  string    `json:"explanation,omitempty"`
	ResolvedAt   time.Time `json:"resolved_at"`
}

func toVerifyResponse(o *verify.Outcome) VerifyResponse {
	resp := VerifyResponse{
		Success:     o.Success,
		Confidence:  o.Confidence,
		Message:     o.Message,
		Explanation: o.Explanation,
		ResolvedAt:  o.ResolvedAt,
	}
	if o.Staff != nil {
		resp.StaffID = o.Staff.ID
		resp.StaffName = o.Staff.FullName
		resp.AssignedUnit = o.Staff.AssignedUnit
	}
	return resp
}

// Verify runs one verification attempt for a probe photo. Returns 409 while
// another attempt is in flight.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	probe, err := decodePhoto(req.Photo)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.orchestrator.Verify(r.Context(), probe)
	if errors.Is(err, verify.ErrBusy) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	respondJSON(w, http.StatusOK, toVerifyResponse(outcome))
}

// Cancel aborts an in-flight verification.
func (h *VerifyHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.orchestrator.Cancel()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// State reports the orchestrator state and, when resolved, the outcome
// being displayed.
func (h *VerifyHandler) State(w http.ResponseWriter, r *http.Request) {
	state, outcome := h.orchestrator.State()
	resp := map[string]any{"state": state}
	if outcome != nil {
		resp["outcome"] = toVerifyResponse(outcome)
	}
	respondJSON(w, http.StatusOK, resp)
}
