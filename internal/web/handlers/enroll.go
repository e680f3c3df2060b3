package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/enrollment"
	"github.com/aliyuchatgptt/falgates/internal/staff"
)

// EnrollHandler manages enrollment capture sessions over HTTP. Sessions are
// in-memory and discarded on finalize or abandonment.
type EnrollHandler struct {
	cfg      *config.Config
	gate     *enrollment.Gate
	enroller *enrollment.Enroller

	mu       sync.Mutex
	sessions map[string]*enrollment.Session
}

// NewEnrollHandler creates the enrollment handler.
func NewEnrollHandler(cfg *config.Config, gate *enrollment.Gate, enroller *enrollment.Enroller) *EnrollHandler {
	return &EnrollHandler{
		cfg:      cfg,
		gate:     gate,
		enroller: enroller,
		sessions: make(map[string]*enrollment.Session),
	}
}

func (h *EnrollHandler) session(r *http.Request) (*enrollment.Session, bool) {
	id := chi.URLParam(r, "id")
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	return s, ok
}

// CreateSession starts a new capture session over the configured angles.
func (h *EnrollHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	angles := make([]staff.Angle, 0, len(h.cfg.Enrollment.Angles))
	for _, a := range h.cfg.Enrollment.Angles {
		angles = append(angles, staff.Angle(a))
	}
	session := enrollment.NewSession(h.gate, angles, h.cfg.Enrollment.AdvanceDelay)

	h.mu.Lock()
	h.sessions[session.ID] = session
	h.mu.Unlock()

	respondJSON(w, http.StatusCreated, session.Snapshot())
}

// GetSession returns the session's observable state.
func (h *EnrollHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, session.Snapshot())
}

type captureRequest struct {
	Photo string `json:"photo"` // base64
}

// SubmitCapture runs the quality gate on a capture for the current angle.
func (h *EnrollHandler) SubmitCapture(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	photo, err := decodePhoto(req.Photo)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	capture, err := session.SubmitCapture(r.Context(), photo)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"valid":   capture.Valid,
		"reason":  capture.Reason,
		"session": session.Snapshot(),
	})
}

// Retake clears the current angle's capture.
func (h *EnrollHandler) Retake(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err := session.Retake(); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, session.Snapshot())
}

type selectAngleRequest struct {
	Angle string `json:"angle"`
}

// SelectAngle navigates the session to any configured angle.
func (h *EnrollHandler) SelectAngle(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	var req selectAngleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := session.SelectAngle(staff.Angle(req.Angle)); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, session.Snapshot())
}

type finalizeRequest struct {
	FullName     string `json:"full_name"`
	AssignedUnit string `json:"assigned_unit"`
}

type finalizeResponse struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	AssignedUnit string `json:"assigned_unit"`
	DuplicateOf  string `json:"duplicate_of,omitempty"`
}

// Finalize persists the completed session as a new staff record.
func (h *EnrollHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	result, err := h.enroller.Finalize(r.Context(), session, req.FullName, req.AssignedUnit)
	if err != nil {
		if respondValidationError(w, err) {
			return
		}
		log.Printf("enrollment finalize failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to persist staff record")
		return
	}

	h.mu.Lock()
	delete(h.sessions, session.ID)
	h.mu.Unlock()

	log.Printf("enrolled staff %s (%s)", result.Record.ID, sanitizeForLog(result.Record.FullName))
	respondJSON(w, http.StatusCreated, finalizeResponse{
		ID:           result.Record.ID,
		FullName:     result.Record.FullName,
		AssignedUnit: result.Record.AssignedUnit,
		DuplicateOf:  result.DuplicateOf,
	})
}

// Abandon discards a session without persisting anything.
func (h *EnrollHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mu.Lock()
	session, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	session.Close()
	respondJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}
