package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/recognition"
	"github.com/aliyuchatgptt/falgates/internal/similarity"
	"github.com/aliyuchatgptt/falgates/internal/staff"
	"github.com/aliyuchatgptt/falgates/internal/store"
)

// StaffHandler serves staff administration endpoints.
type StaffHandler struct {
	store    store.StaffStore
	settings *config.SettingsService
	searcher recognition.Searcher // optional; used to clean up oracle state on delete
	index    *similarity.Index    // optional
}

// NewStaffHandler creates the staff handler.
func NewStaffHandler(st store.StaffStore, settings *config.SettingsService, searcher recognition.Searcher, index *similarity.Index) *StaffHandler {
	return &StaffHandler{store: st, settings: settings, searcher: searcher, index: index}
}

// StaffResponse is a staff record without photo payloads.
type StaffResponse struct {
	ID               string    `json:"id"`
	FullName         string    `json:"full_name"`
	AssignedUnit     string    `json:"assigned_unit"`
	RegisteredAt     time.Time `json:"registered_at"`
	RecognitionToken string    `json:"recognition_token,omitempty"`
}

func toStaffResponse(rec *staff.StaffRecord) StaffResponse {
	return StaffResponse{
		ID:               rec.ID,
		FullName:         rec.FullName,
		AssignedUnit:     rec.AssignedUnit,
		RegisteredAt:     rec.RegisteredAt,
		RecognitionToken: rec.RecognitionToken,
	}
}

// List returns all staff, newest registration first. The q query parameter
// filters by name (diacritic- and case-insensitive) or by staff id.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListStaff(r.Context())
	if err != nil {
		log.Printf("listing staff failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list staff")
		return
	}

	query := staff.NormalizeName(r.URL.Query().Get("q"))
	out := make([]StaffResponse, 0, len(records))
	for i := range records {
		if query != "" && !matchesQuery(&records[i], query) {
			continue
		}
		out = append(out, toStaffResponse(&records[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func matchesQuery(rec *staff.StaffRecord, query string) bool {
	return strings.Contains(staff.NormalizeName(rec.FullName), query) ||
		strings.Contains(strings.ToLower(rec.ID), query)
}

// Units returns the fixed distribution unit enumeration.
func (h *StaffHandler) Units(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, staff.DistributionUnits)
}

// Get returns one staff record.
func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.store.GetStaff(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "staff not found")
		return
	}
	if err != nil {
		log.Printf("loading staff %s failed: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to load staff")
		return
	}
	respondJSON(w, http.StatusOK, toStaffResponse(rec))
}

// Delete removes a staff record, its oracle collection entry and its
// similarity index entry. Oracle cleanup is best effort; the record
// deletion is what counts.
func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.store.GetStaff(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "staff not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load staff")
		return
	}

	if err := h.store.DeleteStaff(r.Context(), id); err != nil {
		log.Printf("deleting staff %s failed: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to delete staff")
		return
	}

	if h.index != nil {
		h.index.Remove(id)
	}
	h.removeFromCollection(r, rec)

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *StaffHandler) removeFromCollection(r *http.Request, rec *staff.StaffRecord) {
	if h.searcher == nil || h.settings == nil || rec.RecognitionToken == "" {
		return
	}
	s, err := h.settings.Recognition(r.Context())
	if err != nil || !s.IndexedConfigured() {
		return
	}
	if err := h.searcher.RemoveFace(r.Context(), s.CollectionID, rec.RecognitionToken); err != nil {
		log.Printf("removing face token for %s from collection failed: %v", rec.ID, err)
	}
}

// SimilarResponse is one likely-duplicate neighbor.
type SimilarResponse struct {
	StaffID  string  `json:"staff_id"`
	FullName string  `json:"full_name"`
	Distance float64 `json:"distance"`
}

// Similar returns the nearest staff by feature vector, a duplicate-
// enrollment diagnostic. Matching never consults this.
func (h *StaffHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		respondError(w, http.StatusNotImplemented, "similarity index disabled")
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := h.store.GetStaff(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "staff not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load staff")
		return
	}

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	// Over-fetch by one so the record itself can be dropped from its own
	// neighbor list.
	neighbors := h.index.Nearest(rec.FeatureVector, limit+1)
	out := make([]SimilarResponse, 0, limit)
	for _, n := range neighbors {
		if n.StaffID == id {
			continue
		}
		entry := SimilarResponse{StaffID: n.StaffID, Distance: n.Distance}
		if other, err := h.store.GetStaff(r.Context(), n.StaffID); err == nil {
			entry.FullName = other.FullName
		}
		out = append(out, entry)
		if len(out) == limit {
			break
		}
	}
	respondJSON(w, http.StatusOK, out)
}
