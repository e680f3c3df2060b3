package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/recognition"
)

// SettingsHandler serves oracle configuration. Updates go through the
// settings service so the credential cache is invalidated before any later
// oracle call.
type SettingsHandler struct {
	settings *config.SettingsService
	searcher recognition.Searcher // optional; needed for collection creation
}

// NewSettingsHandler creates the settings handler.
func NewSettingsHandler(settings *config.SettingsService, searcher recognition.Searcher) *SettingsHandler {
	return &SettingsHandler{settings: settings, searcher: searcher}
}

// SettingsResponse mirrors the stored settings with the API key masked.
type SettingsResponse struct {
	APIKeySet    bool   `json:"api_key_set"`
	PairwiseURL  string `json:"pairwise_url"`
	IndexedURL   string `json:"indexed_url"`
	CollectionID string `json:"collection_id"`
}

// Get returns the current oracle configuration. The API key itself is never
// echoed back, only whether one is set.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Recognition(r.Context())
	if err != nil {
		log.Printf("loading recognition settings failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respondJSON(w, http.StatusOK, SettingsResponse{
		APIKeySet:    s.APIKey != "",
		PairwiseURL:  s.PairwiseURL,
		IndexedURL:   s.IndexedURL,
		CollectionID: s.CollectionID,
	})
}

type settingsUpdateRequest struct {
	APIKey       string `json:"api_key"`
	PairwiseURL  string `json:"pairwise_url"`
	IndexedURL   string `json:"indexed_url"`
	CollectionID string `json:"collection_id"`
}

// Update overwrites the oracle configuration and invalidates the cache.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	err := h.settings.Update(r.Context(), config.RecognitionSettings{
		APIKey:       req.APIKey,
		PairwiseURL:  req.PairwiseURL,
		IndexedURL:   req.IndexedURL,
		CollectionID: req.CollectionID,
	})
	if err != nil {
		log.Printf("updating recognition settings failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// CreateCollection asks the indexed oracle for a new collection and stores
// its handle, switching backend selection to the indexed variant.
func (h *SettingsHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	if h.searcher == nil {
		respondError(w, http.StatusNotImplemented, "indexed oracle not configured")
		return
	}

	id, err := h.searcher.CreateCollection(r.Context())
	if err != nil {
		log.Printf("collection creation failed: %v", err)
		respondError(w, http.StatusBadGateway, "oracle refused collection creation")
		return
	}
	if err := h.settings.SetCollectionID(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to store collection id")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"collection_id": id})
}
