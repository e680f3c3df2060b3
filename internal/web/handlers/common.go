// Package handlers implements the HTTP handlers for the checkpoint API.
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aliyuchatgptt/falgates/internal/staff"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondValidationError maps a local validation failure to a 422 carrying
// the offending field.
func respondValidationError(w http.ResponseWriter, err error) bool {
	var verr *staff.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
		"error": verr.Msg,
		"field": verr.Field,
	})
	return true
}

// decodePhoto decodes a base64 photo field. Photos travel as base64 inside
// JSON bodies, matching the oracle request contracts.
func decodePhoto(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, errors.New("photo is required")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.New("photo must be base64 encoded")
	}
	return data, nil
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
