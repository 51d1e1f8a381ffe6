package handlers

import (
	"encoding/json"
	"errors"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/fingerprint"
)

const (
	// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
	errInvalidRequestBody = "invalid request body"

	maxImageBytes = 20 << 20
)

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

// readImage reads and decodes a raw image request body.
// On failure it writes the error response and returns false.
func readImage(w http.ResponseWriter, r *http.Request) ([]byte, image.Image, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "image too large")
			return nil, nil, false
		}
		respondError(w, http.StatusBadRequest, "failed to read image")
		return nil, nil, false
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, "empty image body")
		return nil, nil, false
	}

	img, err := fingerprint.DecodeImage(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid image")
		return nil, nil, false
	}
	return data, img, true
}

// nameParam returns the unescaped {name} URL parameter.
func nameParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(raw)
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
