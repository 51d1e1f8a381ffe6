package handlers

import (
	"encoding/json"
	"net/http"
)

// SettingsHandler reads and adjusts the recognition parameters at runtime.
type SettingsHandler struct {
	state *State
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(state *State) *SettingsHandler {
	return &SettingsHandler{state: state}
}

// SettingsRequest changes the given fields and leaves the rest untouched.
type SettingsRequest struct {
	Tolerance     *float64 `json:"tolerance"`
	MinConfidence *float64 `json:"min_confidence"`
}

// Get returns the current settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.state.mu.Lock()
	settings := h.state.proc.Settings()
	h.state.mu.Unlock()

	respondJSON(w, http.StatusOK, settings)
}

// Update applies a SettingsRequest. Nothing changes when any field is invalid.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Tolerance != nil && *req.Tolerance <= 0 {
		respondError(w, http.StatusBadRequest, "tolerance must be positive")
		return
	}
	if req.MinConfidence != nil && (*req.MinConfidence < 0 || *req.MinConfidence > 1) {
		respondError(w, http.StatusBadRequest, "min_confidence must be within [0, 1]")
		return
	}

	h.state.mu.Lock()
	defer h.state.mu.Unlock()

	if req.Tolerance != nil {
		if err := h.state.proc.SetTolerance(*req.Tolerance); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.MinConfidence != nil {
		if err := h.state.proc.SetMinConfidence(*req.MinConfidence); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	respondJSON(w, http.StatusOK, h.state.proc.Settings())
}
