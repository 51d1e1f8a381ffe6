package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/capture"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/pipeline"
)

// GalleryHandler manages the enrolled faces.
type GalleryHandler struct {
	state *State
}

// NewGalleryHandler creates a new gallery handler
func NewGalleryHandler(state *State) *GalleryHandler {
	return &GalleryHandler{state: state}
}

// PersonResponse is one enrolled person.
type PersonResponse struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

// GalleryResponse lists the gallery.
type GalleryResponse struct {
	Strategy string           `json:"strategy"`
	Total    int              `json:"total"`
	People   []PersonResponse `json:"people"`
}

// List returns every enrolled person with their entry count.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	h.state.mu.Lock()
	g := h.state.proc.Gallery()
	names := g.Names()
	resp := GalleryResponse{
		Strategy: h.state.proc.Strategy().Name,
		Total:    g.Len(),
		People:   make([]PersonResponse, 0, len(names)),
	}
	for _, name := range names {
		resp.People = append(resp.People, PersonResponse{Name: name, Entries: g.Count(name)})
	}
	h.state.mu.Unlock()

	respondJSON(w, http.StatusOK, resp)
}

// Enroll adds the first face of the raw image body under {name}.
func (h *GalleryHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	data, img, ok := readImage(w, r)
	if !ok {
		return
	}

	h.state.mu.Lock()
	frame := &capture.Frame{Data: data, Image: img, Time: h.state.now()}
	res, err := h.state.proc.Enroll(r.Context(), frame, name)
	h.state.mu.Unlock()

	switch {
	case errors.Is(err, pipeline.ErrNoFaceDetected):
		respondError(w, http.StatusUnprocessableEntity, "no face detected")
	case errors.Is(err, pipeline.ErrFeatureMismatch), errors.Is(err, gallery.ErrInvalidFeature):
		respondError(w, http.StatusUnprocessableEntity, "face feature does not fit the active strategy")
	case errors.Is(err, gallery.ErrEmptyName):
		respondError(w, http.StatusBadRequest, "name is required")
	case err != nil:
		log.Printf("Error: enrolling %s: %v", sanitizeForLog(name), err)
		respondError(w, http.StatusInternalServerError, "enrollment failed")
	default:
		respondJSON(w, http.StatusCreated, res)
	}
}

// Delete removes every entry of {name}. The name is matched like Gallery.Resolve.
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)

	h.state.mu.Lock()
	defer h.state.mu.Unlock()

	resolved, ok := h.state.proc.Gallery().Resolve(name)
	if !ok {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	removed, err := h.state.proc.Remove(r.Context(), resolved)
	if err != nil {
		log.Printf("Error: removing %s: %v", sanitizeForLog(resolved), err)
		respondError(w, http.StatusInternalServerError, "failed to remove person")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"name":    resolved,
		"removed": removed,
	})
}
