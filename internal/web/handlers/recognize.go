package handlers

import (
	"log"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/capture"
)

// RecognizeHandler runs one frame through the pipeline.
type RecognizeHandler struct {
	state *State
}

// NewRecognizeHandler creates a new recognize handler
func NewRecognizeHandler(state *State) *RecognizeHandler {
	return &RecognizeHandler{state: state}
}

// Recognize processes the raw image body as the next frame and returns the
// frame result. Known faces are recorded in the attendance tracker.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	data, img, ok := readImage(w, r)
	if !ok {
		return
	}

	h.state.mu.Lock()
	h.state.frames++
	frame := &capture.Frame{Index: h.state.frames, Data: data, Image: img, Time: h.state.now()}
	res, err := h.state.proc.ProcessFrame(r.Context(), frame)
	h.state.mu.Unlock()

	if err != nil {
		log.Printf("Error: recognizing frame %d: %v", frame.Index, err)
		respondError(w, http.StatusBadGateway, "face detection failed")
		return
	}
	respondJSON(w, http.StatusOK, res)
}
