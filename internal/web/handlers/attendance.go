package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// AttendanceHandler exposes the attendance tracker.
type AttendanceHandler struct {
	state *State
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(state *State) *AttendanceHandler {
	return &AttendanceHandler{state: state}
}

// AttendanceResponse lists the records in first-seen order.
type AttendanceResponse struct {
	Records []attendance.Record `json:"records"`
	Visible []string            `json:"visible"`
	// Hits counts the frames each visible name was detected in since it appeared.
	Hits map[string]int `json:"hits"`
}

// ExportResponse describes a finished export.
type ExportResponse struct {
	Exported int        `json:"exported"`
	Path     string     `json:"path"`
	Session  *uuid.UUID `json:"session,omitempty"`
}

// List returns the attendance records, as CSV when ?format=csv.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	h.state.mu.Lock()
	records := h.state.proc.Tracker().Records()
	visible := h.state.proc.Presence().Visible()
	hits := make(map[string]int, len(visible))
	for _, name := range visible {
		hits[name] = h.state.proc.Presence().Hits(name)
	}
	h.state.mu.Unlock()

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)
		w.WriteHeader(http.StatusOK)
		if err := attendance.WriteCSV(w, records); err != nil {
			log.Printf("Error: writing attendance CSV: %v", err)
		}
		return
	}

	if records == nil {
		records = []attendance.Record{}
	}
	if visible == nil {
		visible = []string{}
	}
	respondJSON(w, http.StatusOK, AttendanceResponse{Records: records, Visible: visible, Hits: hits})
}

// Export appends the records to the attendance file and, when a store is
// configured, saves them to the current session.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()

	records := h.state.proc.Tracker().Records()
	if err := attendance.ExportCSV(h.state.attendancePath, records); err != nil {
		log.Printf("Error: exporting attendance: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to export attendance")
		return
	}

	resp := ExportResponse{Exported: len(records), Path: h.state.attendancePath}
	if h.state.store != nil {
		if err := h.state.store.SaveRecords(r.Context(), h.state.session, records); err != nil {
			log.Printf("Error: saving attendance session %s: %v", h.state.session, err)
			respondError(w, http.StatusInternalServerError, "failed to save attendance session")
			return
		}
		session := h.state.session
		resp.Session = &session
	}

	respondJSON(w, http.StatusOK, resp)
}
