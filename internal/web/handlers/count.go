package handlers

import "net/http"

// CountHandler exposes the people counter.
type CountHandler struct {
	state *State
}

// NewCountHandler creates a new count handler
func NewCountHandler(state *State) *CountHandler {
	return &CountHandler{state: state}
}

// CountResponse summarises the counter.
type CountResponse struct {
	Last    int     `json:"last"`
	Average float64 `json:"average"`
	Samples int     `json:"samples"`
	History []int   `json:"history"`
}

// Get returns the latest count, the running average and the history.
func (h *CountHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.state.mu.Lock()
	c := h.state.proc.Counter()
	resp := CountResponse{
		Last:    c.Last(),
		Average: c.Average(),
		Samples: c.Len(),
		History: c.History(),
	}
	h.state.mu.Unlock()

	if resp.History == nil {
		resp.History = []int{}
	}
	respondJSON(w, http.StatusOK, resp)
}

// Reset clears the count history.
func (h *CountHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.state.mu.Lock()
	h.state.proc.Counter().Reset()
	h.state.mu.Unlock()

	respondJSON(w, http.StatusNoContent, nil)
}
