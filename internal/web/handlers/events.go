package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"io"
	"net/http"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/pipeline"
)

const eventChannelBuffer = 16

// FrameEvents fans processed frames out to SSE listeners. It is a pipeline.Sink.
type FrameEvents struct {
	listeners []chan *pipeline.FrameResult
	mu        sync.RWMutex
}

// NewFrameEvents creates a broadcaster without listeners.
func NewFrameEvents() *FrameEvents {
	return &FrameEvents{}
}

// AddListener adds an event listener.
func (e *FrameEvents) AddListener() chan *pipeline.FrameResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan *pipeline.FrameResult, eventChannelBuffer)
	e.listeners = append(e.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (e *FrameEvents) RemoveListener(ch chan *pipeline.FrameResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, listener := range e.listeners {
		if listener == ch {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// Frame sends res to every listener, skipping listeners whose buffer is full.
func (e *FrameEvents) Frame(res *pipeline.FrameResult, _ image.Image) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, listener := range e.listeners {
		select {
		case listener <- res:
		default:
		}
	}
}

// Stream serves processed frames as server-sent "frame" events until the client
// disconnects.
func (e *FrameEvents) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := e.AddListener()
	defer e.RemoveListener(ch)

	sendSSEEvent(w, flusher, "status", map[string]string{"status": "connected"})

	for {
		select {
		case <-r.Context().Done():
			return
		case res, ok := <-ch:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, "frame", res)
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
