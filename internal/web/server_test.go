package web

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/fingerprint"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/pipeline"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

type oneFaceDetector struct{}

func (oneFaceDetector) Detect(_ context.Context, _ []byte) ([]fingerprint.FaceDetection, error) {
	return []fingerprint.FaceDetection{{BBox: []float64{5, 5, 40, 40}, DetScore: 0.9, Embedding: []float32{1, 0, 0}}}, nil
}

func newTestServer(t *testing.T, cfg *config.WebConfig) *Server {
	t.Helper()
	dir := t.TempDir()

	g := gallery.New(gallery.NewFileStore(filepath.Join(dir, "gallery.gob")))
	proc, err := pipeline.NewProcessor(oneFaceDetector{}, g, pipeline.Options{
		Strategy: facematch.Strategy{
			Name:      "test",
			Metric:    facematch.MetricEuclidean,
			Tolerance: 0.5,
			Dim:       3,
			Extractor: facematch.ExtractorService,
		},
		MinConfidence: 0.5,
		ProcessEveryN: 1,
	})
	if err != nil {
		t.Fatalf("failed to create processor: %v", err)
	}

	state := handlers.NewState(proc, nil, filepath.Join(dir, "attendance.csv"))
	return NewServer(cfg, state, nil, "127.0.0.1", 0)
}

func jpegBody(t *testing.T) []byte {
	t.Helper()
	data, err := fingerprint.EncodeJPEG(image.NewRGBA(image.Rect(0, 0, 64, 64)), 90)
	if err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return data
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, &config.WebConfig{})

	tests := []struct {
		method string
		path   string
		body   []byte
		want   int
	}{
		{"GET", "/api/v1/health", nil, http.StatusOK},
		{"POST", "/api/v1/gallery/Jan%20Nov%C3%A1k", jpegBody(t), http.StatusCreated},
		{"GET", "/api/v1/gallery", nil, http.StatusOK},
		{"POST", "/api/v1/recognize", jpegBody(t), http.StatusOK},
		{"GET", "/api/v1/attendance", nil, http.StatusOK},
		{"POST", "/api/v1/attendance/export", nil, http.StatusOK},
		{"GET", "/api/v1/count", nil, http.StatusOK},
		{"DELETE", "/api/v1/count", nil, http.StatusNoContent},
		{"GET", "/api/v1/settings", nil, http.StatusOK},
		{"PUT", "/api/v1/settings", []byte(`{"min_confidence": 0.6}`), http.StatusOK},
		{"DELETE", "/api/v1/gallery/jan%20novak", nil, http.StatusOK},
		{"DELETE", "/api/v1/gallery/jan%20novak", nil, http.StatusNotFound},
		{"GET", "/api/v1/unknown", nil, http.StatusNotFound},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader(tc.body))
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, req)

		if w.Code != tc.want {
			t.Errorf("%s %s: status = %d, want %d (body %s)", tc.method, tc.path, w.Code, tc.want, w.Body.String())
		}
	}
}

func TestServer_EnrollDecodesName(t *testing.T) {
	s := newTestServer(t, &config.WebConfig{})

	req := httptest.NewRequest("POST", "/api/v1/gallery/Jan%20Nov%C3%A1k", bytes.NewReader(jpegBody(t)))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var result map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["name"] != "Jan Novák" {
		t.Errorf("expected name 'Jan Novák', got '%v'", result["name"])
	}
}

func TestServer_RequiresToken(t *testing.T) {
	s := newTestServer(t, &config.WebConfig{APIToken: "s3cret"})

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/gallery", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("without token: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest("GET", "/api/v1/gallery", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("with token: status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health without token: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t, &config.WebConfig{AllowedOrigins: []string{"https://kiosk.example"}})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set("Origin", "https://kiosk.example")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://kiosk.example" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "https://kiosk.example")
	}
}

func TestServer_Shutdown(t *testing.T) {
	s := newTestServer(t, &config.WebConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
