package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/fingerprint"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/pipeline"
)

var testTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// stubDetector returns dets for every call, or err when set.
type stubDetector struct {
	dets []fingerprint.FaceDetection
	err  error
}

func (d *stubDetector) Detect(_ context.Context, _ []byte) ([]fingerprint.FaceDetection, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.dets, nil
}

func (d *stubDetector) face(embedding ...float32) {
	d.dets = []fingerprint.FaceDetection{{BBox: []float64{10, 10, 60, 60}, DetScore: 0.9, Embedding: embedding}}
	d.err = nil
}

func (d *stubDetector) fail() {
	d.dets = nil
	d.err = errors.New("service unavailable")
}

// testState builds a State over a file-backed gallery and a 3-d euclidean strategy.
func testState(t *testing.T) (*State, *stubDetector) {
	t.Helper()
	dir := t.TempDir()

	g := gallery.New(gallery.NewFileStore(filepath.Join(dir, "gallery.gob")))
	if err := g.Load(context.Background()); err != nil {
		t.Fatalf("failed to load gallery: %v", err)
	}

	det := &stubDetector{}
	proc, err := pipeline.NewProcessor(det, g, pipeline.Options{
		Strategy: facematch.Strategy{
			Name:      "test",
			Metric:    facematch.MetricEuclidean,
			Tolerance: 0.5,
			Dim:       3,
			Extractor: facematch.ExtractorService,
		},
		MinConfidence: 0.5,
		ProcessEveryN: 1,
		StaleAfter:    time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to create processor: %v", err)
	}

	state := NewState(proc, nil, filepath.Join(dir, "attendance.csv"))
	state.now = func() time.Time { return testTime }
	return state, det
}

// testJPEG encodes a small gradient image.
func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	for y := range 80 {
		for x := range 120 {
			img.Set(x, y, color.RGBA{R: uint8(x * 2), G: uint8(y * 3), B: 128, A: 255})
		}
	}
	data, err := fingerprint.EncodeJPEG(img, 90)
	if err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return data
}

// imageRequest creates a request carrying a raw image body.
func imageRequest(method, path string, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "image/jpeg")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// enroll adds name with the given embedding through the handler.
func enroll(t *testing.T, state *State, det *stubDetector, name string, embedding ...float32) {
	t.Helper()
	det.face(embedding...)
	req := requestWithChiParams(imageRequest("POST", "/api/v1/gallery/x", testJPEG(t)), map[string]string{"name": name})
	recorder := httptest.NewRecorder()
	NewGalleryHandler(state).Enroll(recorder, req)
	assertStatusCode(t, recorder, http.StatusCreated)
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
