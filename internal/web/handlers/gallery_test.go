package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGalleryHandler_EnrollAndList(t *testing.T) {
	state, det := testState(t)
	enroll(t, state, det, "alice", 1, 0, 0)
	enroll(t, state, det, "alice", 0.9, 0.1, 0)
	enroll(t, state, det, "bob", 0, 1, 0)

	recorder := httptest.NewRecorder()
	NewGalleryHandler(state).List(recorder, httptest.NewRequest("GET", "/api/v1/gallery", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp GalleryResponse
	parseJSONResponse(t, recorder, &resp)

	if resp.Total != 3 {
		t.Errorf("expected 3 entries, got %d", resp.Total)
	}
	if resp.Strategy != "test" {
		t.Errorf("expected strategy 'test', got '%s'", resp.Strategy)
	}
	if len(resp.People) != 2 {
		t.Fatalf("expected 2 people, got %d", len(resp.People))
	}
	if resp.People[0] != (PersonResponse{Name: "alice", Entries: 2}) {
		t.Errorf("unexpected first person %+v", resp.People[0])
	}
	if resp.People[1] != (PersonResponse{Name: "bob", Entries: 1}) {
		t.Errorf("unexpected second person %+v", resp.People[1])
	}
}

func TestGalleryHandler_EnrollResponse(t *testing.T) {
	state, det := testState(t)
	det.face(1, 0, 0)

	req := requestWithChiParams(imageRequest("POST", "/api/v1/gallery/alice", testJPEG(t)), map[string]string{"name": "alice"})
	recorder := httptest.NewRecorder()
	NewGalleryHandler(state).Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["name"] != "alice" {
		t.Errorf("expected name 'alice', got '%v'", result["name"])
	}
	if result["entries"] != float64(1) {
		t.Errorf("expected 1 entry, got %v", result["entries"])
	}
}

func TestGalleryHandler_EnrollWrongDimension(t *testing.T) {
	state, det := testState(t)
	det.face(1, 0)

	req := requestWithChiParams(imageRequest("POST", "/api/v1/gallery/alice", testJPEG(t)), map[string]string{"name": "alice"})
	recorder := httptest.NewRecorder()
	NewGalleryHandler(state).Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
	assertJSONError(t, recorder, "face feature does not fit the active strategy")
	if state.proc.Gallery().Len() != 0 {
		t.Errorf("expected empty gallery, got %d entries", state.proc.Gallery().Len())
	}
}

func TestGalleryHandler_EnrollNoFace(t *testing.T) {
	state, _ := testState(t)

	req := requestWithChiParams(imageRequest("POST", "/api/v1/gallery/alice", testJPEG(t)), map[string]string{"name": "alice"})
	recorder := httptest.NewRecorder()
	NewGalleryHandler(state).Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
	assertJSONError(t, recorder, "no face detected")
	if state.proc.Gallery().Len() != 0 {
		t.Errorf("expected empty gallery, got %d entries", state.proc.Gallery().Len())
	}
}

func TestGalleryHandler_EnrollBadRequests(t *testing.T) {
	state, det := testState(t)
	det.face(1, 0, 0)
	handler := NewGalleryHandler(state)

	tests := []struct {
		name      string
		param     string
		body      []byte
		wantError string
	}{
		{"blank name", "  ", testJPEG(t), "name is required"},
		{"empty body", "alice", nil, "empty image body"},
		{"not an image", "alice", []byte("definitely not a jpeg"), "invalid image"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := requestWithChiParams(imageRequest("POST", "/api/v1/gallery/x", tc.body), map[string]string{"name": tc.param})
			recorder := httptest.NewRecorder()
			handler.Enroll(recorder, req)

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tc.wantError)
		})
	}
}

func TestGalleryHandler_EnrollDetectorFailure(t *testing.T) {
	state, det := testState(t)
	det.fail()

	req := requestWithChiParams(imageRequest("POST", "/api/v1/gallery/alice", testJPEG(t)), map[string]string{"name": "alice"})
	recorder := httptest.NewRecorder()
	NewGalleryHandler(state).Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "enrollment failed")
}

func TestGalleryHandler_Delete(t *testing.T) {
	state, det := testState(t)
	enroll(t, state, det, "Jan Novák", 1, 0, 0)
	enroll(t, state, det, "Jan Novák", 0.9, 0.1, 0)
	enroll(t, state, det, "bob", 0, 1, 0)

	req := requestWithChiParams(httptest.NewRequest("DELETE", "/api/v1/gallery/jan_novak", nil), map[string]string{"name": "jan_novak"})
	recorder := httptest.NewRecorder()
	NewGalleryHandler(state).Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["name"] != "Jan Novák" {
		t.Errorf("expected resolved name 'Jan Novák', got '%v'", result["name"])
	}
	if result["removed"] != float64(2) {
		t.Errorf("expected 2 removed, got %v", result["removed"])
	}
	if state.proc.Gallery().Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", state.proc.Gallery().Len())
	}
}

func TestGalleryHandler_DeleteNotFound(t *testing.T) {
	state, _ := testState(t)

	req := requestWithChiParams(httptest.NewRequest("DELETE", "/api/v1/gallery/nobody", nil), map[string]string{"name": "nobody"})
	recorder := httptest.NewRecorder()
	NewGalleryHandler(state).Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "person not found")
}
