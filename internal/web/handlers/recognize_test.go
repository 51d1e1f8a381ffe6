package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/pipeline"
)

func recognize(t *testing.T, state *State) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	NewRecognizeHandler(state).Recognize(recorder, imageRequest("POST", "/api/v1/recognize", testJPEG(t)))
	return recorder
}

func TestRecognizeHandler_KnownFace(t *testing.T) {
	state, det := testState(t)
	enroll(t, state, det, "alice", 1, 0, 0)

	det.face(0.95, 0.05, 0)
	recorder := recognize(t, state)

	assertStatusCode(t, recorder, http.StatusOK)
	var res pipeline.FrameResult
	parseJSONResponse(t, recorder, &res)

	if res.Index != 1 {
		t.Errorf("expected frame index 1, got %d", res.Index)
	}
	if res.Count != 1 || len(res.Faces) != 1 {
		t.Fatalf("expected one face, got count %d faces %d", res.Count, len(res.Faces))
	}
	if !res.Faces[0].Known || res.Faces[0].Label != "alice" {
		t.Errorf("expected known face 'alice', got %+v", res.Faces[0])
	}
	if !res.Time.Equal(testTime) {
		t.Errorf("expected frame time %v, got %v", testTime, res.Time)
	}

	rec, ok := state.proc.Tracker().Get("alice")
	if !ok || !rec.FirstSeen.Equal(testTime) {
		t.Errorf("expected attendance for alice at %v, got %+v (found %v)", testTime, rec, ok)
	}
}

func TestRecognizeHandler_UnknownFace(t *testing.T) {
	state, det := testState(t)
	enroll(t, state, det, "alice", 1, 0, 0)

	det.face(0, 0, 1)
	recorder := recognize(t, state)

	assertStatusCode(t, recorder, http.StatusOK)
	var res pipeline.FrameResult
	parseJSONResponse(t, recorder, &res)

	if len(res.Faces) != 1 || res.Faces[0].Known || res.Faces[0].Label != "Unknown" {
		t.Errorf("expected one unknown face, got %+v", res.Faces)
	}
	if state.proc.Tracker().Len() != 0 {
		t.Errorf("unknown faces must not be tracked, got %d records", state.proc.Tracker().Len())
	}
}

func TestRecognizeHandler_FrameIndexIncrements(t *testing.T) {
	state, det := testState(t)
	det.face(1, 0, 0)

	recognize(t, state)
	recorder := recognize(t, state)

	var res pipeline.FrameResult
	parseJSONResponse(t, recorder, &res)
	if res.Index != 2 {
		t.Errorf("expected frame index 2, got %d", res.Index)
	}
}

func TestRecognizeHandler_DetectorFailure(t *testing.T) {
	state, det := testState(t)
	det.fail()

	recorder := recognize(t, state)

	assertStatusCode(t, recorder, http.StatusBadGateway)
	assertJSONError(t, recorder, "face detection failed")
	if state.proc.Counter().Len() != 0 {
		t.Errorf("failed frames must not be counted, got %d samples", state.proc.Counter().Len())
	}
}

func TestRecognizeHandler_InvalidImage(t *testing.T) {
	state, _ := testState(t)

	recorder := httptest.NewRecorder()
	NewRecognizeHandler(state).Recognize(recorder, imageRequest("POST", "/api/v1/recognize", []byte("nope")))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "invalid image")
}
