package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/fingerprint"
)

func TestCountHandler_GetAndReset(t *testing.T) {
	state, det := testState(t)
	handler := NewCountHandler(state)

	det.face(1, 0, 0)
	recognize(t, state)
	det.dets = append(det.dets, fingerprint.FaceDetection{BBox: []float64{70, 10, 110, 60}, DetScore: 0.8, Embedding: []float32{0, 1, 0}})
	recognize(t, state)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/count", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp CountResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Last != 2 || resp.Samples != 2 || resp.Average != 1.5 {
		t.Errorf("unexpected count response %+v", resp)
	}
	if len(resp.History) != 2 || resp.History[0] != 1 || resp.History[1] != 2 {
		t.Errorf("expected history [1 2], got %v", resp.History)
	}

	recorder = httptest.NewRecorder()
	handler.Reset(recorder, httptest.NewRequest("DELETE", "/api/v1/count", nil))
	assertStatusCode(t, recorder, http.StatusNoContent)

	recorder = httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/count", nil))
	if recorder.Body.String() != "{\"last\":0,\"average\":0,\"samples\":0,\"history\":[]}\n" {
		t.Errorf("unexpected body after reset '%s'", recorder.Body.String())
	}
}
