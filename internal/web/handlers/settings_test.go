package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/pipeline"
)

func TestSettingsHandler_Get(t *testing.T) {
	state, _ := testState(t)

	recorder := httptest.NewRecorder()
	NewSettingsHandler(state).Get(recorder, httptest.NewRequest("GET", "/api/v1/settings", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var settings pipeline.Settings
	parseJSONResponse(t, recorder, &settings)
	want := pipeline.Settings{Strategy: "test", Tolerance: 0.5, MinConfidence: 0.5, ProcessEveryN: 1}
	if settings != want {
		t.Errorf("expected %+v, got %+v", want, settings)
	}
}

func TestSettingsHandler_Update(t *testing.T) {
	state, det := testState(t)
	enroll(t, state, det, "alice", 1, 0, 0)

	req := httptest.NewRequest("PUT", "/api/v1/settings", strings.NewReader(`{"tolerance": 2.0}`))
	recorder := httptest.NewRecorder()
	NewSettingsHandler(state).Update(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var settings pipeline.Settings
	parseJSONResponse(t, recorder, &settings)
	if settings.Tolerance != 2.0 || settings.MinConfidence != 0.5 {
		t.Errorf("expected tolerance 2 and unchanged confidence, got %+v", settings)
	}

	// (0,0,1) is sqrt(2) away from alice and matches under the wider tolerance.
	det.face(0, 0, 1)
	var res pipeline.FrameResult
	parseJSONResponse(t, recognize(t, state), &res)
	if len(res.Faces) != 1 || res.Faces[0].Label != "alice" {
		t.Errorf("expected alice under the new tolerance, got %+v", res.Faces)
	}
}

func TestSettingsHandler_UpdateInvalid(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"malformed", `{"tolerance":`, errInvalidRequestBody},
		{"zero tolerance", `{"tolerance": 0}`, "tolerance must be positive"},
		{"confidence above one", `{"tolerance": 0.7, "min_confidence": 1.5}`, "min_confidence must be within [0, 1]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state, _ := testState(t)
			recorder := httptest.NewRecorder()
			NewSettingsHandler(state).Update(recorder, httptest.NewRequest("PUT", "/api/v1/settings", strings.NewReader(tc.body)))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tc.wantError)
			if got := state.proc.Settings().Tolerance; got != 0.5 {
				t.Errorf("settings must be unchanged, tolerance = %v", got)
			}
		})
	}
}
