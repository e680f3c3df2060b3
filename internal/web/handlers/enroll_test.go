package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/enrollment"
	"github.com/aliyuchatgptt/falgates/internal/store/mock"
)

func newTestEnrollHandler(t *testing.T) (*EnrollHandler, *mock.MockStaffStore) {
	t.Helper()
	staffStore := mock.NewMockStaffStore()
	settings := config.NewSettingsService(mock.NewMockSettingsStore(), config.RecognitionConfig{})
	gate := enrollment.NewGate(nil) // no provider, every photo passes
	enroller := enrollment.NewEnroller(staffStore, settings, nil, nil, nil, 16)
	return NewEnrollHandler(testConfig(), gate, enroller), staffStore
}

// createSession drives the create endpoint and returns the session id.
func createSession(t *testing.T, h *EnrollHandler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/enroll/sessions", nil)
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)
	assertStatusCode(t, rec, http.StatusCreated)

	var view enrollment.View
	parseJSONResponse(t, rec, &view)
	if view.ID == "" {
		t.Fatal("session id missing from create response")
	}
	return view.ID
}

// submitCapture submits a photo for the session's current angle.
func submitCapture(t *testing.T, h *EnrollHandler, sessionID, photo string) *httptest.ResponseRecorder {
	t.Helper()
	req := jsonRequest(t, http.MethodPost, "/api/v1/enroll/sessions/"+sessionID+"/captures",
		captureRequest{Photo: photoB64(photo)})
	req = requestWithChiParams(req, map[string]string{"id": sessionID})
	rec := httptest.NewRecorder()
	h.SubmitCapture(rec, req)
	return rec
}

func TestCreateSessionListsConfiguredAngles(t *testing.T) {
	h, _ := newTestEnrollHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/enroll/sessions", nil)
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)

	assertStatusCode(t, rec, http.StatusCreated)
	var view enrollment.View
	parseJSONResponse(t, rec, &view)
	if len(view.Angles) != 3 {
		t.Fatalf("angles = %d, want 3", len(view.Angles))
	}
	if view.CanFinalize {
		t.Error("fresh session must not be finalizable")
	}
	if view.CurrentAngle != "front" {
		t.Errorf("current angle = %q, want front", view.CurrentAngle)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	h, _ := newTestEnrollHandler(t)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/enroll/sessions/missing", nil),
		map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()
	h.GetSession(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestSubmitCaptureAcceptsPhoto(t *testing.T) {
	h, _ := newTestEnrollHandler(t)
	id := createSession(t, h)

	rec := submitCapture(t, h, id, "front-photo")
	assertStatusCode(t, rec, http.StatusOK)

	var body struct {
		Valid   bool            `json:"valid"`
		Reason  string          `json:"reason"`
		Session enrollment.View `json:"session"`
	}
	parseJSONResponse(t, rec, &body)
	if !body.Valid {
		t.Fatalf("capture rejected: %s", body.Reason)
	}
	if body.Session.CanFinalize {
		t.Error("one capture must not complete a three-angle session")
	}
	// Zero advance delay moves straight to the next angle.
	if body.Session.CurrentAngle != "left" {
		t.Errorf("current angle = %q, want left", body.Session.CurrentAngle)
	}
}

func TestSubmitCaptureRejectsBadBody(t *testing.T) {
	h, _ := newTestEnrollHandler(t)
	id := createSession(t, h)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodPost, "/api/v1/enroll/sessions/"+id+"/captures", nil),
		map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h.SubmitCapture(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestSubmitCaptureRejectsMissingPhoto(t *testing.T) {
	h, _ := newTestEnrollHandler(t)
	id := createSession(t, h)

	req := requestWithChiParams(
		jsonRequest(t, http.MethodPost, "/api/v1/enroll/sessions/"+id+"/captures", captureRequest{}),
		map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h.SubmitCapture(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestSelectAngleUnknown(t *testing.T) {
	h, _ := newTestEnrollHandler(t)
	id := createSession(t, h)

	req := requestWithChiParams(
		jsonRequest(t, http.MethodPost, "/api/v1/enroll/sessions/"+id+"/angle", selectAngleRequest{Angle: "back"}),
		map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h.SelectAngle(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestRetakeClearsCurrentAngle(t *testing.T) {
	h, _ := newTestEnrollHandler(t)
	id := createSession(t, h)
	submitCapture(t, h, id, "front-photo")

	// Go back to front and retake it.
	req := requestWithChiParams(
		jsonRequest(t, http.MethodPost, "/api/v1/enroll/sessions/"+id+"/angle", selectAngleRequest{Angle: "front"}),
		map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h.SelectAngle(rec, req)
	assertStatusCode(t, rec, http.StatusOK)

	req = requestWithChiParams(
		httptest.NewRequest(http.MethodPost, "/api/v1/enroll/sessions/"+id+"/retake", nil),
		map[string]string{"id": id})
	rec = httptest.NewRecorder()
	h.Retake(rec, req)
	assertStatusCode(t, rec, http.StatusOK)

	var view enrollment.View
	parseJSONResponse(t, rec, &view)
	for _, a := range view.Angles {
		if a.Angle == "front" && a.Captured {
			t.Error("front capture should be cleared after retake")
		}
	}
}

func TestFinalizeCreatesStaffAndDropsSession(t *testing.T) {
	h, staffStore := newTestEnrollHandler(t)
	id := createSession(t, h)
	for _, photo := range []string{"front-photo", "left-photo", "right-photo"} {
		rec := submitCapture(t, h, id, photo)
		assertStatusCode(t, rec, http.StatusOK)
	}

	req := requestWithChiParams(
		jsonRequest(t, http.MethodPost, "/api/v1/enroll/sessions/"+id+"/finalize",
			finalizeRequest{FullName: "Amina Yusuf", AssignedUnit: "food"}),
		map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h.Finalize(rec, req)

	assertStatusCode(t, rec, http.StatusCreated)
	var resp finalizeResponse
	parseJSONResponse(t, rec, &resp)
	if resp.ID != "FG0001" {
		t.Errorf("id = %q, want FG0001", resp.ID)
	}
	if resp.FullName != "Amina Yusuf" {
		t.Errorf("full_name = %q", resp.FullName)
	}

	if _, err := staffStore.GetStaff(req.Context(), "FG0001"); err != nil {
		t.Fatalf("staff record not persisted: %v", err)
	}

	// The session is gone once finalized.
	getReq := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/enroll/sessions/"+id, nil),
		map[string]string{"id": id})
	getRec := httptest.NewRecorder()
	h.GetSession(getRec, getReq)
	assertStatusCode(t, getRec, http.StatusNotFound)
}

func TestFinalizeValidation(t *testing.T) {
	h, _ := newTestEnrollHandler(t)
	id := createSession(t, h)
	for _, photo := range []string{"front-photo", "left-photo", "right-photo"} {
		submitCapture(t, h, id, photo)
	}

	tests := []struct {
		name      string
		body      finalizeRequest
		wantField string
	}{
		{name: "missing name", body: finalizeRequest{AssignedUnit: "food"}, wantField: "full_name"},
		{name: "bad unit", body: finalizeRequest{FullName: "Amina Yusuf", AssignedUnit: "catering"}, wantField: "assigned_unit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithChiParams(
				jsonRequest(t, http.MethodPost, "/api/v1/enroll/sessions/"+id+"/finalize", tt.body),
				map[string]string{"id": id})
			rec := httptest.NewRecorder()
			h.Finalize(rec, req)

			assertStatusCode(t, rec, http.StatusUnprocessableEntity)
			var body map[string]string
			parseJSONResponse(t, rec, &body)
			if body["field"] != tt.wantField {
				t.Errorf("field = %q, want %q", body["field"], tt.wantField)
			}
		})
	}
}

func TestFinalizeIncompleteSession(t *testing.T) {
	h, _ := newTestEnrollHandler(t)
	id := createSession(t, h)
	submitCapture(t, h, id, "front-photo")

	req := requestWithChiParams(
		jsonRequest(t, http.MethodPost, "/api/v1/enroll/sessions/"+id+"/finalize",
			finalizeRequest{FullName: "Amina Yusuf", AssignedUnit: "food"}),
		map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h.Finalize(rec, req)

	assertStatusCode(t, rec, http.StatusUnprocessableEntity)
}

func TestAbandonSession(t *testing.T) {
	h, _ := newTestEnrollHandler(t)
	id := createSession(t, h)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/api/v1/enroll/sessions/"+id, nil),
		map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h.Abandon(rec, req)
	assertStatusCode(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	h.Abandon(rec, requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/api/v1/enroll/sessions/"+id, nil),
		map[string]string{"id": id}))
	assertStatusCode(t, rec, http.StatusNotFound)
}
