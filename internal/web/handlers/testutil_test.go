package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aliyuchatgptt/falgates/internal/config"
	"github.com/aliyuchatgptt/falgates/internal/staff"
	"github.com/aliyuchatgptt/falgates/internal/store/mock"
)

// testConfig creates a minimal config for handler tests.
func testConfig() *config.Config {
	return &config.Config{
		Enrollment: config.EnrollmentConfig{
			Angles: []string{"front", "left", "right"},
		},
		Verification: config.VerificationConfig{
			ConfidenceThreshold: 85,
			RequiredMatches:     2,
			MultiReferenceMin:   3,
			OracleTimeout:       time.Second,
			DisplayWindow:       50 * time.Millisecond,
			CheckInLimit:        50,
		},
	}
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// jsonRequest creates a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// photoB64 encodes a fake photo payload for request bodies.
func photoB64(contents string) string {
	return base64.StdEncoding.EncodeToString([]byte(contents))
}

// parseJSONResponse decodes the recorder body into v.
func parseJSONResponse(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("parsing response %q: %v", rec.Body.String(), err)
	}
}

func assertStatusCode(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

// seedStaff adds a staff record with a full image set to a mock store.
func seedStaff(st *mock.MockStaffStore, id, name string, registered time.Time, refs ...string) {
	rec := staff.StaffRecord{
		ID:            id,
		FullName:      name,
		AssignedUnit:  "food",
		RegisteredAt:  registered,
		PrimaryPhoto:  []byte(id + "-primary"),
		FeatureVector: []float32{1, 0, 0},
	}
	var images []staff.StaffImage
	for i, ref := range refs {
		images = append(images, staff.StaffImage{
			StaffID: id,
			Angle:   staff.DefaultAngles[i%len(staff.DefaultAngles)],
			Photo:   []byte(ref),
		})
	}
	st.AddStaff(rec, images...)
}
