package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aliyuchatgptt/falgates/internal/staff"
	"github.com/aliyuchatgptt/falgates/internal/store/mock"
	"github.com/aliyuchatgptt/falgates/internal/verify"
)

func newTestCheckInHandler(t *testing.T, events int) (*CheckInHandler, *mock.MockCheckInStore) {
	t.Helper()
	st := mock.NewMockCheckInStore()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < events; i++ {
		ev := &staff.CheckInEvent{
			StaffID:      "FG0001",
			StaffName:    "Amina Yusuf",
			AssignedUnit: "food",
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
			Confidence:   90,
		}
		if err := st.AppendCheckIn(context.Background(), ev); err != nil {
			t.Fatalf("seeding check-in: %v", err)
		}
	}
	return NewCheckInHandler(verify.NewRecorder(st, 50)), st
}

func TestCheckInList(t *testing.T) {
	h, _ := newTestCheckInHandler(t, 3)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/checkins", nil))

	assertStatusCode(t, rec, http.StatusOK)
	var events []staff.CheckInEvent
	parseJSONResponse(t, rec, &events)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	// Newest first.
	if !events[0].Timestamp.After(events[1].Timestamp) {
		t.Error("events not ordered newest first")
	}
}

func TestCheckInListHonorsLimit(t *testing.T) {
	h, _ := newTestCheckInHandler(t, 5)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/checkins?limit=2", nil))

	assertStatusCode(t, rec, http.StatusOK)
	var events []staff.CheckInEvent
	parseJSONResponse(t, rec, &events)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
}

func TestCheckInListRejectsBadLimit(t *testing.T) {
	h, _ := newTestCheckInHandler(t, 1)

	for _, limit := range []string{"0", "-1", "abc"} {
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/checkins?limit="+limit, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, rec.Code)
		}
	}
}

func TestCheckInListStoreFailure(t *testing.T) {
	h, st := newTestCheckInHandler(t, 0)
	st.ListError = http.ErrHandlerTimeout

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/checkins", nil))

	assertStatusCode(t, rec, http.StatusInternalServerError)
}
