package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/aliyuchatgptt/falgates/internal/staff"
	"github.com/aliyuchatgptt/falgates/internal/store/mock"
)

func TestRecorderClampsConfidence(t *testing.T) {
	rec := &staff.StaffRecord{ID: "FG0001", FullName: "Amina Diallo", AssignedUnit: "food"}

	tests := []struct {
		in   float64
		want float64
	}{
		{89.5, 89.5},
		{-3, 0},
		{140, 100},
	}

	for _, tt := range tests {
		checkins := mock.NewMockCheckInStore()
		r := NewRecorder(checkins, 10)
		ev, err := r.Record(context.Background(), rec, tt.in)
		if err != nil {
			t.Fatalf("Record(%v) error: %v", tt.in, err)
		}
		if ev.Confidence != tt.want {
			t.Errorf("Record(%v) confidence = %v, want %v", tt.in, ev.Confidence, tt.want)
		}
		if ev.StaffName != "Amina Diallo" || ev.AssignedUnit != "food" {
			t.Errorf("event not denormalized: %+v", ev)
		}
	}
}

func TestRecorderRecentDefaultLimit(t *testing.T) {
	checkins := mock.NewMockCheckInStore()
	r := NewRecorder(checkins, 2)
	rec := &staff.StaffRecord{ID: "FG0001", FullName: "Amina", AssignedUnit: "food"}

	for i := 0; i < 3; i++ {
		if _, err := r.Record(context.Background(), rec, 90); err != nil {
			t.Fatal(err)
		}
	}

	events, err := r.Recent(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("default limit not applied, got %d events", len(events))
	}
}

func TestRecorderStoreFailure(t *testing.T) {
	checkins := mock.NewMockCheckInStore()
	checkins.AppendError = errors.New("disk full")
	r := NewRecorder(checkins, 10)

	_, err := r.Record(context.Background(), &staff.StaffRecord{ID: "FG0001"}, 90)
	if err == nil {
		t.Error("store failure must surface")
	}
}
