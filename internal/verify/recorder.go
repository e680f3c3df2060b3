package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/aliyuchatgptt/falgates/internal/staff"
	"github.com/aliyuchatgptt/falgates/internal/store"
)

// Recorder appends check-in events. Pure append; only the orchestrator's
// success path calls Record.
type Recorder struct {
	store        store.CheckInStore
	defaultLimit int
}

// NewRecorder creates a recorder. defaultLimit bounds Recent when the
// caller passes no limit of its own.
func NewRecorder(st store.CheckInStore, defaultLimit int) *Recorder {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &Recorder{store: st, defaultLimit: defaultLimit}
}

// Record appends one event for an accepted verification. Name and unit are
// denormalized from the record at event time; confidence is clamped to
// [0, 100].
func (r *Recorder) Record(ctx context.Context, rec *staff.StaffRecord, confidence float64) (*staff.CheckInEvent, error) {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	ev := &staff.CheckInEvent{
		StaffID:      rec.ID,
		StaffName:    rec.FullName,
		AssignedUnit: rec.AssignedUnit,
		Timestamp:    time.Now().UTC(),
		Confidence:   confidence,
	}
	if err := r.store.AppendCheckIn(ctx, ev); err != nil {
		return nil, fmt.Errorf("recording check-in for %s: %w", rec.ID, err)
	}
	return ev, nil
}

// Recent returns the latest events, newest first. limit <= 0 uses the
// configured default.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]staff.CheckInEvent, error) {
	if limit <= 0 {
		limit = r.defaultLimit
	}
	events, err := r.store.ListCheckIns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing check-ins: %w", err)
	}
	return events, nil
}
