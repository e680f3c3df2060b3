package sqlstore

import (
	"context"
	"fmt"

	"github.com/aliyuchatgptt/falgates/internal/staff"
	"github.com/aliyuchatgptt/falgates/internal/store"
)

// AppendCheckIn inserts one event. There is no update or delete path; the
// table is append-only.
func (s *Store) AppendCheckIn(ctx context.Context, ev *staff.CheckInEvent) error {
	if s.driver == driverPostgres {
		err := s.queryRow(ctx, `
			INSERT INTO checkins (staff_id, staff_name, assigned_unit, occurred_at, confidence)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, ev.StaffID, ev.StaffName, ev.AssignedUnit, ev.Timestamp, ev.Confidence).Scan(&ev.ID)
		if err != nil {
			return fmt.Errorf("append check-in for %s: %w", ev.StaffID, err)
		}
		return nil
	}

	result, err := s.exec(ctx, `
		INSERT INTO checkins (staff_id, staff_name, assigned_unit, occurred_at, confidence)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.StaffID, ev.StaffName, ev.AssignedUnit, ev.Timestamp, ev.Confidence)
	if err != nil {
		return fmt.Errorf("append check-in for %s: %w", ev.StaffID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		ev.ID = id
	}
	return nil
}

// ListCheckIns returns the most recent events, newest first.
func (s *Store) ListCheckIns(ctx context.Context, limit int) ([]staff.CheckInEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.query(ctx, `
		SELECT id, staff_id, staff_name, assigned_unit, occurred_at, confidence
		FROM checkins
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	var events []staff.CheckInEvent
	for rows.Next() {
		var ev staff.CheckInEvent
		if err := rows.Scan(&ev.ID, &ev.StaffID, &ev.StaffName, &ev.AssignedUnit, &ev.Timestamp, &ev.Confidence); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check-ins: %w", err)
	}
	return events, nil
}

var _ store.CheckInStore = (*Store)(nil)
