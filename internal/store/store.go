// Package store defines the record-store interfaces for staff records,
// check-in events and key-value settings. Implementations live in the
// sqlstore (PostgreSQL/MySQL) and mock (in-memory) subpackages.
package store

import (
	"context"
	"errors"

	"github.com/aliyuchatgptt/falgates/internal/staff"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// StaffStore provides access to staff records and their image sets.
type StaffStore interface {
	// CreateStaff persists a staff record together with its angle-tagged
	// image set. The write is atomic: either both the record and every
	// image are stored, or nothing is.
	CreateStaff(ctx context.Context, rec *staff.StaffRecord, images []staff.StaffImage) error

	// GetStaff retrieves a staff record by id. Returns ErrNotFound if missing.
	GetStaff(ctx context.Context, id string) (*staff.StaffRecord, error)

	// GetStaffByToken retrieves a staff record by its recognition token.
	GetStaffByToken(ctx context.Context, token string) (*staff.StaffRecord, error)

	// ListStaff returns all staff records ordered by registration time,
	// newest first. Verification iterates candidates in exactly this order.
	ListStaff(ctx context.Context) ([]staff.StaffRecord, error)

	// ListStaffIDs returns the full current id set for the allocator.
	ListStaffIDs(ctx context.Context) ([]string, error)

	// GetStaffImages returns the angle-tagged reference photos for a staff record.
	GetStaffImages(ctx context.Context, id string) ([]staff.StaffImage, error)

	// UpdateRecognitionToken attaches an externally-issued recognition token
	// to an existing staff record. The only permitted post-creation mutation.
	UpdateRecognitionToken(ctx context.Context, id, token string) error

	// DeleteStaff removes a staff record and its image set.
	DeleteStaff(ctx context.Context, id string) error
}

// CheckInStore provides append-only access to check-in events.
type CheckInStore interface {
	// AppendCheckIn appends an event. Events are never updated or deleted.
	AppendCheckIn(ctx context.Context, ev *staff.CheckInEvent) error

	// ListCheckIns returns the most recent events, newest first, bounded by limit.
	ListCheckIns(ctx context.Context, limit int) ([]staff.CheckInEvent, error)
}

// SettingsStore is a key-value store for credentials and oracle configuration.
type SettingsStore interface {
	// GetSetting returns the value for key, or "" when unset.
	GetSetting(ctx context.Context, key string) (string, error)

	// SetSetting writes the value for key, overwriting any previous value.
	SetSetting(ctx context.Context, key, value string) error
}
