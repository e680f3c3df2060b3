// Package mock provides in-memory implementations of the store interfaces
// for testing and for running the server without a database.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aliyuchatgptt/falgates/internal/staff"
	"github.com/aliyuchatgptt/falgates/internal/store"
)

// MockStaffStore is an in-memory implementation of store.StaffStore.
type MockStaffStore struct {
	mu     sync.RWMutex
	staff  map[string]*staff.StaffRecord
	images map[string][]staff.StaffImage

	// Error injection
	CreateStaffError error
	GetStaffError    error
	ListStaffError   error
	ImagesError      error
	UpdateTokenError error
	DeleteStaffError error

	// Call tracking
	CreateStaffCalls []string
	DeleteStaffCalls []string
	UpdateTokenCalls []TokenUpdateCall
}

// TokenUpdateCall tracks an UpdateRecognitionToken call.
type TokenUpdateCall struct {
	StaffID string
	Token   string
}

// NewMockStaffStore creates an empty in-memory staff store.
func NewMockStaffStore() *MockStaffStore {
	return &MockStaffStore{
		staff:  make(map[string]*staff.StaffRecord),
		images: make(map[string][]staff.StaffImage),
	}
}

// AddStaff seeds a record (and optional images) without error injection or tracking.
func (m *MockStaffStore) AddStaff(rec staff.StaffRecord, images ...staff.StaffImage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[rec.ID] = &rec
	if len(images) > 0 {
		m.images[rec.ID] = images
	}
}

// CreateStaff persists a staff record with its images.
func (m *MockStaffStore) CreateStaff(ctx context.Context, rec *staff.StaffRecord, images []staff.StaffImage) error {
	if m.CreateStaffError != nil {
		return m.CreateStaffError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateStaffCalls = append(m.CreateStaffCalls, rec.ID)
	cp := *rec
	m.staff[rec.ID] = &cp
	m.images[rec.ID] = append([]staff.StaffImage(nil), images...)
	return nil
}

// GetStaff retrieves a staff record by id.
func (m *MockStaffStore) GetStaff(ctx context.Context, id string) (*staff.StaffRecord, error) {
	if m.GetStaffError != nil {
		return nil, m.GetStaffError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.staff[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// GetStaffByToken retrieves a staff record by recognition token.
func (m *MockStaffStore) GetStaffByToken(ctx context.Context, token string) (*staff.StaffRecord, error) {
	if m.GetStaffError != nil {
		return nil, m.GetStaffError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.staff {
		if rec.RecognitionToken != "" && rec.RecognitionToken == token {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// ListStaff returns all records, newest registration first.
func (m *MockStaffStore) ListStaff(ctx context.Context) ([]staff.StaffRecord, error) {
	if m.ListStaffError != nil {
		return nil, m.ListStaffError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]staff.StaffRecord, 0, len(m.staff))
	for _, rec := range m.staff {
		result = append(result, *rec)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].RegisteredAt.Equal(result[j].RegisteredAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].RegisteredAt.After(result[j].RegisteredAt)
	})
	return result, nil
}

// ListStaffIDs returns the current id set.
func (m *MockStaffStore) ListStaffIDs(ctx context.Context) ([]string, error) {
	if m.ListStaffError != nil {
		return nil, m.ListStaffError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.staff))
	for id := range m.staff {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetStaffImages returns the image set for a staff record.
func (m *MockStaffStore) GetStaffImages(ctx context.Context, id string) ([]staff.StaffImage, error) {
	if m.ImagesError != nil {
		return nil, m.ImagesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]staff.StaffImage(nil), m.images[id]...), nil
}

// UpdateRecognitionToken attaches a recognition token to a record.
func (m *MockStaffStore) UpdateRecognitionToken(ctx context.Context, id, token string) error {
	if m.UpdateTokenError != nil {
		return m.UpdateTokenError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.staff[id]
	if !ok {
		return store.ErrNotFound
	}
	m.UpdateTokenCalls = append(m.UpdateTokenCalls, TokenUpdateCall{StaffID: id, Token: token})
	rec.RecognitionToken = token
	return nil
}

// DeleteStaff removes a record and its images.
func (m *MockStaffStore) DeleteStaff(ctx context.Context, id string) error {
	if m.DeleteStaffError != nil {
		return m.DeleteStaffError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staff[id]; !ok {
		return store.ErrNotFound
	}
	m.DeleteStaffCalls = append(m.DeleteStaffCalls, id)
	delete(m.staff, id)
	delete(m.images, id)
	return nil
}

// MockCheckInStore is an in-memory implementation of store.CheckInStore.
type MockCheckInStore struct {
	mu     sync.RWMutex
	events []staff.CheckInEvent
	nextID int64

	// Error injection
	AppendError error
	ListError   error
}

// NewMockCheckInStore creates an empty in-memory check-in store.
func NewMockCheckInStore() *MockCheckInStore {
	return &MockCheckInStore{}
}

// AppendCheckIn appends an event, assigning a sequential id and timestamp if unset.
func (m *MockCheckInStore) AppendCheckIn(ctx context.Context, ev *staff.CheckInEvent) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ev.ID = m.nextID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	m.events = append(m.events, *ev)
	return nil
}

// ListCheckIns returns events newest first, bounded by limit.
func (m *MockCheckInStore) ListCheckIns(ctx context.Context, limit int) ([]staff.CheckInEvent, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]staff.CheckInEvent, 0, limit)
	for i := len(m.events) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.events[i])
	}
	return result, nil
}

// Count returns the number of stored events.
func (m *MockCheckInStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// MockSettingsStore is an in-memory implementation of store.SettingsStore.
type MockSettingsStore struct {
	mu     sync.RWMutex
	values map[string]string

	// Error injection
	GetError error
	SetError error
}

// NewMockSettingsStore creates an empty in-memory settings store.
func NewMockSettingsStore() *MockSettingsStore {
	return &MockSettingsStore{values: make(map[string]string)}
}

// GetSetting returns the value for key, or "" when unset.
func (m *MockSettingsStore) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetError != nil {
		return "", m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

// SetSetting writes the value for key.
func (m *MockSettingsStore) SetSetting(ctx context.Context, key, value string) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Verify interface compliance
var _ store.StaffStore = (*MockStaffStore)(nil)
var _ store.CheckInStore = (*MockCheckInStore)(nil)
var _ store.SettingsStore = (*MockSettingsStore)(nil)
