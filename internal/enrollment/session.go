package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aliyuchatgptt/falgates/internal/staff"
)

// State is an observable phase of a capture session.
type State string

const (
	StateSelectingAngle      State = "selecting_angle"
	StateAwaitingCapture     State = "awaiting_capture"
	StatePendingQualityCheck State = "pending_quality_check"
	StateAngleAccepted       State = "angle_accepted"
	StateAngleRejected       State = "angle_rejected"
	StateAllAnglesComplete   State = "all_angles_complete"
)

// ErrCheckInProgress is returned when a capture is submitted while the
// previous one is still being quality-checked.
var ErrCheckInProgress = errors.New("quality check already in progress")

// Capture is one submitted photo with its quality verdict.
type Capture struct {
	Photo  []byte
	Valid  bool
	Reason string
}

// Session is the enrollment capture state machine: a fixed ordered angle
// sequence, each capture gated by the quality gate. Sessions are in-memory
// and single-writer; they are discarded on finalize or abandonment.
type Session struct {
	ID string

	mu           sync.Mutex
	gate         *Gate
	angles       []staff.Angle
	current      int
	captures     map[staff.Angle]*Capture
	state        State
	advanceDelay time.Duration
	advanceTimer *time.Timer
	createdAt    time.Time
}

// NewSession starts a session over the configured angle sequence.
func NewSession(gate *Gate, angles []staff.Angle, advanceDelay time.Duration) *Session {
	if len(angles) == 0 {
		angles = staff.DefaultAngles
	}
	return &Session{
		ID:           uuid.NewString(),
		gate:         gate,
		angles:       append([]staff.Angle(nil), angles...),
		captures:     make(map[staff.Angle]*Capture),
		state:        StateSelectingAngle,
		advanceDelay: advanceDelay,
		createdAt:    time.Now(),
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentAngle returns the angle the session is positioned on.
func (s *Session) CurrentAngle() staff.Angle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angles[s.current]
}

// Angles returns the configured capture sequence.
func (s *Session) Angles() []staff.Angle {
	return append([]staff.Angle(nil), s.angles...)
}

// Capture returns the stored capture for an angle, or nil.
func (s *Session) Capture(angle staff.Angle) *Capture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures[angle]
}

// BeginCapture opens the capture phase for the current angle.
func (s *Session) BeginCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePendingQualityCheck {
		return ErrCheckInProgress
	}
	s.cancelAdvanceLocked()
	s.state = StateAwaitingCapture
	return nil
}

// SubmitCapture runs the quality gate on a photo for the current angle. On a
// passing verdict the photo is stored (replacing any earlier capture of the
// angle) and, unless the sequence is complete, the session auto-advances to
// the next angle after the configured delay. On a failing verdict the photo
// is stored for diagnostics and the operator may retake.
func (s *Session) SubmitCapture(ctx context.Context, photo []byte) (*Capture, error) {
	s.mu.Lock()
	if s.state == StatePendingQualityCheck {
		s.mu.Unlock()
		return nil, ErrCheckInProgress
	}
	s.cancelAdvanceLocked()
	angle := s.angles[s.current]
	s.state = StatePendingQualityCheck
	s.mu.Unlock()

	// The gate call is remote; it runs without the session lock so state
	// queries stay responsive. The pending state blocks a second submit.
	verdict := s.gate.Check(ctx, photo)

	s.mu.Lock()
	defer s.mu.Unlock()

	capture := &Capture{Photo: photo, Valid: verdict.Valid, Reason: verdict.Reason}
	s.captures[angle] = capture

	if !verdict.Valid {
		s.state = StateAngleRejected
		return capture, nil
	}

	if s.allValidLocked() {
		s.state = StateAllAnglesComplete
		return capture, nil
	}

	s.state = StateAngleAccepted
	if next, ok := s.nextIncompleteLocked(); ok {
		if s.advanceDelay > 0 {
			s.advanceTimer = time.AfterFunc(s.advanceDelay, func() { s.advanceTo(next) })
		} else {
			s.current = next
			s.state = StateSelectingAngle
		}
	}
	return capture, nil
}

// Retake discards the current angle's capture only. Photos accepted for
// other angles are untouched.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePendingQualityCheck {
		return ErrCheckInProgress
	}
	s.cancelAdvanceLocked()
	delete(s.captures, s.angles[s.current])
	s.state = StateAwaitingCapture
	return nil
}

// SelectAngle moves to any configured angle, including already-accepted
// ones; a later capture for that angle replaces the stored photo. Manual
// navigation cancels a pending auto-advance.
func (s *Session) SelectAngle(angle staff.Angle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePendingQualityCheck {
		return ErrCheckInProgress
	}
	for i, a := range s.angles {
		if a == angle {
			s.cancelAdvanceLocked()
			s.current = i
			s.state = StateSelectingAngle
			return nil
		}
	}
	return fmt.Errorf("unknown angle %q", angle)
}

// CanFinalize reports whether every configured angle holds a capture that
// passed the quality gate.
func (s *Session) CanFinalize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allValidLocked()
}

// Images returns the accepted capture set as angle-tagged staff images.
func (s *Session) Images(staffID string, at time.Time) []staff.StaffImage {
	s.mu.Lock()
	defer s.mu.Unlock()

	images := make([]staff.StaffImage, 0, len(s.angles))
	for _, angle := range s.angles {
		c := s.captures[angle]
		if c == nil || !c.Valid {
			continue
		}
		images = append(images, staff.StaffImage{
			StaffID:   staffID,
			Angle:     angle,
			Photo:     c.Photo,
			CreatedAt: at,
		})
	}
	return images
}

// FrontPhoto returns the accepted capture for the first configured angle,
// which serves as the staff record's primary reference photo.
func (s *Session) FrontPhoto() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.captures[s.angles[0]]; c != nil && c.Valid {
		return c.Photo
	}
	return nil
}

// Close cancels any pending auto-advance. Called when a session is
// finalized or abandoned.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAdvanceLocked()
}

func (s *Session) advanceTo(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A manual navigation or retake may have raced the timer.
	if s.state != StateAngleAccepted {
		return
	}
	s.current = idx
	s.state = StateSelectingAngle
}

func (s *Session) cancelAdvanceLocked() {
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
}

func (s *Session) allValidLocked() bool {
	for _, angle := range s.angles {
		c := s.captures[angle]
		if c == nil || !c.Valid {
			return false
		}
	}
	return true
}

// nextIncompleteLocked finds the next angle after the current one without an
// accepted capture.
func (s *Session) nextIncompleteLocked() (int, bool) {
	for i := s.current + 1; i < len(s.angles); i++ {
		c := s.captures[s.angles[i]]
		if c == nil || !c.Valid {
			return i, true
		}
	}
	return 0, false
}

// AngleStatus is one angle's position in a session snapshot.
type AngleStatus struct {
	Angle    staff.Angle `json:"angle"`
	Captured bool        `json:"captured"`
	Valid    bool        `json:"valid"`
	Reason   string      `json:"reason,omitempty"`
}

// View is a read-only snapshot of a session for display.
type View struct {
	ID           string        `json:"id"`
	State        State         `json:"state"`
	CurrentAngle staff.Angle   `json:"current_angle"`
	Angles       []AngleStatus `json:"angles"`
	CanFinalize  bool          `json:"can_finalize"`
}

// Snapshot returns the session's observable state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{
		ID:           s.ID,
		State:        s.state,
		CurrentAngle: s.angles[s.current],
		CanFinalize:  s.allValidLocked(),
	}
	for _, angle := range s.angles {
		status := AngleStatus{Angle: angle}
		if c := s.captures[angle]; c != nil {
			status.Captured = true
			status.Valid = c.Valid
			status.Reason = c.Reason
		}
		view.Angles = append(view.Angles, status)
	}
	return view
}
