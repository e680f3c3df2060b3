package enrollment

import (
	"context"
	"testing"
	"time"

	"github.com/aliyuchatgptt/falgates/internal/recognition"
	"github.com/aliyuchatgptt/falgates/internal/staff"
)

func passingGate() *Gate {
	return NewGate(&fakeChecker{result: &recognition.QualityResult{Valid: true, Reason: "ok"}})
}

func failingGate(reason string) *Gate {
	return NewGate(&fakeChecker{result: &recognition.QualityResult{Valid: false, Reason: reason}})
}

func TestSessionCompletesAllAngles(t *testing.T) {
	ctx := context.Background()
	s := NewSession(passingGate(), staff.DefaultAngles, 0)

	if s.State() != StateSelectingAngle {
		t.Fatalf("initial state = %s", s.State())
	}
	if s.CurrentAngle() != staff.AngleFront {
		t.Fatalf("initial angle = %s", s.CurrentAngle())
	}

	// Submit all three angles; zero advance delay moves immediately.
	for i, want := range []staff.Angle{staff.AngleFront, staff.AngleLeft, staff.AngleRight} {
		if s.CurrentAngle() != want {
			t.Fatalf("step %d: angle = %s, want %s", i, s.CurrentAngle(), want)
		}
		if _, err := s.SubmitCapture(ctx, []byte("photo-"+string(want))); err != nil {
			t.Fatalf("SubmitCapture(%s) error: %v", want, err)
		}
	}

	if s.State() != StateAllAnglesComplete {
		t.Errorf("state = %s, want %s", s.State(), StateAllAnglesComplete)
	}
	if !s.CanFinalize() {
		t.Error("finalize must be enabled once every angle is accepted")
	}

	images := s.Images("FG0001", time.Now())
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	if string(s.FrontPhoto()) != "photo-front" {
		t.Error("front photo must come from the first configured angle")
	}
}

func TestSessionRejectedAngleBlocksFinalize(t *testing.T) {
	ctx := context.Background()
	s := NewSession(failingGate("eyes closed"), staff.DefaultAngles, 0)

	capture, err := s.SubmitCapture(ctx, []byte("photo"))
	if err != nil {
		t.Fatalf("SubmitCapture() error: %v", err)
	}
	if capture.Valid {
		t.Error("expected rejected capture")
	}
	if s.State() != StateAngleRejected {
		t.Errorf("state = %s, want %s", s.State(), StateAngleRejected)
	}
	if s.CurrentAngle() != staff.AngleFront {
		t.Error("rejected capture must not advance the angle")
	}
	if s.CanFinalize() {
		t.Error("finalize must stay disabled")
	}
}

func TestSessionRetakeClearsOnlyCurrentAngle(t *testing.T) {
	ctx := context.Background()
	s := NewSession(passingGate(), staff.DefaultAngles, 0)

	for range staff.DefaultAngles {
		if _, err := s.SubmitCapture(ctx, []byte("photo")); err != nil {
			t.Fatal(err)
		}
	}
	if !s.CanFinalize() {
		t.Fatal("precondition: session complete")
	}

	// Go back to the left angle and retake: finalize must flip off until
	// the angle is recaptured.
	if err := s.SelectAngle(staff.AngleLeft); err != nil {
		t.Fatal(err)
	}
	if err := s.Retake(); err != nil {
		t.Fatal(err)
	}
	if s.CanFinalize() {
		t.Error("finalize must be disabled after a retake")
	}
	if s.Capture(staff.AngleLeft) != nil {
		t.Error("retake must clear the current angle's capture")
	}
	if s.Capture(staff.AngleFront) == nil || s.Capture(staff.AngleRight) == nil {
		t.Error("retake must not touch other angles")
	}

	if _, err := s.SubmitCapture(ctx, []byte("photo-2")); err != nil {
		t.Fatal(err)
	}
	if !s.CanFinalize() {
		t.Error("finalize must be re-enabled after recapture")
	}
}

func TestSessionReselectReplacesAcceptedPhoto(t *testing.T) {
	ctx := context.Background()
	s := NewSession(passingGate(), staff.DefaultAngles, 0)

	if _, err := s.SubmitCapture(ctx, []byte("first")); err != nil {
		t.Fatal(err)
	}

	// Re-selecting an already-accepted angle is always permitted.
	if err := s.SelectAngle(staff.AngleFront); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SubmitCapture(ctx, []byte("second")); err != nil {
		t.Fatal(err)
	}
	if string(s.Capture(staff.AngleFront).Photo) != "second" {
		t.Error("new capture must replace the angle's stored photo")
	}
}

func TestSessionUnknownAngle(t *testing.T) {
	s := NewSession(passingGate(), staff.DefaultAngles, 0)
	if err := s.SelectAngle("sideways"); err == nil {
		t.Error("expected error for unknown angle")
	}
}

func TestSessionAutoAdvanceAfterDelay(t *testing.T) {
	ctx := context.Background()
	s := NewSession(passingGate(), staff.DefaultAngles, 10*time.Millisecond)

	if _, err := s.SubmitCapture(ctx, []byte("photo")); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateAngleAccepted {
		t.Fatalf("state = %s, want %s before the delay elapses", s.State(), StateAngleAccepted)
	}
	if s.CurrentAngle() != staff.AngleFront {
		t.Error("must not advance before the delay elapses")
	}

	deadline := time.Now().Add(time.Second)
	for s.CurrentAngle() != staff.AngleLeft {
		if time.Now().After(deadline) {
			t.Fatal("session never auto-advanced")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if s.State() != StateSelectingAngle {
		t.Errorf("state = %s after auto-advance", s.State())
	}
}

func TestSessionManualNavigationCancelsAutoAdvance(t *testing.T) {
	ctx := context.Background()
	s := NewSession(passingGate(), staff.DefaultAngles, 30*time.Millisecond)

	if _, err := s.SubmitCapture(ctx, []byte("photo")); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectAngle(staff.AngleRight); err != nil {
		t.Fatal(err)
	}

	time.Sleep(60 * time.Millisecond)
	if s.CurrentAngle() != staff.AngleRight {
		t.Errorf("auto-advance overrode manual navigation, angle = %s", s.CurrentAngle())
	}
}

func TestSessionDefaultsAngles(t *testing.T) {
	s := NewSession(passingGate(), nil, 0)
	if got := s.Angles(); len(got) != len(staff.DefaultAngles) {
		t.Errorf("expected default angle sequence, got %v", got)
	}
	if s.ID == "" {
		t.Error("session must get an id")
	}
}

func TestSessionSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewSession(passingGate(), staff.DefaultAngles, 0)

	if _, err := s.SubmitCapture(ctx, []byte("photo")); err != nil {
		t.Fatal(err)
	}

	view := s.Snapshot()
	if view.ID != s.ID {
		t.Error("snapshot id mismatch")
	}
	if len(view.Angles) != 3 {
		t.Fatalf("expected 3 angle statuses, got %d", len(view.Angles))
	}
	if !view.Angles[0].Captured || !view.Angles[0].Valid {
		t.Errorf("front status = %+v", view.Angles[0])
	}
	if view.Angles[1].Captured {
		t.Error("left angle should be uncaptured")
	}
	if view.CanFinalize {
		t.Error("snapshot must report finalize disabled")
	}
}
