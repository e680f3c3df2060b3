package enrollment

import (
	"context"
	"strings"
	"testing"

	"github.com/aliyuchatgptt/falgates/internal/recognition"
)

type fakeChecker struct {
	result *recognition.QualityResult
	err    error
	calls  int
}

func (f *fakeChecker) Name() string { return "fake" }

func (f *fakeChecker) CheckQuality(ctx context.Context, photo []byte) (*recognition.QualityResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestGatePassesVerdictThrough(t *testing.T) {
	checker := &fakeChecker{result: &recognition.QualityResult{Valid: false, Reason: "face not centered"}}
	gate := NewGate(checker)

	result := gate.Check(context.Background(), []byte("photo"))
	if result.Valid {
		t.Error("expected failing verdict to pass through")
	}
	if result.Reason != "face not centered" {
		t.Errorf("reason = %q", result.Reason)
	}
	if checker.calls != 1 {
		t.Errorf("checker called %d times", checker.calls)
	}
}

func TestGateFailsOpenOnOracleError(t *testing.T) {
	checker := &fakeChecker{err: recognition.ErrOracleUnavailable}
	gate := NewGate(checker)

	result := gate.Check(context.Background(), []byte("photo"))
	if !result.Valid {
		t.Error("gate must fail open on oracle error")
	}
	if !strings.Contains(result.Reason, "skipped") {
		t.Errorf("reason must flag the skipped check, got %q", result.Reason)
	}
}

func TestGateFailsOpenWithoutProvider(t *testing.T) {
	gate := NewGate(nil)

	result := gate.Check(context.Background(), []byte("photo"))
	if !result.Valid {
		t.Error("gate must pass when no provider is configured")
	}
	if !strings.Contains(result.Reason, "skipped") {
		t.Errorf("reason must flag the skipped check, got %q", result.Reason)
	}
}
