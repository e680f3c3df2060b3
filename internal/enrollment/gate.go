// Package enrollment implements the staff enrollment flow: a quality-gated
// capture session over a fixed angle sequence, and finalization into a
// persisted staff record.
package enrollment

import (
	"context"
	"log"

	"github.com/aliyuchatgptt/falgates/internal/recognition"
)

// Gate validates captured photos before they are accepted into a session.
//
// The gate fails open: when no quality provider is configured, or the
// provider errors, the photo is accepted with a reason flagging that the
// check was skipped. A transient provider outage must never block
// enrollment.
type Gate struct {
	checker recognition.QualityChecker // may be nil
}

// NewGate creates a quality gate. A nil checker disables checking; every
// photo passes with a skip notice.
func NewGate(checker recognition.QualityChecker) *Gate {
	return &Gate{checker: checker}
}

// Check validates one photo. The result is always usable; provider failures
// are folded into a passing result rather than returned.
func (g *Gate) Check(ctx context.Context, photo []byte) *recognition.QualityResult {
	if g.checker == nil {
		return &recognition.QualityResult{
			Valid:  true,
			Reason: "quality check skipped: no provider configured",
		}
	}

	result, err := g.checker.CheckQuality(ctx, photo)
	if err != nil {
		log.Printf("quality check failed, accepting photo: %v", err)
		return &recognition.QualityResult{
			Valid:  true,
			Reason: "quality check skipped: " + err.Error(),
		}
	}
	return result
}
