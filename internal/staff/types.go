// Package staff holds the checkpoint domain types: enrolled staff records,
// their angle-tagged reference photos and append-only check-in events.
package staff

import (
	"fmt"
	"time"
)

// Angle is one of the photo capture poses required during enrollment.
type Angle string

const (
	AngleFront Angle = "front"
	AngleLeft  Angle = "left"
	AngleRight Angle = "right"
)

// DefaultAngles is the capture sequence used when no sequence is configured.
var DefaultAngles = []Angle{AngleFront, AngleLeft, AngleRight}

// DistributionUnits is the fixed set of units a staff member can be assigned to.
var DistributionUnits = []string{
	"food",
	"clothing",
	"medicine",
	"shelter",
	"logistics",
}

// ValidUnit reports whether unit is one of the known distribution units.
func ValidUnit(unit string) bool {
	for _, u := range DistributionUnits {
		if u == unit {
			return true
		}
	}
	return false
}

// StaffRecord is an enrolled staff member. Created once at enrollment
// finalization; only the recognition token is mutated afterwards.
type StaffRecord struct {
	ID               string    // sequential, e.g. "FG0042"
	FullName         string
	AssignedUnit     string    // one of DistributionUnits
	RegisteredAt     time.Time
	PrimaryPhoto     []byte    // front-angle reference photo
	RecognitionToken string    // opaque handle issued by the indexed oracle, may be empty
	FeatureVector    []float32 // reserved for embedding-based search, unused by matching
}

// StaffImage is one angle-tagged reference photo belonging to a staff record.
type StaffImage struct {
	StaffID   string
	Angle     Angle
	Photo     []byte
	CreatedAt time.Time
}

// CheckInEvent is an immutable record of one accepted verification.
// Name and unit are denormalized from the staff record at event time.
type CheckInEvent struct {
	ID           int64
	StaffID      string
	StaffName    string
	AssignedUnit string
	Timestamp    time.Time
	Confidence   float64 // 0-100
}

// ValidationError reports a locally rejected input, before any oracle call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}
