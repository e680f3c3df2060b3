package staff

import (
	"fmt"
	"strconv"
	"strings"
)

// IDPrefix is the fixed prefix for staff identifiers.
const IDPrefix = "FG"

// idNumberWidth is the zero-padded width of the numeric part.
const idNumberWidth = 4

// NextID derives the next sequential staff identifier from the existing id
// set. Non-digit characters are stripped before parsing; ids without any
// digits are ignored. The empty set yields the first id in sequence.
//
// This is a pure function of the current id set. It performs no reservation,
// so two enrollments finalizing concurrently can be handed the same id.
func NextID(existing []string) string {
	maxSeen := 0
	for _, id := range existing {
		digits := stripNonDigits(id)
		if digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		if n > maxSeen {
			maxSeen = n
		}
	}
	return fmt.Sprintf("%s%0*d", IDPrefix, idNumberWidth, maxSeen+1)
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
