package recognition

import (
	"errors"
	"fmt"
)

// ErrOracleUnavailable marks any transport or auth failure from an oracle.
// The quality gate fails open on it; verification fails closed.
var ErrOracleUnavailable = errors.New("recognition oracle unavailable")

// ErrCredentialMissing is raised before attempting any oracle call when no
// API key is configured. Deliberately distinct from a network failure.
var ErrCredentialMissing = errors.New("recognition credentials missing")

// unavailable wraps err so that errors.Is(err, ErrOracleUnavailable) holds.
func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrOracleUnavailable, fmt.Sprintf(format, args...))
}
