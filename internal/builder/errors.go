package builder

import (
	"fmt"

	"github.com/roach88/gistub/internal/errors"
)

// Build error codes.
const (
	// ErrCodeDuplicateIdentifier means two canonical entities share one
	// qualified identifier. Duplicate folding should have prevented it.
	ErrCodeDuplicateIdentifier = "DUPLICATE_IDENTIFIER"

	// ErrCodeInvalidRaw means the reflector output is unusable.
	ErrCodeInvalidRaw = "INVALID_RAW"
)

// BuildError is fatal for one namespace.
type BuildError struct {
	Code      string
	Namespace string
	Entity    string
	Message   string
}

func (e *BuildError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: build %s.%s: %s", e.Code, e.Namespace, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: build %s: %s", e.Code, e.Namespace, e.Message)
}

// IsBuildError reports whether err is or wraps a *BuildError.
func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}
