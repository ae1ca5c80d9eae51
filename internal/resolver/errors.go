package resolver

import (
	"fmt"
	"strings"

	"github.com/roach88/gistub/internal/errors"
)

// CycleError reports a cycle in the package group graph. Path starts and
// ends with the same group, beginning at the earliest declared member.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("package group cycle: %s", strings.Join(e.Path, " -> "))
}

// IsCycleError reports whether err is or wraps a *CycleError.
func IsCycleError(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}

// Config error codes.
const (
	ErrCodeDuplicateGroup      = "DUPLICATE_GROUP"
	ErrCodeUnknownGroup        = "UNKNOWN_GROUP"
	ErrCodeDuplicateMembership = "DUPLICATE_MEMBERSHIP"
)

// ConfigError is a malformed group declaration, fatal for the run.
type ConfigError struct {
	Code    string
	Group   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: group %s: %s", e.Code, e.Group, e.Message)
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
