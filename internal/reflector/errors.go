package reflector

import (
	"fmt"

	"github.com/roach88/gistub/internal/errors"
)

// ActivationError is a fatal-per-namespace failure to activate a namespace.
// Sibling namespaces are unaffected.
type ActivationError struct {
	Code      ActivationErrorCode
	Namespace string
	Version   string
	Message   string
	Err       error
}

// ActivationErrorCode categorizes activation failures.
type ActivationErrorCode string

const (
	// ErrCodeNotFound means no such namespace is installed.
	ErrCodeNotFound ActivationErrorCode = "NAMESPACE_NOT_FOUND"

	// ErrCodeVersionMismatch means the namespace exists at other versions only.
	ErrCodeVersionMismatch ActivationErrorCode = "VERSION_MISMATCH"

	// ErrCodePreloadInactive means a preload was not active when activation ran.
	ErrCodePreloadInactive ActivationErrorCode = "PRELOAD_INACTIVE"

	// ErrCodePreloadFailed means a preload could not be activated.
	ErrCodePreloadFailed ActivationErrorCode = "PRELOAD_FAILED"

	// ErrCodePreloadCycle means the preload chain loops back on itself.
	ErrCodePreloadCycle ActivationErrorCode = "PRELOAD_CYCLE"

	// ErrCodeUndeclared means the namespace is not part of the run.
	ErrCodeUndeclared ActivationErrorCode = "UNDECLARED_NAMESPACE"

	// ErrCodeBinding wraps any other binding-layer failure.
	ErrCodeBinding ActivationErrorCode = "BINDING_ERROR"
)

func (e *ActivationError) Error() string {
	ref := e.Namespace
	if e.Version != "" {
		ref += "-" + e.Version
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: activate %s: %s: %v", e.Code, ref, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: activate %s: %s", e.Code, ref, e.Message)
}

func (e *ActivationError) Unwrap() error { return e.Err }

// IsActivationError reports whether err is an ActivationError.
func IsActivationError(err error) bool {
	var ae *ActivationError
	return errors.As(err, &ae)
}

// ActivationCode extracts the code of an ActivationError, or "".
func ActivationCode(err error) ActivationErrorCode {
	var ae *ActivationError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
