package fixture

import (
	"errors"
	"fmt"
)

// ValidationError reports a fixture definition that fails strict validation.
// It is always synchronous and human-readable; invalid definitions are never
// persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown fixture id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("fixture %q not found", e.ID)
}

// Code returns the HTTP-style status for this error.
func (e *NotFoundError) Code() int { return 404 }

// ConflictError reports an operation against a fixture in a state that
// forbids it: a disabled dispatch target, or a duplicate id on upsert.
type ConflictError struct {
	ID     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("fixture %q: %s", e.ID, e.Reason)
}

// Code returns the HTTP-style status for this error.
func (e *ConflictError) Code() int { return 409 }

// ConfigLoadError reports a fixtures config file that could not be read or
// parsed. It is recoverable: hot reload keeps the previous in-memory
// registry, first boot falls back to hardcoded defaults.
type ConfigLoadError struct {
	Path string
	Err  error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("load fixtures config %s: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsConfigLoad reports whether err is a ConfigLoadError.
func IsConfigLoad(err error) bool {
	var cl *ConfigLoadError
	return errors.As(err, &cl)
}
