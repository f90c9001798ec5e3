package checkpoint

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrTensorOutOfBounds  = errors.New("tensor extends beyond data section")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrMissingTensor      = errors.New("missing tensor in state")
	ErrUnexpectedTensor   = errors.New("unexpected tensor in state")
	ErrDType              = errors.New("unsupported tensor dtype")
)

// ValidationError provides detailed information about a malformed header.
type ValidationError struct {
	Type    string // e.g. "out_of_bounds", "offset_overlap", "invalid_name"
	Tensor  string
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor != "" {
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Is matches ErrTensorOutOfBounds for bounds failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrTensorOutOfBounds && e.Type == "out_of_bounds"
}
