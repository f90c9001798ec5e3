package nn

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors. Struct errors below match them through errors.Is.
var (
	ErrShape             = errors.New("shape mismatch")
	ErrDuplicateName     = errors.New("duplicate name")
	ErrEmptyComposite    = errors.New("composite has no children")
	ErrUnboundParameter  = errors.New("parameter is not bound")
	ErrStructureLocked   = errors.New("module structure is locked during forward")
	ErrInvalidName       = errors.New("invalid name")
	ErrNilModule         = errors.New("nil module")
	ErrCycle             = errors.New("module would contain itself")
	ErrParameterNotFound = errors.New("parameter not found")
	ErrChildNotFound     = errors.New("child module not found")
	ErrInputArity        = errors.New("wrong number of inputs")
	ErrNoActivation      = errors.New("backend does not implement activation")
)

// ShapeError reports an input or parameter whose dimensions cannot be
// reconciled with what a module expects.
type ShapeError struct {
	Module   string // module kind or qualified parameter name
	What     string // what was being checked, e.g. "input", "bind weight"
	Expected string // expected shape, "*" marks a free dimension
	Got      []int
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s: expected shape %s, got %v", e.Module, e.What, e.Expected, e.Got)
}

// Is matches ErrShape.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}

// NameKind tells the two registration namespaces apart.
type NameKind string

// Registration namespaces.
const (
	KindParameter NameKind = "parameter"
	KindChild     NameKind = "child"
)

// DuplicateNameError reports a registration under a name already taken in
// the same namespace of one module.
type DuplicateNameError struct {
	Module string
	Kind   NameKind
	Name   string
}

// Error implements the error interface.
func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s: %s %q already registered", e.Module, e.Kind, e.Name)
}

// Is matches ErrDuplicateName.
func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// formatShape renders dims with -1 shown as "*".
func formatShape(dims []int) string {
	s := "["
	for i, d := range dims {
		if i > 0 {
			s += " "
		}
		if d < 0 {
			s += "*"
		} else {
			s += fmt.Sprint(d)
		}
	}
	return s + "]"
}
