package regheap

import (
	"errors"
	"fmt"
)

var (
	ErrModifiableUnset = errors.New("modifiable has no value")
	ErrNotModifiable   = errors.New("register is not modifiable")
	ErrInfiniteLoop    = errors.New("infinite loop")
	ErrNotFunction     = errors.New("not a function")
	ErrUndefined       = errors.New("register has no expression")
	ErrUnknownContext  = errors.New("unknown context")
	ErrDuplicatedName  = errors.New("duplicated name")
	ErrUnknownRegister = errors.New("unknown register")
	ErrBadRange        = errors.New("bad range")
)

// InternalError is the panic value for broken machine invariants.
// It is never returned as an error: the graph may already be inconsistent.
type InternalError struct {
	Message string
}

func (i *InternalError) Error() string {
	return "regheap internal error: " + i.Message
}

func throw(format string, args ...any) {
	panic(&InternalError{
		Message: fmt.Sprintf(format, args...),
	})
}
