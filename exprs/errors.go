package exprs

import "errors"

var (
	ErrUnknownName     = errors.New("unknown name")
	ErrUnexpectedIndex = errors.New("index variable in surface expression")
	ErrType            = errors.New("type mismatch")
	ErrArity           = errors.New("arity mismatch")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrDomain          = errors.New("argument out of domain")
)
