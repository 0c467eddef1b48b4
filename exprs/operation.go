package exprs

import "fmt"

// OperationArgs is the view an operation has of the register being reduced.
// Every Evaluate records the consulted register as an input of the running step.
type OperationArgs interface {
	NArgs() int
	RegForSlot(slot int) int
	Evaluate(slot int) (any, error)
	EvaluateClosure(slot int) (Closure, error)
	Allocate(c Closure) int
	Current() Closure
}

type OperationFunc func(args OperationArgs) (Closure, error)

type Operation struct {
	Name string
	// Arity is the number of arguments, or -1 for any
	Arity int
	Func  OperationFunc
}

func NewOperation(name string, arity int, fn OperationFunc) *Operation {
	return &Operation{
		Name:  name,
		Arity: arity,
		Func:  fn,
	}
}

func (o *Operation) String() string {
	return o.Name
}

// Forward makes the reduction continue with the register of slot.
func Forward(args OperationArgs, slot int) Closure {
	return Forwarding(args.RegForSlot(slot))
}

func checkArity(op *Operation, n int) error {
	if op.Arity >= 0 && op.Arity != n {
		return fmt.Errorf("%s: want %d arguments, got %d: %w", op.Name, op.Arity, n, ErrArity)
	}
	return nil
}
