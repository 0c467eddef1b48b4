package exprs

// Expr is a node of the expression graph.
//
// Surface expressions may contain Local, Var and RegRef. After Preprocess,
// every variable is an Index into the closure environment.
type Expr interface {
	isExpr()
}

// Lit is a value in weak-head normal form.
type Lit struct {
	Value any
}

// Local is a let-bound or lambda-bound name.
type Local string

// Var is a named identifier or parameter of the machine.
type Var string

// RegRef refers to a register directly.
type RegRef int

// Index is a positional slot of the closure environment.
type Index int

// Apply applies a builtin operation.
type Apply struct {
	Op   *Operation
	Args []Expr
}

// Call applies a user function.
type Call struct {
	Fn   Expr
	Args []Expr
}

// Lambda is a function value. The body sees the lambda environment
// followed by one slot per parameter.
type Lambda struct {
	Params []string
	Body   Expr
}

// Let is a recursive let. Every binding gets a register; bindings and body
// see the environment followed by one slot per binding.
type Let struct {
	Names []string
	Binds []Expr
	Body  Expr
}

// Modifiable is a mutation point. Its value lives in token state.
type Modifiable struct{}

func (Lit) isExpr()        {}
func (Local) isExpr()      {}
func (Var) isExpr()        {}
func (RegRef) isExpr()     {}
func (Index) isExpr()      {}
func (Apply) isExpr()      {}
func (Call) isExpr()       {}
func (Lambda) isExpr()     {}
func (Let) isExpr()        {}
func (Modifiable) isExpr() {}

func L(v any) Lit {
	return Lit{Value: v}
}

func Ap(op *Operation, args ...Expr) Apply {
	return Apply{
		Op:   op,
		Args: args,
	}
}

func Fn(params []string, body Expr) Lambda {
	return Lambda{
		Params: params,
		Body:   body,
	}
}
