package regheap

import (
	"fmt"

	"github.com/reusee/lazyphy/exprs"
)

// reduction is one reduction of a register in a token.
// It records the changeable registers consulted and the registers created.
type reduction struct {
	m       *Machine
	t       int
	reg     int
	closure exprs.Closure
	args    []exprs.Expr
	used    []evalResult
	created []int
}

var _ exprs.OperationArgs = new(reduction)

func (r *reduction) NArgs() int {
	return len(r.args)
}

func (r *reduction) RegForSlot(slot int) int {
	if slot < 0 || slot >= len(r.args) {
		throw("register %d: argument slot %d out of range [0, %d)", r.reg, slot, len(r.args))
	}
	idx, ok := r.args[slot].(exprs.Index)
	if !ok {
		throw("register %d: argument %d is %T, not an index", r.reg, slot, r.args[slot])
	}
	return r.closure.Lookup(idx)
}

func (r *reduction) evaluate(slot int) (evalResult, error) {
	res, err := r.m.incrementalEvaluate(r.RegForSlot(slot), r.t)
	if err != nil {
		return res, err
	}
	if res.result.valid() {
		r.use(res)
	}
	return res, nil
}

func (r *reduction) use(res evalResult) {
	for _, u := range r.used {
		if u.reg == res.reg {
			return
		}
	}
	r.used = append(r.used, res)
}

func (r *reduction) Evaluate(slot int) (any, error) {
	res, err := r.evaluate(slot)
	if err != nil {
		return nil, err
	}
	return r.m.valueOf(res.value), nil
}

func (r *reduction) EvaluateClosure(slot int) (exprs.Closure, error) {
	res, err := r.evaluate(slot)
	if err != nil {
		return exprs.Closure{}, err
	}
	return r.m.regs.access(res.value).closure, nil
}

func (r *reduction) Allocate(c exprs.Closure) int {
	reg := r.m.allocate(c)
	r.created = append(r.created, reg)
	return reg
}

func (r *reduction) Current() exprs.Closure {
	return r.closure
}

// reduce performs one reduction step of r in t. It returns the closure r
// reduces to; an Index closure names the register to continue with.
// On error nothing is recorded.
func (m *Machine) reduce(r int, t int) (*reduction, exprs.Closure, error) {
	reg := m.regs.access(r)
	red := &reduction{
		m:       m,
		t:       t,
		reg:     r,
		closure: reg.closure,
	}
	m.totalReductions++
	m.metrics.Reductions.Inc()

	switch e := reg.closure.Expr.(type) {

	case exprs.Apply:
		red.args = e.Args
		out, err := e.Op.Func(red)
		if err != nil {
			return nil, exprs.Closure{}, err
		}
		if out.IsZero() {
			throw("operation %s returned an empty closure", e.Op.Name)
		}
		return red, out, nil

	case exprs.Call:
		red.args = make([]exprs.Expr, 0, len(e.Args)+1)
		red.args = append(red.args, e.Fn)
		red.args = append(red.args, e.Args...)
		fn, err := red.EvaluateClosure(0)
		if err != nil {
			return nil, exprs.Closure{}, err
		}
		lambda, ok := fn.Expr.(exprs.Lambda)
		if !ok {
			return nil, exprs.Closure{}, fmt.Errorf("register %d: calling %s: %w", r, fn, ErrNotFunction)
		}
		if len(lambda.Params) != len(e.Args) {
			return nil, exprs.Closure{}, fmt.Errorf("register %d: want %d arguments, got %d: %w",
				r, len(lambda.Params), len(e.Args), exprs.ErrArity)
		}
		args := make([]int, 0, len(e.Args))
		for i := range e.Args {
			args = append(args, red.RegForSlot(i+1))
		}
		env := fn.Extend(args...)
		if idx, ok := lambda.Body.(exprs.Index); ok {
			return red, exprs.Forwarding(env[idx]), nil
		}
		body := red.Allocate(exprs.Closure{
			Expr: lambda.Body,
			Env:  env,
		})
		return red, exprs.Forwarding(body), nil

	}

	throw("register %d: cannot reduce %T", r, reg.closure.Expr)
	return nil, exprs.Closure{}, nil
}
