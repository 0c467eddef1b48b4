package regheap

import (
	"fmt"

	"github.com/reusee/lazyphy/exprs"
)

// evalResult is the outcome of evaluating a register in a token.
type evalResult struct {
	// changeable register whose result was used, or -1 if the value is constant
	reg int
	// register holding the weak-head normal form
	value  int
	result handle
	deps   uint64
}

// LazyEvaluate evaluates r to weak-head normal form in context ctx.
// Literals are returned as their Go value, functions as exprs.Closure.
func (m *Machine) LazyEvaluate(r int, ctx int) (any, error) {
	if err := m.checkContext(ctx); err != nil {
		return nil, err
	}
	if err := m.checkReg(r); err != nil {
		return nil, err
	}
	// r survives a collection triggered on entry
	m.pushTempHead(r)
	defer m.popTempHead()
	m.enter()
	defer m.leave()
	res, err := m.incrementalEvaluate(r, m.tokenForContext(ctx))
	if err != nil {
		return nil, err
	}
	return m.valueOf(res.value), nil
}

func (m *Machine) checkReg(r int) error {
	if !m.regs.isUsed(r) {
		return fmt.Errorf("register %d: %w", r, ErrUnknownRegister)
	}
	return nil
}

func (m *Machine) valueOf(r int) any {
	c := m.regs.access(r).closure
	if lit, ok := c.Expr.(exprs.Lit); ok {
		return lit.Value
	}
	return c
}

// pendingCall is a changeable register whose step is known and whose result
// waits for the weak-head normal form of the step's call.
type pendingCall struct {
	reg  int
	step int
	call int
	// dependencies of the step's inputs
	deps uint64
}

// incrementalEvaluate reduces r in token t, reusing every step and result
// still valid in t. New steps and results are recorded in t only.
// Forwarding registers and call edges are followed iteratively: each
// changeable register on the way is kept as a pending call and gets its
// result once the end of the chain is reached.
func (m *Machine) incrementalEvaluate(r int, t int) (ret evalResult, err error) {
	var forwarded []*Reg
	var calls []pendingCall
	defer func() {
		for _, reg := range forwarded {
			reg.evaluating = false
		}
		for i := len(calls) - 1; i >= 0; i-- {
			m.endReduction(calls[i].reg)
		}
	}()

	for {
		reg := m.regs.access(r)
		switch reg.kind {

		case kindConstant:
			return m.finishCalls(calls, t, evalResult{
				reg:    -1,
				value:  r,
				result: noHandle,
			}), nil

		case kindIndexVar:
			if reg.evaluating {
				return evalResult{}, fmt.Errorf("register %d forwards to itself: %w", r, ErrInfiniteLoop)
			}
			reg.evaluating = true
			forwarded = append(forwarded, reg)
			r = reg.closure.Lookup(reg.closure.Expr.(exprs.Index))

		case kindChangeable:
			res, call, err := m.evaluateChangeable(r, t)
			if err != nil {
				return evalResult{}, err
			}
			if call == nil {
				return m.finishCalls(calls, t, res), nil
			}
			calls = append(calls, *call)
			r = call.call

		default:
			call, err := m.evaluateUnknown(r, t)
			if err != nil {
				return evalResult{}, err
			}
			if call != nil {
				calls = append(calls, *call)
				r = call.call
			}

		}
	}
}

// finishCalls gives every pending call its result, innermost first.
func (m *Machine) finishCalls(calls []pendingCall, t int, target evalResult) evalResult {
	for i := len(calls) - 1; i >= 0; i-- {
		c := calls[i]
		target = m.resultForStep(c.reg, t, c.step, c.deps, target)
	}
	return target
}

// beginReduction marks r as under reduction. A register met again while
// marked is a black hole.
func (m *Machine) beginReduction(r int) error {
	reg := m.regs.access(r)
	if reg.evaluating {
		return fmt.Errorf("register %d: %w", r, ErrInfiniteLoop)
	}
	reg.evaluating = true
	m.stack = append(m.stack, r)
	return nil
}

func (m *Machine) endReduction(r int) {
	m.regs.access(r).evaluating = false
	m.stack = m.stack[:len(m.stack)-1]
}

// evaluateUnknown decides the kind of r, reducing it if needed.
// A reduction that consulted no changeable register is the same in every
// token and is folded into the register itself.
// When the reduction depends on the token, the step is installed and r is
// returned as a pending call, still marked as under reduction.
func (m *Machine) evaluateUnknown(r int, t int) (call *pendingCall, err error) {
	reg := m.regs.access(r)
	switch e := reg.closure.Expr.(type) {

	case nil:
		return nil, fmt.Errorf("register %d: %w", r, ErrUndefined)

	case exprs.Lit, exprs.Lambda:
		reg.kind = kindConstant

	case exprs.Index:
		if int(e) < 0 || int(e) >= len(reg.closure.Env) {
			throw("register %d: index %d out of environment of size %d", r, e, len(reg.closure.Env))
		}
		reg.kind = kindIndexVar

	case exprs.Modifiable:
		reg.kind = kindChangeable

	case exprs.Let:
		m.expandLet(r, e)

	case exprs.Apply, exprs.Call:
		if err := m.beginReduction(r); err != nil {
			return nil, err
		}
		defer func() {
			if call == nil {
				m.endReduction(r)
			}
		}()
		red, out, err := m.reduce(r, t)
		if err != nil {
			return nil, err
		}
		if len(red.used) > 0 {
			reg.kind = kindChangeable
			return m.installReduction(r, t, red, out), nil
		}
		reg.closure = out
		switch out.Expr.(type) {
		case exprs.Lit, exprs.Lambda:
			reg.kind = kindConstant
		case exprs.Index:
			reg.kind = kindIndexVar
		}

	default:
		throw("register %d: expression %T was not preprocessed", r, e)
	}
	return nil, nil
}

// expandLet gives every binding of a let its own register and turns r into
// a forward to the body. The rewrite is token independent.
func (m *Machine) expandLet(r int, let exprs.Let) {
	reg := m.regs.access(r)
	binds := make([]int, len(let.Binds))
	for i := range binds {
		binds[i] = m.allocate(exprs.Closure{})
	}
	inner := reg.closure.Extend(binds...)
	for i, bind := range let.Binds {
		m.regs.access(binds[i]).closure = exprs.Closure{
			Expr: bind,
			Env:  inner,
		}
	}
	var target int
	if idx, ok := let.Body.(exprs.Index); ok {
		target = inner[idx]
	} else {
		target = m.allocate(exprs.Closure{
			Expr: let.Body,
			Env:  inner,
		})
	}
	reg.closure = exprs.Forwarding(target)
	reg.kind = kindIndexVar
}

// evaluateChangeable returns the verified result of r in t, or r as a pending
// call whose step is valid or freshly installed.
func (m *Machine) evaluateChangeable(r int, t int) (ret evalResult, call *pendingCall, err error) {
	if err := m.beginReduction(r); err != nil {
		return evalResult{}, nil, err
	}
	defer func() {
		if call == nil {
			m.endReduction(r)
		}
	}()

	// verified result
	if id, ok := m.getSharedResult(r, t); ok {
		res := m.results.access(id)
		if m.isVerified(res, t) {
			m.markVerified(res, t)
			return evalResult{
				reg:    r,
				value:  res.value,
				result: m.results.handle(id),
				deps:   res.deps,
			}, nil, nil
		}
	}

	// step with unchanged inputs
	if id, ok := m.getSharedStep(r, t); ok {
		valid, deps, err := m.validateStep(id, t)
		if err != nil {
			return evalResult{}, nil, err
		}
		if valid {
			return evalResult{}, &pendingCall{
				reg:  r,
				step: id,
				call: m.steps.access(id).call,
				deps: deps,
			}, nil
		}
	}

	if m.regs.access(r).isModifiable() {
		return evalResult{}, nil, fmt.Errorf("register %d: %w", r, ErrModifiableUnset)
	}

	red, out, err := m.reduce(r, t)
	if err != nil {
		return evalResult{}, nil, err
	}
	return evalResult{}, m.installReduction(r, t, red, out), nil
}

// validateStep re-evaluates the inputs of a step in order and reports whether
// every one still has the result the step saw. It stops at the first changed
// input, since a new reduction may not consult the later ones.
func (m *Machine) validateStep(id int, t int) (bool, uint64, error) {
	var deps uint64
	n := len(m.steps.access(id).usedInputs)
	for i := 0; i < n; i++ {
		u := m.steps.access(id).usedInputs[i]
		if !u.result.valid() {
			return false, 0, nil
		}
		res, err := m.incrementalEvaluate(u.reg, t)
		if err != nil {
			return false, 0, err
		}
		if res.result != m.steps.access(id).usedInputs[i].result {
			return false, 0, nil
		}
		deps |= res.deps
	}
	return true, deps, nil
}

// resultForStep returns a result for a valid step given the value of its call,
// reusing the visible result when the call target is unchanged.
func (m *Machine) resultForStep(r int, t int, stepID int, inputDeps uint64, target evalResult) evalResult {
	stepHandle := m.steps.handle(stepID)
	deps := inputDeps | target.deps
	if m.regs.access(r).isModifiable() {
		deps |= modifiableBit(r)
	}

	if id, ok := m.getSharedResult(r, t); ok {
		res := m.results.access(id)
		if res.sourceStep == stepHandle &&
			res.callResult == target.result &&
			res.value == target.value {
			m.markVerified(res, t)
			return evalResult{
				reg:    r,
				value:  res.value,
				result: m.results.handle(id),
				deps:   res.deps,
			}
		}
	}

	id := m.newResult(r, stepHandle, target.value, deps)
	if target.result.valid() {
		m.setCall(id, target.result)
	}
	m.addSharedResult(r, t, id)
	res := m.results.access(id)
	m.markVerified(res, t)
	return evalResult{
		reg:    r,
		value:  res.value,
		result: m.results.handle(id),
		deps:   deps,
	}
}

// installReduction records the step of a reduction in t and returns r as a
// pending call on the step's call target.
func (m *Machine) installReduction(r int, t int, red *reduction, out exprs.Closure) *pendingCall {
	var target int
	if idx, ok := out.Expr.(exprs.Index); ok {
		target = out.Lookup(idx)
	} else {
		target = red.Allocate(out)
	}

	id := m.newStep(r)
	step := m.steps.access(id)
	step.call = target
	step.createdRegs = append(step.createdRegs, red.created...)
	for _, c := range red.created {
		m.regs.access(c).createdBy = id
	}
	var deps uint64
	for _, u := range red.used {
		m.setUsedInput(id, u.reg, u.result)
		deps |= u.deps
	}
	m.addSharedStep(r, t, id)

	return &pendingCall{
		reg:  r,
		step: id,
		call: target,
		deps: deps,
	}
}
