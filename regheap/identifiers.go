package regheap

import (
	"fmt"
	"math"
	"slices"

	"github.com/reusee/lazyphy/exprs"
)

// resolve translates a machine-level name: identifiers first, then parameters.
func (m *Machine) resolve(name string) (int, bool) {
	if r, ok := m.identifiers[name]; ok {
		return r, true
	}
	return m.MaybeFindParameter(name)
}

// Preprocess resolves the names of e against the machine.
func (m *Machine) Preprocess(e exprs.Expr) (exprs.Closure, error) {
	return exprs.Preprocess(e, m.resolve)
}

// AllocateExpression preprocesses e into a fresh register.
func (m *Machine) AllocateExpression(e exprs.Expr) (int, error) {
	c, err := m.Preprocess(e)
	if err != nil {
		return -1, err
	}
	return m.allocate(c), nil
}

// AddIdentifier declares name. The register stays undefined until SetIdentifier,
// so definitions may refer to each other.
func (m *Machine) AddIdentifier(name string) (int, error) {
	if _, ok := m.identifiers[name]; ok {
		return -1, fmt.Errorf("identifier %s: %w", name, ErrDuplicatedName)
	}
	r := m.allocate(exprs.Closure{})
	m.identifiers[name] = r
	return r, nil
}

func (m *Machine) SetIdentifier(name string, e exprs.Expr) error {
	r, ok := m.identifiers[name]
	if !ok {
		return fmt.Errorf("identifier %s: %w", name, exprs.ErrUnknownName)
	}
	reg := m.regs.access(r)
	if !reg.closure.IsZero() {
		return fmt.Errorf("identifier %s is already defined: %w", name, ErrDuplicatedName)
	}
	c, err := m.Preprocess(e)
	if err != nil {
		return err
	}
	reg.closure = c
	return nil
}

func (m *Machine) RegForID(name string) (int, error) {
	r, ok := m.identifiers[name]
	if !ok {
		return -1, fmt.Errorf("identifier %s: %w", name, exprs.ErrUnknownName)
	}
	return r, nil
}

func (m *Machine) AddParameter(name string, e exprs.Expr) (int, error) {
	if _, ok := m.MaybeFindParameter(name); ok {
		return -1, fmt.Errorf("parameter %s: %w", name, ErrDuplicatedName)
	}
	r, err := m.AllocateExpression(e)
	if err != nil {
		return -1, err
	}
	m.parameters = append(m.parameters, namedReg{
		name: name,
		reg:  r,
	})
	return r, nil
}

// AddModifiableParameter adds a parameter that is a modifiable.
func (m *Machine) AddModifiableParameter(name string) (int, error) {
	return m.AddParameter(name, exprs.Modifiable{})
}

func (m *Machine) MaybeFindParameter(name string) (int, bool) {
	for _, p := range m.parameters {
		if p.name == name {
			return p.reg, true
		}
	}
	return -1, false
}

func (m *Machine) FindParameter(name string) (int, error) {
	r, ok := m.MaybeFindParameter(name)
	if !ok {
		return -1, fmt.Errorf("parameter %s: %w", name, exprs.ErrUnknownName)
	}
	return r, nil
}

// AddRandomModifiable records r as a modifiable that proposals may change,
// within rng and proposed with weight rate. Adding r again replaces both.
func (m *Machine) AddRandomModifiable(r int, rng Range, rate float64) error {
	r, err := m.findModifiable(r)
	if err != nil {
		return err
	}
	if err := rng.validate(); err != nil {
		return fmt.Errorf("random modifiable %d: %w", r, err)
	}
	if !(rate > 0) || math.IsInf(rate, 1) {
		return fmt.Errorf("random modifiable %d: rate %v: %w", r, rate, ErrBadRange)
	}
	random := RandomModifiable{
		Reg:   r,
		Range: rng,
		Rate:  rate,
	}
	if i := slices.IndexFunc(m.randoms, func(x RandomModifiable) bool {
		return x.Reg == r
	}); i >= 0 {
		m.randoms[i] = random
		return nil
	}
	m.randoms = append(m.randoms, random)
	return nil
}

// RandomModifiables returns the random modifiables in the order they were added.
func (m *Machine) RandomModifiables() []RandomModifiable {
	return slices.Clone(m.randoms)
}

// AddComputeExpression adds e as a head and returns the head index.
func (m *Machine) AddComputeExpression(e exprs.Expr) (int, error) {
	r, err := m.AllocateExpression(e)
	if err != nil {
		return -1, err
	}
	m.regs.access(r).nHeads++
	m.heads = append(m.heads, r)
	return len(m.heads) - 1, nil
}

// SetComputeExpression replaces head i.
func (m *Machine) SetComputeExpression(i int, e exprs.Expr) error {
	if i < 0 || i >= len(m.heads) {
		return fmt.Errorf("head %d out of range", i)
	}
	r, err := m.AllocateExpression(e)
	if err != nil {
		return err
	}
	m.regs.access(m.heads[i]).nHeads--
	m.regs.access(r).nHeads++
	m.heads[i] = r
	return nil
}

func (m *Machine) Heads() []int {
	return slices.Clone(m.heads)
}

func (m *Machine) pushTempHead(r int) {
	m.regs.access(r).nHeads++
	m.tempHeads = append(m.tempHeads, r)
}

func (m *Machine) popTempHead() {
	n := len(m.tempHeads)
	m.regs.access(m.tempHeads[n-1]).nHeads--
	m.tempHeads = m.tempHeads[:n-1]
}

func (m *Machine) EvaluateHead(i int, ctx int) (any, error) {
	if i < 0 || i >= len(m.heads) {
		return nil, fmt.Errorf("head %d out of range", i)
	}
	return m.LazyEvaluate(m.heads[i], ctx)
}

// EvaluateExpression evaluates e in ctx through a temporary head.
func (m *Machine) EvaluateExpression(e exprs.Expr, ctx int) (any, error) {
	if err := m.checkContext(ctx); err != nil {
		return nil, err
	}
	m.enter()
	defer m.leave()
	r, err := m.AllocateExpression(e)
	if err != nil {
		return nil, err
	}
	m.pushTempHead(r)
	defer m.popTempHead()
	res, err := m.incrementalEvaluate(r, m.tokenForContext(ctx))
	if err != nil {
		return nil, err
	}
	return m.valueOf(res.value), nil
}

// RecursiveEvaluate evaluates r and, when the value is an exprs.List, every element.
func (m *Machine) RecursiveEvaluate(r int, ctx int) (any, error) {
	if err := m.checkContext(ctx); err != nil {
		return nil, err
	}
	if err := m.checkReg(r); err != nil {
		return nil, err
	}
	m.pushTempHead(r)
	defer m.popTempHead()
	m.enter()
	defer m.leave()
	t := m.tokenForContext(ctx)

	type frame struct {
		list exprs.List
		out  []any
		next int
	}
	res, err := m.incrementalEvaluate(r, t)
	if err != nil {
		return nil, err
	}
	v := m.valueOf(res.value)
	list, ok := v.(exprs.List)
	if !ok {
		return v, nil
	}
	stack := []*frame{{
		list: list,
	}}
	for {
		top := stack[len(stack)-1]
		if top.next == len(top.list) {
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return top.out, nil
			}
			parent := stack[len(stack)-1]
			parent.out = append(parent.out, top.out)
			continue
		}
		elem := top.list[top.next]
		top.next++
		res, err := m.incrementalEvaluate(elem, t)
		if err != nil {
			return nil, err
		}
		v := m.valueOf(res.value)
		if sub, ok := v.(exprs.List); ok {
			stack = append(stack, &frame{
				list: sub,
			})
			continue
		}
		top.out = append(top.out, v)
	}
}
