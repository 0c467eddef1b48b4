package regheap

import (
	"fmt"

	"github.com/reusee/lazyphy/exprs"
	"github.com/reusee/lazyphy/logprob"
)

func (m *Machine) newContextID(t int) int {
	var c int
	if n := len(m.unusedContexts); n > 0 {
		c = m.unusedContexts[n-1]
		m.unusedContexts = m.unusedContexts[:n-1]
	} else {
		c = len(m.contexts)
		m.contexts = append(m.contexts, noToken)
	}
	m.setTokenForContext(c, t)
	return c
}

func (m *Machine) checkContext(c int) error {
	if c < 0 || c >= len(m.contexts) || m.contexts[c] == noToken {
		return fmt.Errorf("context %d: %w", c, ErrUnknownContext)
	}
	return nil
}

func (m *Machine) tokenForContext(c int) int {
	t := m.contexts[c]
	if t == noToken {
		throw("context %d is not bound", c)
	}
	return t
}

func (m *Machine) setTokenForContext(c int, t int) {
	m.contexts[c] = t
	m.tokens[t].nContextRefs++
}

// unsetTokenForContext drops the reference c holds on t.
// The context slot is left pointing wherever the caller put it.
func (m *Machine) unsetTokenForContext(c int, t int) {
	tk := m.tokens[t]
	if tk.nContextRefs <= 0 {
		throw("token %d has no context references to drop for context %d", t, c)
	}
	tk.nContextRefs--
	if tk.nContextRefs == 0 {
		m.releaseUnreferencedTips(t)
	}
}

// CopyContext returns a new context sharing the token of c.
func (m *Machine) CopyContext(c int) (int, error) {
	if err := m.checkContext(c); err != nil {
		return -1, err
	}
	ret := m.newContextID(m.tokenForContext(c))
	m.afterOperation()
	return ret, nil
}

// ReleaseContext drops c. Tokens no longer referenced are released or merged.
func (m *Machine) ReleaseContext(c int) error {
	if err := m.checkContext(c); err != nil {
		return err
	}
	t := m.tokenForContext(c)
	m.contexts[c] = noToken
	m.unusedContexts = append(m.unusedContexts, c)
	m.unsetTokenForContext(c, t)
	m.afterOperation()
	return nil
}

// AssignContext binds dst to the token of src.
// For MCMC this is accepting the state of src.
func (m *Machine) AssignContext(dst, src int) error {
	if err := m.checkContext(dst); err != nil {
		return err
	}
	if err := m.checkContext(src); err != nil {
		return err
	}
	old := m.tokenForContext(dst)
	t := m.tokenForContext(src)
	if old == t {
		return nil
	}
	m.setTokenForContext(dst, t)
	m.unsetTokenForContext(dst, old)
	m.afterOperation()
	return nil
}

// SetRegValueInContext installs c as the value of the modifiable r in context ctx.
// A token shared with other contexts or having children is never mutated in place.
func (m *Machine) SetRegValueInContext(r int, c exprs.Closure, ctx int) error {
	if err := m.checkContext(ctx); err != nil {
		return err
	}
	r, err := m.findModifiable(r)
	if err != nil {
		return err
	}

	t := m.tokenForContext(ctx)
	tk := m.tokens[t]
	if tk.nContextRefs > 1 || len(tk.children) > 0 {
		t = m.switchToChildToken(ctx)
	}

	value := m.allocate(c)
	step := m.newStep(r)
	s := m.steps.access(step)
	s.call = value
	s.createdRegs = append(s.createdRegs, value)
	m.regs.access(value).createdBy = step
	m.addSharedStep(r, t, step)
	m.advance(t, modifiableBit(r))

	m.afterOperation()
	return nil
}

// findModifiable follows forwarding registers to the modifiable they name.
func (m *Machine) findModifiable(r int) (int, error) {
	if err := m.checkReg(r); err != nil {
		return -1, err
	}
	for range m.regs.size + 1 {
		reg := m.regs.access(r)
		if reg.isModifiable() {
			return r, nil
		}
		idx, ok := reg.closure.Expr.(exprs.Index)
		if !ok {
			break
		}
		r = reg.closure.Lookup(idx)
	}
	return -1, fmt.Errorf("register %d: %w", r, ErrNotModifiable)
}

// Context is a reference-counted handle onto a token.
type Context struct {
	machine *Machine
	id      int
}

// NewContext returns a context bound to the root token.
func (m *Machine) NewContext() *Context {
	return &Context{
		machine: m,
		id:      m.newContextID(m.root),
	}
}

func (m *Machine) ContextForID(id int) (*Context, error) {
	if err := m.checkContext(id); err != nil {
		return nil, err
	}
	return &Context{
		machine: m,
		id:      id,
	}, nil
}

func (c *Context) ID() int {
	return c.id
}

func (c *Context) Machine() *Machine {
	return c.machine
}

// Token returns the token c is bound to.
func (c *Context) Token() int {
	return c.machine.tokenForContext(c.id)
}

func (c *Context) Copy() (*Context, error) {
	id, err := c.machine.CopyContext(c.id)
	if err != nil {
		return nil, err
	}
	return &Context{
		machine: c.machine,
		id:      id,
	}, nil
}

func (c *Context) Release() error {
	return c.machine.ReleaseContext(c.id)
}

// Assign makes c observe the state of other.
func (c *Context) Assign(other *Context) error {
	return c.machine.AssignContext(c.id, other.id)
}

func (c *Context) Evaluate(r int) (any, error) {
	return c.machine.LazyEvaluate(r, c.id)
}

func (c *Context) EvaluateHead(i int) (any, error) {
	return c.machine.EvaluateHead(i, c.id)
}

func (c *Context) EvaluateExpression(e exprs.Expr) (any, error) {
	return c.machine.EvaluateExpression(e, c.id)
}

func (c *Context) RecursiveEvaluate(r int) (any, error) {
	return c.machine.RecursiveEvaluate(r, c.id)
}

// SetModifiableValue sets the modifiable r. v may be a plain value or an exprs.Closure.
func (c *Context) SetModifiableValue(r int, v any) error {
	closure, ok := v.(exprs.Closure)
	if !ok {
		closure = exprs.Value(v)
	}
	return c.machine.SetRegValueInContext(r, closure, c.id)
}

func (c *Context) ModifiableValue(r int) (any, error) {
	r, err := c.machine.findModifiable(r)
	if err != nil {
		return nil, err
	}
	return c.machine.LazyEvaluate(r, c.id)
}

func (c *Context) ParameterValue(name string) (any, error) {
	r, err := c.machine.FindParameter(name)
	if err != nil {
		return nil, err
	}
	return c.machine.LazyEvaluate(r, c.id)
}

func (c *Context) SetParameterValue(name string, v any) error {
	r, err := c.machine.FindParameter(name)
	if err != nil {
		return err
	}
	return c.SetModifiableValue(r, v)
}

func (c *Context) Probability() (logprob.LogDouble, error) {
	return c.machine.ProbabilityForContext(c.id)
}
