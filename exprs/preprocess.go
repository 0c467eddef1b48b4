package exprs

import (
	"fmt"
	"slices"
)

// Resolver maps a machine-level name (identifier or parameter) to its register.
type Resolver func(name string) (int, bool)

// Preprocess turns a surface expression into a closure ready for the arena.
//
// Named references and register references become slots of the closure
// environment, local names become positional indices, and every argument of
// Apply and Call that is not a variable is hoisted into a Let binding.
// It does not depend on token state.
func Preprocess(e Expr, resolve Resolver) (Closure, error) {
	p := &preprocessor{
		resolve: resolve,
		slots:   make(map[int]Index),
	}
	if err := p.collect(e); err != nil {
		return Closure{}, err
	}
	// free slots are unnamed, so no Local can capture them
	scope := make([]string, len(p.env))
	body, err := p.translate(e, scope)
	if err != nil {
		return Closure{}, err
	}
	return Closure{
		Expr: body,
		Env:  p.env,
	}, nil
}

type preprocessor struct {
	resolve Resolver
	env     []int
	slots   map[int]Index
}

func (p *preprocessor) lookupName(name string) (int, error) {
	if p.resolve == nil {
		return 0, fmt.Errorf("%s: %w", name, ErrUnknownName)
	}
	r, ok := p.resolve(name)
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, ErrUnknownName)
	}
	return r, nil
}

func (p *preprocessor) addSlot(r int) {
	if _, ok := p.slots[r]; ok {
		return
	}
	p.slots[r] = Index(len(p.env))
	p.env = append(p.env, r)
}

func (p *preprocessor) collect(e Expr) error {
	switch e := e.(type) {
	case Var:
		r, err := p.lookupName(string(e))
		if err != nil {
			return err
		}
		p.addSlot(r)
	case RegRef:
		p.addSlot(int(e))
	case Apply:
		for _, arg := range e.Args {
			if err := p.collect(arg); err != nil {
				return err
			}
		}
	case Call:
		if err := p.collect(e.Fn); err != nil {
			return err
		}
		for _, arg := range e.Args {
			if err := p.collect(arg); err != nil {
				return err
			}
		}
	case Lambda:
		return p.collect(e.Body)
	case Let:
		for _, bind := range e.Binds {
			if err := p.collect(bind); err != nil {
				return err
			}
		}
		return p.collect(e.Body)
	case nil:
		return fmt.Errorf("nil expression")
	}
	return nil
}

func isVariable(e Expr) bool {
	switch e.(type) {
	case Local, Var, RegRef:
		return true
	}
	return false
}

func (p *preprocessor) translate(e Expr, scope []string) (Expr, error) {
	switch e := e.(type) {

	case Lit, Modifiable:
		return e, nil

	case Local:
		if e != "" {
			for i := len(scope) - 1; i >= 0; i-- {
				if scope[i] == string(e) {
					return Index(i), nil
				}
			}
		}
		return nil, fmt.Errorf("local %q: %w", string(e), ErrUnknownName)

	case Var:
		r, err := p.lookupName(string(e))
		if err != nil {
			return nil, err
		}
		return p.slots[r], nil

	case RegRef:
		return p.slots[int(e)], nil

	case Index:
		return nil, ErrUnexpectedIndex

	case Lambda:
		body, err := p.translate(e.Body, extendScope(scope, e.Params...))
		if err != nil {
			return nil, err
		}
		return Lambda{
			Params: e.Params,
			Body:   body,
		}, nil

	case Let:
		if len(e.Names) != len(e.Binds) {
			return nil, fmt.Errorf("let: %d names for %d bindings: %w", len(e.Names), len(e.Binds), ErrArity)
		}
		if len(e.Binds) == 0 {
			return p.translate(e.Body, scope)
		}
		inner := extendScope(scope, e.Names...)
		binds := make([]Expr, 0, len(e.Binds))
		for _, bind := range e.Binds {
			b, err := p.translate(bind, inner)
			if err != nil {
				return nil, err
			}
			binds = append(binds, b)
		}
		body, err := p.translate(e.Body, inner)
		if err != nil {
			return nil, err
		}
		return Let{
			Names: e.Names,
			Binds: binds,
			Body:  body,
		}, nil

	case Apply:
		if err := checkArity(e.Op, len(e.Args)); err != nil {
			return nil, err
		}
		indices, hoisted, err := p.translateArgs(e.Args, scope)
		if err != nil {
			return nil, err
		}
		return wrapHoisted(hoisted, Apply{
			Op:   e.Op,
			Args: indices,
		}), nil

	case Call:
		args := make([]Expr, 0, len(e.Args)+1)
		args = append(args, e.Fn)
		args = append(args, e.Args...)
		indices, hoisted, err := p.translateArgs(args, scope)
		if err != nil {
			return nil, err
		}
		return wrapHoisted(hoisted, Call{
			Fn:   indices[0],
			Args: indices[1:],
		}), nil

	}

	return nil, fmt.Errorf("unknown expression %T", e)
}

func (p *preprocessor) translateArgs(args []Expr, scope []string) (indices []Expr, hoisted []Expr, err error) {
	n := 0
	for _, arg := range args {
		if !isVariable(arg) {
			n++
		}
	}
	inner := extendScope(scope, make([]string, n)...)
	next := len(scope)
	for _, arg := range args {
		if isVariable(arg) {
			idx, err := p.translate(arg, scope)
			if err != nil {
				return nil, nil, err
			}
			indices = append(indices, idx)
			continue
		}
		b, err := p.translate(arg, inner)
		if err != nil {
			return nil, nil, err
		}
		hoisted = append(hoisted, b)
		indices = append(indices, Index(next))
		next++
	}
	return
}

func wrapHoisted(hoisted []Expr, body Expr) Expr {
	if len(hoisted) == 0 {
		return body
	}
	return Let{
		Names: make([]string, len(hoisted)),
		Binds: hoisted,
		Body:  body,
	}
}

func extendScope(scope []string, names ...string) []string {
	ret := slices.Clone(scope)
	return append(ret, names...)
}
