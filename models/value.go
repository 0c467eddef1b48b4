package models

import (
	"fmt"

	"github.com/reusee/lazyphy/exprs"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Expr is an expression under construction in a model script.
type Expr struct {
	expr exprs.Expr
}

var (
	_ starlark.Value     = new(Expr)
	_ starlark.HasBinary = new(Expr)
	_ starlark.HasUnary  = new(Expr)
)

func (e *Expr) String() string {
	return exprs.Format(e.expr)
}

func (e *Expr) Type() string {
	return "expr"
}

func (e *Expr) Freeze() {}

func (e *Expr) Truth() starlark.Bool {
	return starlark.True
}

func (e *Expr) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: expr")
}

var binaryOps = map[syntax.Token]*exprs.Operation{
	syntax.PLUS:  exprs.Add,
	syntax.MINUS: exprs.Sub,
	syntax.STAR:  exprs.Mul,
	syntax.SLASH: exprs.Div,
}

func (e *Expr) Binary(op syntax.Token, y starlark.Value, side starlark.Side) (starlark.Value, error) {
	o, ok := binaryOps[op]
	if !ok {
		return nil, nil
	}
	other, err := toExpr(y)
	if err != nil {
		return nil, err
	}
	if side == starlark.Left {
		return &Expr{exprs.Ap(o, e.expr, other)}, nil
	}
	return &Expr{exprs.Ap(o, other, e.expr)}, nil
}

func (e *Expr) Unary(op syntax.Token) (starlark.Value, error) {
	switch op {
	case syntax.MINUS:
		return &Expr{exprs.Ap(exprs.Neg, e.expr)}, nil
	case syntax.PLUS:
		return e, nil
	}
	return nil, nil
}

// toExpr converts a script value to an expression. Numbers, booleans and
// strings become literals.
func toExpr(v starlark.Value) (exprs.Expr, error) {
	if e, ok := v.(*Expr); ok {
		return e.expr, nil
	}
	lit, err := toGo(v)
	if err != nil {
		return nil, err
	}
	return exprs.L(lit), nil
}

func toExprs(vs []starlark.Value) ([]exprs.Expr, error) {
	ret := make([]exprs.Expr, 0, len(vs))
	for _, v := range vs {
		e, err := toExpr(v)
		if err != nil {
			return nil, err
		}
		ret = append(ret, e)
	}
	return ret, nil
}

func toGo(v starlark.Value) (any, error) {
	switch v := v.(type) {
	case starlark.Int:
		i, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %v out of range: %w", v, exprs.ErrDomain)
		}
		return int(i), nil
	case starlark.Float:
		return float64(v), nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.String:
		return string(v), nil
	}
	return nil, fmt.Errorf("cannot use %s as a value: %w", v.Type(), exprs.ErrType)
}

func toStrings(v starlark.Value) ([]string, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("want a list of names, got %s: %w", v.Type(), exprs.ErrType)
	}
	var ret []string
	iter := iterable.Iterate()
	defer iter.Done()
	var elem starlark.Value
	for iter.Next(&elem) {
		s, ok := starlark.AsString(elem)
		if !ok {
			return nil, fmt.Errorf("want a name, got %s: %w", elem.Type(), exprs.ErrType)
		}
		ret = append(ret, s)
	}
	return ret, nil
}

func toExprList(v starlark.Value) ([]exprs.Expr, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("want a list of expressions, got %s: %w", v.Type(), exprs.ErrType)
	}
	var ret []exprs.Expr
	iter := iterable.Iterate()
	defer iter.Done()
	var elem starlark.Value
	for iter.Next(&elem) {
		e, err := toExpr(elem)
		if err != nil {
			return nil, err
		}
		ret = append(ret, e)
	}
	return ret, nil
}
