package models

import (
	"errors"
	"fmt"

	"github.com/reusee/lazyphy/exprs"
	"github.com/reusee/lazyphy/logs"
	"github.com/reusee/lazyphy/regheap"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Load runs a model script and returns the model it built.
// src is as for starlark.ExecFile: nil reads filename.
type Load func(filename string, src any) (*Model, error)

func (Module) Load(
	machine *regheap.Machine,
	logger logs.Logger,
) Load {
	return func(filename string, src any) (*Model, error) {
		b := &builder{
			machine: machine,
			model: &Model{
				Machine: machine,
				Context: machine.NewContext(),
			},
		}
		thread := &starlark.Thread{
			Name: "model",
			Print: func(_ *starlark.Thread, msg string) {
				logger.Info("model print", "file", filename, "msg", msg)
			},
		}
		if _, err := starlark.ExecFileOptions(
			&syntax.FileOptions{
				Set:             true,
				While:           true,
				TopLevelControl: true,
				GlobalReassign:  true,
				Recursion:       true,
			},
			thread,
			filename,
			src,
			b.globals(),
		); err != nil {
			err = fmt.Errorf("load model %s: %w", filename, err)
			return nil, errors.Join(err, b.model.Context.Release())
		}
		logger.Info("model loaded",
			"file", filename,
			"randoms", len(b.model.Randoms),
			"factors", len(machine.Factors()),
			"expressions", len(b.model.Expressions),
		)
		return b.model, nil
	}
}

type builder struct {
	machine *regheap.Machine
	model   *Model
}

type builtinFunc = func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)

func (b *builder) globals() starlark.StringDict {
	ret := starlark.StringDict{}
	for name, op := range exprs.Builtins {
		ret[name] = operation(name, op)
	}
	for name, o := range map[string]*exprs.Operation{
		"ifelse":      exprs.If,
		"normal":      exprs.NormalDensity,
		"exponential": exprs.ExponentialDensity,
		"uniform":     exprs.UniformDensity,
	} {
		ret[name] = operation(name, o)
	}
	for name, fn := range map[string]builtinFunc{
		"lit":        b.lit,
		"var":        b.variable,
		"local":      b.local,
		"lam":        b.lambda,
		"call":       b.call,
		"let":        b.let,
		"modifiable": b.modifiable,
		"parameter":  b.parameter,
		"declare":    b.declare,
		"define":     b.define,
		"identifier": b.identifier,
		"factor":     b.factor,
		"expression": b.expression,
	} {
		ret[name] = starlark.NewBuiltin(name, fn)
	}
	return ret
}

func operation(name string, op *exprs.Operation) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", name)
		}
		if op.Arity >= 0 && len(args) != op.Arity {
			return nil, fmt.Errorf("%s: want %d arguments, got %d: %w", name, op.Arity, len(args), exprs.ErrArity)
		}
		es, err := toExprs(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return &Expr{exprs.Ap(op, es...)}, nil
	})
}

func (b *builder) lit(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	lit, err := toGo(v)
	if err != nil {
		return nil, err
	}
	return &Expr{exprs.L(lit)}, nil
}

func (b *builder) variable(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	return &Expr{exprs.Var(name)}, nil
}

func (b *builder) local(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	return &Expr{exprs.Local(name)}, nil
}

func (b *builder) lambda(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var params, body starlark.Value
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "params", &params, "body", &body); err != nil {
		return nil, err
	}
	names, err := toStrings(params)
	if err != nil {
		return nil, err
	}
	e, err := toExpr(body)
	if err != nil {
		return nil, err
	}
	return &Expr{exprs.Fn(names, e)}, nil
}

func (b *builder) call(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 || len(args) == 0 {
		return nil, fmt.Errorf("%s: want a function and positional arguments", fn.Name())
	}
	es, err := toExprs(args)
	if err != nil {
		return nil, err
	}
	return &Expr{exprs.Call{
		Fn:   es[0],
		Args: es[1:],
	}}, nil
}

func (b *builder) let(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var names, binds, body starlark.Value
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "names", &names, "binds", &binds, "body", &body); err != nil {
		return nil, err
	}
	ns, err := toStrings(names)
	if err != nil {
		return nil, err
	}
	bs, err := toExprList(binds)
	if err != nil {
		return nil, err
	}
	e, err := toExpr(body)
	if err != nil {
		return nil, err
	}
	return &Expr{exprs.Let{
		Names: ns,
		Binds: bs,
		Body:  e,
	}}, nil
}

// modifiable(name, init, random=True, lower=None, upper=None, rate=1.0)
// declares a modifiable parameter and sets its initial value.
// A random modifiable is proposed within [lower, upper].
func (b *builder) modifiable(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var init starlark.Value
	random := true
	var lower, upper starlark.Value = starlark.None, starlark.None
	var rate starlark.Value = starlark.Float(1)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs,
		"name", &name,
		"init", &init,
		"random?", &random,
		"lower?", &lower,
		"upper?", &upper,
		"rate?", &rate,
	); err != nil {
		return nil, err
	}
	rng := regheap.Unbounded()
	if lower != starlark.None {
		f, ok := starlark.AsFloat(lower)
		if !ok {
			return nil, fmt.Errorf("%s: lower: want a number, got %s", fn.Name(), lower.Type())
		}
		rng.Lower = f
	}
	if upper != starlark.None {
		f, ok := starlark.AsFloat(upper)
		if !ok {
			return nil, fmt.Errorf("%s: upper: want a number, got %s", fn.Name(), upper.Type())
		}
		rng.Upper = f
	}
	weight, ok := starlark.AsFloat(rate)
	if !ok {
		return nil, fmt.Errorf("%s: rate: want a number, got %s", fn.Name(), rate.Type())
	}
	r, err := b.machine.AddModifiableParameter(name)
	if err != nil {
		return nil, err
	}
	var value any
	if e, ok := init.(*Expr); ok {
		closure, err := b.machine.Preprocess(e.expr)
		if err != nil {
			return nil, err
		}
		value = closure
	} else {
		value, err = toGo(init)
		if err != nil {
			return nil, err
		}
	}
	if err := b.model.Context.SetModifiableValue(r, value); err != nil {
		return nil, err
	}
	if random {
		if err := b.machine.AddRandomModifiable(r, rng, weight); err != nil {
			return nil, fmt.Errorf("%s %s: %w", fn.Name(), name, err)
		}
		b.model.Randoms = append(b.model.Randoms, Random{
			Name: name,
			Reg:  r,
		})
	}
	return &Expr{exprs.Var(name)}, nil
}

func (b *builder) parameter(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var value starlark.Value
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "expr", &value); err != nil {
		return nil, err
	}
	e, err := toExpr(value)
	if err != nil {
		return nil, err
	}
	if _, err := b.machine.AddParameter(name, e); err != nil {
		return nil, err
	}
	return &Expr{exprs.Var(name)}, nil
}

// declare makes a name visible before its definition, for recursive identifiers.
func (b *builder) declare(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	if _, err := b.machine.AddIdentifier(name); err != nil {
		return nil, err
	}
	return &Expr{exprs.Var(name)}, nil
}

func (b *builder) define(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var value starlark.Value
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "expr", &value); err != nil {
		return nil, err
	}
	e, err := toExpr(value)
	if err != nil {
		return nil, err
	}
	if err := b.machine.SetIdentifier(name, e); err != nil {
		return nil, err
	}
	return &Expr{exprs.Var(name)}, nil
}

func (b *builder) identifier(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var value starlark.Value
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "expr", &value); err != nil {
		return nil, err
	}
	if _, err := b.machine.AddIdentifier(name); err != nil {
		return nil, err
	}
	return b.define(thread, fn, starlark.Tuple{starlark.String(name), value}, nil)
}

func (b *builder) factor(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &value); err != nil {
		return nil, err
	}
	e, err := toExpr(value)
	if err != nil {
		return nil, err
	}
	if _, err := b.machine.RegisterProbability(e); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

// expression adds a compute head and returns its index.
func (b *builder) expression(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &value); err != nil {
		return nil, err
	}
	e, err := toExpr(value)
	if err != nil {
		return nil, err
	}
	i, err := b.machine.AddComputeExpression(e)
	if err != nil {
		return nil, err
	}
	b.model.Expressions = append(b.model.Expressions, i)
	return starlark.MakeInt(i), nil
}
