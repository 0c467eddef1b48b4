package exprs

import (
	"fmt"
	"math"
	"reflect"

	"github.com/reusee/lazyphy/logprob"
)

var (
	Add = arith("add",
		func(a, b int) (any, error) { return a + b, nil },
		func(a, b float64) (any, error) { return a + b, nil },
	)

	Sub = arith("sub",
		func(a, b int) (any, error) { return a - b, nil },
		func(a, b float64) (any, error) { return a - b, nil },
	)

	Mul = NewOperation("mul", 2, func(args OperationArgs) (Closure, error) {
		a, b, err := evaluatePair(args)
		if err != nil {
			return Closure{}, err
		}
		if la, ok := a.(logprob.LogDouble); ok {
			lb, ok := b.(logprob.LogDouble)
			if !ok {
				return Closure{}, fmt.Errorf("mul: %T and %T: %w", a, b, ErrType)
			}
			return Value(la.Mul(lb)), nil
		}
		return numeric("mul", a, b,
			func(a, b int) (any, error) { return a * b, nil },
			func(a, b float64) (any, error) { return a * b, nil },
		)
	})

	Div = NewOperation("div", 2, func(args OperationArgs) (Closure, error) {
		a, b, err := evaluatePair(args)
		if err != nil {
			return Closure{}, err
		}
		if la, ok := a.(logprob.LogDouble); ok {
			lb, ok := b.(logprob.LogDouble)
			if !ok {
				return Closure{}, fmt.Errorf("div: %T and %T: %w", a, b, ErrType)
			}
			if lb.IsZero() {
				return Closure{}, fmt.Errorf("div: %w", ErrDivisionByZero)
			}
			return Value(la.Div(lb)), nil
		}
		return numeric("div", a, b,
			func(a, b int) (any, error) {
				if b == 0 {
					return nil, fmt.Errorf("div: %w", ErrDivisionByZero)
				}
				return a / b, nil
			},
			func(a, b float64) (any, error) {
				if b == 0 {
					return nil, fmt.Errorf("div: %w", ErrDivisionByZero)
				}
				return a / b, nil
			},
		)
	})

	Neg = NewOperation("neg", 1, func(args OperationArgs) (Closure, error) {
		v, err := args.Evaluate(0)
		if err != nil {
			return Closure{}, err
		}
		switch v := v.(type) {
		case int:
			return Value(-v), nil
		case float64:
			return Value(-v), nil
		}
		return Closure{}, fmt.Errorf("neg: %T: %w", v, ErrType)
	})

	Eq = NewOperation("eq", 2, func(args OperationArgs) (Closure, error) {
		a, b, err := evaluatePair(args)
		if err != nil {
			return Closure{}, err
		}
		if fa, ok := toFloat(a); ok {
			if fb, ok := toFloat(b); ok {
				return Value(fa == fb), nil
			}
		}
		if !isComparable(a) || !isComparable(b) {
			return Closure{}, fmt.Errorf("eq: %T and %T: %w", a, b, ErrType)
		}
		return Value(a == b), nil
	})

	Lt = compare("lt", func(a, b float64) bool { return a < b })

	Le = compare("le", func(a, b float64) bool { return a <= b })

	// If evaluates only the condition, then continues with the chosen branch.
	If = NewOperation("if", 3, func(args OperationArgs) (Closure, error) {
		v, err := args.Evaluate(0)
		if err != nil {
			return Closure{}, err
		}
		cond, ok := v.(bool)
		if !ok {
			return Closure{}, fmt.Errorf("if: condition is %T: %w", v, ErrType)
		}
		if cond {
			return Forward(args, 1), nil
		}
		return Forward(args, 2), nil
	})

	Exp = unaryFloat("exp", func(x float64) (any, error) {
		return math.Exp(x), nil
	})

	Log = unaryFloat("log", func(x float64) (any, error) {
		if x < 0 {
			return nil, fmt.Errorf("log of %v: %w", x, ErrDomain)
		}
		return math.Log(x), nil
	})

	Sqrt = unaryFloat("sqrt", func(x float64) (any, error) {
		if x < 0 {
			return nil, fmt.Errorf("sqrt of %v: %w", x, ErrDomain)
		}
		return math.Sqrt(x), nil
	})

	Pow = NewOperation("pow", 2, func(args OperationArgs) (Closure, error) {
		xs, err := evaluateFloats("pow", args)
		if err != nil {
			return Closure{}, err
		}
		return Value(math.Pow(xs[0], xs[1])), nil
	})

	// ToLogDouble converts a non-negative number to a log double.
	ToLogDouble = unaryFloat("log_double", func(x float64) (any, error) {
		if x < 0 {
			return nil, fmt.Errorf("log_double of %v: %w", x, ErrDomain)
		}
		return logprob.FromFloat(x), nil
	})

	// NormalDensity is the density of x under normal(mu, sigma).
	NormalDensity = NewOperation("normal_pdf", 3, func(args OperationArgs) (Closure, error) {
		xs, err := evaluateFloats("normal_pdf", args)
		if err != nil {
			return Closure{}, err
		}
		x, mu, sigma := xs[0], xs[1], xs[2]
		if sigma <= 0 {
			return Closure{}, fmt.Errorf("normal_pdf: sigma %v: %w", sigma, ErrDomain)
		}
		z := (x - mu) / sigma
		return Value(logprob.FromLog(-0.5*z*z - math.Log(sigma) - 0.5*math.Log(2*math.Pi))), nil
	})

	// ExponentialDensity is the density of x under exponential(rate).
	ExponentialDensity = NewOperation("exponential_pdf", 2, func(args OperationArgs) (Closure, error) {
		xs, err := evaluateFloats("exponential_pdf", args)
		if err != nil {
			return Closure{}, err
		}
		x, rate := xs[0], xs[1]
		if rate <= 0 {
			return Closure{}, fmt.Errorf("exponential_pdf: rate %v: %w", rate, ErrDomain)
		}
		if x < 0 {
			return Value(logprob.Zero), nil
		}
		return Value(logprob.FromLog(math.Log(rate) - rate*x)), nil
	})

	// UniformDensity is the density of x under uniform(low, high).
	UniformDensity = NewOperation("uniform_pdf", 3, func(args OperationArgs) (Closure, error) {
		xs, err := evaluateFloats("uniform_pdf", args)
		if err != nil {
			return Closure{}, err
		}
		x, low, high := xs[0], xs[1], xs[2]
		if high <= low {
			return Closure{}, fmt.Errorf("uniform_pdf: empty range [%v, %v]: %w", low, high, ErrDomain)
		}
		if x < low || x > high {
			return Value(logprob.Zero), nil
		}
		return Value(logprob.FromLog(-math.Log(high - low))), nil
	})
)

// List is a value holding unevaluated registers.
type List []int

// ListOf collects its argument registers without evaluating them.
var ListOf = NewOperation("list", -1, func(args OperationArgs) (Closure, error) {
	regs := make(List, 0, args.NArgs())
	for i := range args.NArgs() {
		regs = append(regs, args.RegForSlot(i))
	}
	return Value(regs), nil
})

// Builtins maps operation names to operations.
var Builtins = func() map[string]*Operation {
	ret := make(map[string]*Operation)
	for _, op := range []*Operation{
		Add, Sub, Mul, Div, Neg,
		Eq, Lt, Le, If,
		Exp, Log, Sqrt, Pow, ToLogDouble,
		NormalDensity, ExponentialDensity, UniformDensity,
		ListOf,
	} {
		ret[op.Name] = op
	}
	return ret
}()

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func isComparable(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}

func evaluatePair(args OperationArgs) (a, b any, err error) {
	a, err = args.Evaluate(0)
	if err != nil {
		return
	}
	b, err = args.Evaluate(1)
	return
}

func evaluateFloats(name string, args OperationArgs) ([]float64, error) {
	ret := make([]float64, 0, args.NArgs())
	for i := range args.NArgs() {
		v, err := args.Evaluate(i)
		if err != nil {
			return nil, err
		}
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d is %T: %w", name, i, v, ErrType)
		}
		ret = append(ret, f)
	}
	return ret, nil
}

func numeric(
	name string,
	a, b any,
	ints func(a, b int) (any, error),
	floats func(a, b float64) (any, error),
) (Closure, error) {
	if ia, ok := a.(int); ok {
		if ib, ok := b.(int); ok {
			v, err := ints(ia, ib)
			if err != nil {
				return Closure{}, err
			}
			return Value(v), nil
		}
	}
	fa, ok := toFloat(a)
	if !ok {
		return Closure{}, fmt.Errorf("%s: %T: %w", name, a, ErrType)
	}
	fb, ok := toFloat(b)
	if !ok {
		return Closure{}, fmt.Errorf("%s: %T: %w", name, b, ErrType)
	}
	v, err := floats(fa, fb)
	if err != nil {
		return Closure{}, err
	}
	return Value(v), nil
}

func arith(
	name string,
	ints func(a, b int) (any, error),
	floats func(a, b float64) (any, error),
) *Operation {
	return NewOperation(name, 2, func(args OperationArgs) (Closure, error) {
		a, b, err := evaluatePair(args)
		if err != nil {
			return Closure{}, err
		}
		return numeric(name, a, b, ints, floats)
	})
}

func compare(name string, fn func(a, b float64) bool) *Operation {
	return NewOperation(name, 2, func(args OperationArgs) (Closure, error) {
		xs, err := evaluateFloats(name, args)
		if err != nil {
			return Closure{}, err
		}
		return Value(fn(xs[0], xs[1])), nil
	})
}

func unaryFloat(name string, fn func(x float64) (any, error)) *Operation {
	return NewOperation(name, 1, func(args OperationArgs) (Closure, error) {
		xs, err := evaluateFloats(name, args)
		if err != nil {
			return Closure{}, err
		}
		v, err := fn(xs[0])
		if err != nil {
			return Closure{}, err
		}
		return Value(v), nil
	})
}
