package exprs

import (
	"errors"
	"reflect"
	"testing"
)

func resolver(names map[string]int) Resolver {
	return func(name string) (int, bool) {
		r, ok := names[name]
		return r, ok
	}
}

func TestPreprocessFreeVariables(t *testing.T) {
	c, err := Preprocess(
		Ap(Add, Var("x"), Ap(Mul, Var("y"), Var("x"))),
		resolver(map[string]int{"x": 7, "y": 9}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.Env, []int{7, 9}) {
		t.Fatalf("got %v", c.Env)
	}
	// inner mul is hoisted into a let slot after the two free slots
	let, ok := c.Expr.(Let)
	if !ok {
		t.Fatalf("got %#v", c.Expr)
	}
	if len(let.Binds) != 1 {
		t.Fatalf("got %v", let.Binds)
	}
	if !reflect.DeepEqual(let.Binds[0], Apply{Op: Mul, Args: []Expr{Index(1), Index(0)}}) {
		t.Fatalf("got %#v", let.Binds[0])
	}
	if !reflect.DeepEqual(let.Body, Apply{Op: Add, Args: []Expr{Index(0), Index(2)}}) {
		t.Fatalf("got %#v", let.Body)
	}
}

func TestPreprocessRegRef(t *testing.T) {
	c, err := Preprocess(Ap(Add, RegRef(3), RegRef(3)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.Env, []int{3}) {
		t.Fatalf("got %v", c.Env)
	}
	if !reflect.DeepEqual(c.Expr, Apply{Op: Add, Args: []Expr{Index(0), Index(0)}}) {
		t.Fatalf("got %#v", c.Expr)
	}
}

func TestPreprocessLiteralArgs(t *testing.T) {
	c, err := Preprocess(Ap(Mul, RegRef(1), L(2)), nil)
	if err != nil {
		t.Fatal(err)
	}
	let, ok := c.Expr.(Let)
	if !ok {
		t.Fatalf("got %#v", c.Expr)
	}
	if !reflect.DeepEqual(let.Binds, []Expr{L(2)}) {
		t.Fatalf("got %#v", let.Binds)
	}
	if !reflect.DeepEqual(let.Body, Apply{Op: Mul, Args: []Expr{Index(0), Index(1)}}) {
		t.Fatalf("got %#v", let.Body)
	}
}

func TestPreprocessLocals(t *testing.T) {
	// let x = 1 in (\y -> x + y) x
	e := Let{
		Names: []string{"x"},
		Binds: []Expr{L(1)},
		Body: Call{
			Fn:   Fn([]string{"y"}, Ap(Add, Local("x"), Local("y"))),
			Args: []Expr{Local("x")},
		},
	}
	c, err := Preprocess(e, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Env) != 0 {
		t.Fatalf("got %v", c.Env)
	}
	outer := c.Expr.(Let)
	inner, ok := outer.Body.(Let)
	if !ok {
		t.Fatalf("got %#v", outer.Body)
	}
	lambda := inner.Binds[0].(Lambda)
	// scope of the lambda body: x, hoisted lambda slot, y
	if !reflect.DeepEqual(lambda.Body, Apply{Op: Add, Args: []Expr{Index(0), Index(2)}}) {
		t.Fatalf("got %#v", lambda.Body)
	}
	if !reflect.DeepEqual(inner.Body, Call{Fn: Index(1), Args: []Expr{Index(0)}}) {
		t.Fatalf("got %#v", inner.Body)
	}
}

func TestPreprocessShadowing(t *testing.T) {
	e := Let{
		Names: []string{"x", "x"},
		Binds: []Expr{L(1), L(2)},
		Body:  Ap(Neg, Local("x")),
	}
	c, err := Preprocess(e, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.Expr.(Let).Body, Apply{Op: Neg, Args: []Expr{Index(1)}}) {
		t.Fatalf("got %#v", c.Expr)
	}
}

func TestPreprocessErrors(t *testing.T) {
	_, err := Preprocess(Var("nope"), resolver(nil))
	if !errors.Is(err, ErrUnknownName) {
		t.Fatalf("got %v", err)
	}
	_, err = Preprocess(Local("x"), nil)
	if !errors.Is(err, ErrUnknownName) {
		t.Fatalf("got %v", err)
	}
	_, err = Preprocess(Ap(Neg, Index(0)), nil)
	if !errors.Is(err, ErrUnexpectedIndex) {
		t.Fatalf("got %v", err)
	}
	_, err = Preprocess(Ap(Add, L(1)), nil)
	if !errors.Is(err, ErrArity) {
		t.Fatalf("got %v", err)
	}
}

func TestFormat(t *testing.T) {
	c, err := Preprocess(Ap(Add, RegRef(5), L(1)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if s := c.String(); s != "let {1} in (add %0 %1) [5]" {
		t.Fatalf("got %s", s)
	}
}
