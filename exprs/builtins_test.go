package exprs

import (
	"errors"
	"math"
	"testing"

	"github.com/reusee/lazyphy/logprob"
)

type fakeArgs struct {
	values []any
	used   []int
}

var _ OperationArgs = new(fakeArgs)

func (f *fakeArgs) NArgs() int {
	return len(f.values)
}

func (f *fakeArgs) RegForSlot(slot int) int {
	return 100 + slot
}

func (f *fakeArgs) Evaluate(slot int) (any, error) {
	f.used = append(f.used, slot)
	return f.values[slot], nil
}

func (f *fakeArgs) EvaluateClosure(slot int) (Closure, error) {
	f.used = append(f.used, slot)
	return Value(f.values[slot]), nil
}

func (f *fakeArgs) Allocate(c Closure) int {
	return -1
}

func (f *fakeArgs) Current() Closure {
	return Closure{}
}

func run(t *testing.T, op *Operation, values ...any) any {
	t.Helper()
	c, err := op.Func(&fakeArgs{values: values})
	if err != nil {
		t.Fatal(err)
	}
	lit, ok := c.Expr.(Lit)
	if !ok {
		t.Fatalf("got %#v", c.Expr)
	}
	return lit.Value
}

func TestArith(t *testing.T) {
	if v := run(t, Add, 1, 2); v != 3 {
		t.Fatalf("got %v", v)
	}
	if v := run(t, Add, 1, 2.5); v != 3.5 {
		t.Fatalf("got %v", v)
	}
	if v := run(t, Sub, 1, 3); v != -2 {
		t.Fatalf("got %v", v)
	}
	if v := run(t, Mul, 3, 4); v != 12 {
		t.Fatalf("got %v", v)
	}
	if v := run(t, Div, 7, 2); v != 3 {
		t.Fatalf("got %v", v)
	}
	if v := run(t, Div, 7.0, 2); v != 3.5 {
		t.Fatalf("got %v", v)
	}
	if v := run(t, Neg, 2.5); v != -2.5 {
		t.Fatalf("got %v", v)
	}
	if v := run(t, Mul, logprob.FromFloat(2), logprob.FromFloat(3)); math.Abs(v.(logprob.LogDouble).Float()-6) > 1e-9 {
		t.Fatalf("got %v", v)
	}
}

func TestArithErrors(t *testing.T) {
	_, err := Div.Func(&fakeArgs{values: []any{1, 0}})
	if !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("got %v", err)
	}
	_, err = Add.Func(&fakeArgs{values: []any{1, "foo"}})
	if !errors.Is(err, ErrType) {
		t.Fatalf("got %v", err)
	}
	_, err = Mul.Func(&fakeArgs{values: []any{logprob.One, 2}})
	if !errors.Is(err, ErrType) {
		t.Fatalf("got %v", err)
	}
	_, err = Sqrt.Func(&fakeArgs{values: []any{-1}})
	if !errors.Is(err, ErrDomain) {
		t.Fatalf("got %v", err)
	}
}

func TestCompare(t *testing.T) {
	if v := run(t, Lt, 1, 2.0); v != true {
		t.Fatalf("got %v", v)
	}
	if v := run(t, Le, 2, 2); v != true {
		t.Fatalf("got %v", v)
	}
	if v := run(t, Eq, 2, 2.0); v != true {
		t.Fatalf("got %v", v)
	}
	if v := run(t, Eq, "a", "b"); v != false {
		t.Fatalf("got %v", v)
	}
	if _, err := Eq.Func(&fakeArgs{values: []any{List{1}, List{1}}}); !errors.Is(err, ErrType) {
		t.Fatalf("got %v", err)
	}
}

func TestIf(t *testing.T) {
	args := &fakeArgs{values: []any{false, 1, 2}}
	c, err := If.Func(args)
	if err != nil {
		t.Fatal(err)
	}
	if c.Expr != Index(0) || len(c.Env) != 1 || c.Env[0] != 102 {
		t.Fatalf("got %v", c)
	}
	// branches are not evaluated
	if len(args.used) != 1 || args.used[0] != 0 {
		t.Fatalf("got %v", args.used)
	}

	_, err = If.Func(&fakeArgs{values: []any{1, 1, 2}})
	if !errors.Is(err, ErrType) {
		t.Fatalf("got %v", err)
	}
}

func TestDensities(t *testing.T) {
	v := run(t, NormalDensity, 0, 0, 1).(logprob.LogDouble)
	if math.Abs(v.Float()-1/math.Sqrt(2*math.Pi)) > 1e-12 {
		t.Fatalf("got %v", v)
	}
	v = run(t, ExponentialDensity, 1, 2).(logprob.LogDouble)
	if math.Abs(v.Float()-2*math.Exp(-2)) > 1e-12 {
		t.Fatalf("got %v", v)
	}
	v = run(t, ExponentialDensity, -1, 2).(logprob.LogDouble)
	if !v.IsZero() {
		t.Fatalf("got %v", v)
	}
	v = run(t, UniformDensity, 0.5, 0, 4).(logprob.LogDouble)
	if math.Abs(v.Float()-0.25) > 1e-12 {
		t.Fatalf("got %v", v)
	}
	v = run(t, UniformDensity, 5, 0, 4).(logprob.LogDouble)
	if !v.IsZero() {
		t.Fatalf("got %v", v)
	}
	_, err := NormalDensity.Func(&fakeArgs{values: []any{0, 0, 0}})
	if !errors.Is(err, ErrDomain) {
		t.Fatalf("got %v", err)
	}
}

func TestBuiltinsTable(t *testing.T) {
	for name, op := range Builtins {
		if op.Name != name {
			t.Fatalf("got %s for %s", op.Name, name)
		}
	}
	if Builtins["normal_pdf"] != NormalDensity {
		t.Fatal()
	}
}

func TestListOf(t *testing.T) {
	args := &fakeArgs{values: []any{1, 2, 3}}
	c, err := ListOf.Func(args)
	if err != nil {
		t.Fatal(err)
	}
	list := c.Expr.(Lit).Value.(List)
	if len(list) != 3 || list[0] != 100 || list[2] != 102 {
		t.Fatalf("got %v", list)
	}
	if len(args.used) != 0 {
		t.Fatalf("got %v", args.used)
	}
}
