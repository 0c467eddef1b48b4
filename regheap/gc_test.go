package regheap

import (
	"testing"

	"github.com/reusee/lazyphy/exprs"
)

func TestCollectGarbage(t *testing.T) {
	m := newTestMachine(t, func(c *Config) {
		c.GCThreshold = 0
	})
	x, err := m.AddModifiableParameter("x")
	if err != nil {
		t.Fatal(err)
	}
	y := head(t, m, exprs.Ap(exprs.Add, exprs.Var("x"), exprs.L(1)))
	cur := m.NewContext()
	set(t, cur, x, 0)
	for i := range 100 {
		trial := copyContext(t, cur)
		set(t, trial, x, i)
		eval(t, trial, y)
		if i%2 == 0 {
			if err := cur.Assign(trial); err != nil {
				t.Fatal(err)
			}
		}
		if err := trial.Release(); err != nil {
			t.Fatal(err)
		}
	}

	garbage, err := m.AllocateExpression(exprs.Ap(exprs.Add, exprs.L(1), exprs.L(2)))
	if err != nil {
		t.Fatal(err)
	}
	before := m.Stats().Regs
	m.CollectGarbage()
	after := m.Stats().Regs
	if after >= before {
		t.Fatalf("got %v, before %v", after, before)
	}
	if m.regs.isUsed(garbage) {
		t.Fatal("unreachable register survived")
	}
	if v := eval(t, cur, y); v != 99 {
		t.Fatalf("got %v", v)
	}
	check(t, m)

	// nothing left to collect
	n := m.Stats().Regs
	m.CollectGarbage()
	if m.Stats().Regs != n {
		t.Fatalf("got %v, want %v", m.Stats().Regs, n)
	}
}

func TestCollectGarbageKeepsForks(t *testing.T) {
	m := newTestMachine(t, func(c *Config) {
		c.GCThreshold = 1
	})
	x, err := m.AddModifiableParameter("x")
	if err != nil {
		t.Fatal(err)
	}
	y := head(t, m, exprs.Ap(exprs.Mul, exprs.Var("x"), exprs.L(3)))
	cur := m.NewContext()
	set(t, cur, x, 1)

	var trials []*Context
	for i := range 5 {
		trial := copyContext(t, cur)
		set(t, trial, x, i)
		if v := eval(t, trial, y); v != i*3 {
			t.Fatalf("got %v", v)
		}
		trials = append(trials, trial)
	}
	// every evaluation collects
	for i, trial := range trials {
		if v := eval(t, trial, y); v != i*3 {
			t.Fatalf("got %v", v)
		}
	}
	if v := eval(t, cur, y); v != 3 {
		t.Fatalf("got %v", v)
	}
	for _, trial := range trials {
		if err := trial.Release(); err != nil {
			t.Fatal(err)
		}
	}
	check(t, m)
}

func TestCollectGarbageKeepsListElements(t *testing.T) {
	m := newTestMachine(t, func(c *Config) {
		c.GCThreshold = 1
	})
	x, err := m.AddModifiableParameter("x")
	if err != nil {
		t.Fatal(err)
	}
	r := head(t, m, exprs.Ap(exprs.ListOf, exprs.Ap(exprs.Add, exprs.Var("x"), exprs.L(1))))
	c := m.NewContext()
	set(t, c, x, 1)
	// the list is folded into a literal holding the element register
	if _, err := c.Evaluate(r); err != nil {
		t.Fatal(err)
	}
	m.CollectGarbage()
	v, err := c.RecursiveEvaluate(r)
	if err != nil {
		t.Fatal(err)
	}
	if list := v.([]any); len(list) != 1 || list[0] != 2 {
		t.Fatalf("got %v", v)
	}
}

func TestNoCollectionDuringEvaluation(t *testing.T) {
	m := newTestMachine(t)
	m.depth = 1
	expectInternalError(t, func() {
		m.CollectGarbage()
	})
	m.depth = 0
}
