package regheap

import (
	"errors"
	"math"
	"testing"

	"github.com/reusee/lazyphy/exprs"
)

func TestRangeReflect(t *testing.T) {
	for _, c := range []struct {
		r    Range
		x    float64
		want float64
	}{
		{Unbounded(), -5, -5},
		{Range{Lower: 0, Upper: math.Inf(1)}, -0.25, 0.25},
		{Range{Lower: 0, Upper: math.Inf(1)}, 3, 3},
		{Range{Lower: math.Inf(-1), Upper: 1}, 1.5, 0.5},
		{Range{Lower: 0, Upper: 1}, 1.25, 0.75},
		{Range{Lower: 0, Upper: 1}, -0.25, 0.25},
		{Range{Lower: 0, Upper: 1}, 2.25, 0.25},
		{Range{Lower: 0, Upper: 1}, -1.75, 0.25},
		{Range{Lower: 2, Upper: 4}, 9, 3},
	} {
		got := c.r.Reflect(c.x)
		if math.Abs(got-c.want) > 1e-12 {
			t.Fatalf("%v reflect %v: got %v, want %v", c.r, c.x, got, c.want)
		}
		if !c.r.Contains(got) {
			t.Fatalf("got %v outside %v", got, c.r)
		}
	}
}

func TestAddRandomModifiable(t *testing.T) {
	m := newTestMachine(t)
	x, err := m.AddModifiableParameter("x")
	if err != nil {
		t.Fatal(err)
	}
	positive := Range{Lower: 0, Upper: math.Inf(1)}
	if err := m.AddRandomModifiable(x, positive, 1); err != nil {
		t.Fatal(err)
	}
	// adding again replaces the range and rate
	if err := m.AddRandomModifiable(x, Unbounded(), 2); err != nil {
		t.Fatal(err)
	}
	randoms := m.RandomModifiables()
	if len(randoms) != 1 || randoms[0].Reg != x || randoms[0].Range != Unbounded() || randoms[0].Rate != 2 {
		t.Fatalf("got %+v", randoms)
	}

	for _, c := range []struct {
		r    Range
		rate float64
	}{
		{Range{Lower: 1, Upper: 1}, 1},
		{Range{Lower: 2, Upper: 1}, 1},
		{Range{Lower: math.NaN(), Upper: 1}, 1},
		{Unbounded(), 0},
		{Unbounded(), -1},
		{Unbounded(), math.NaN()},
		{Unbounded(), math.Inf(1)},
	} {
		if err := m.AddRandomModifiable(x, c.r, c.rate); !errors.Is(err, ErrBadRange) {
			t.Fatalf("%v %v: got %v", c.r, c.rate, err)
		}
	}

	y := head(t, m, exprs.L(1))
	if err := m.AddRandomModifiable(y, Unbounded(), 1); !errors.Is(err, ErrNotModifiable) {
		t.Fatalf("got %v", err)
	}

	// random modifiables survive collection
	m.CollectGarbage()
	c := m.NewContext()
	set(t, c, x, 1.5)
	if v, err := c.ModifiableValue(x); err != nil || v != 1.5 {
		t.Fatalf("got %v %v", v, err)
	}
	check(t, m)
}
