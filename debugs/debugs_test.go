package debugs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/reusee/dscope"
	"github.com/reusee/lazyphy/configs"
	"github.com/reusee/lazyphy/logprob"
	"github.com/reusee/lazyphy/logs"
	"github.com/reusee/lazyphy/modes"
	"go.starlark.net/starlark"
)

func testScope(t *testing.T, buf *bytes.Buffer) dscope.Scope {
	return dscope.New(
		modes.ForTest(t),
		new(Module),
	).Fork(
		func() configs.Loader {
			return configs.NewLoader(nil, "")
		},
		func() logs.Writer {
			return buf
		},
	)
}

type term struct {
	Reg      int
	LogValue float64
	hidden   bool
}

func TestToStarlarkValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ptr := &term{Reg: 3, LogValue: -1.5}
	dict := func(kvs ...starlark.Value) starlark.Value {
		d := starlark.NewDict(len(kvs) / 2)
		for i := 0; i < len(kvs); i += 2 {
			d.SetKey(kvs[i], kvs[i+1])
		}
		return d
	}
	termDict := dict(
		starlark.String("Reg"), starlark.MakeInt(3),
		starlark.String("LogValue"), starlark.Float(-1.5),
	)

	for _, c := range []struct {
		name  string
		input any
		want  starlark.Value
	}{
		{"nil", nil, starlark.None},
		{"bool", true, starlark.True},
		{"bytes", []byte("abc"), starlark.Bytes("abc")},
		{"string", "x", starlark.String("x")},
		{"int", 42, starlark.MakeInt(42)},
		{"int8", int8(-1), starlark.MakeInt(-1)},
		{"uint64", uint64(1 << 63), starlark.MakeUint64(1 << 63)},
		{"float", 0.25, starlark.Float(0.25)},
		{"log double", logprob.FromLog(-2), starlark.Float(-2)},
		{"uuid", id, starlark.String(id.String())},
		{"error", errors.New("boom"), starlark.String("boom")},
		{"starlark", starlark.String("s"), starlark.String("s")},
		{"list", []any{1, "a"}, starlark.NewList([]starlark.Value{starlark.MakeInt(1), starlark.String("a")})},
		{"map", map[string]any{"x": 1.0}, dict(starlark.String("x"), starlark.Float(1))},
		{"struct", term{Reg: 3, LogValue: -1.5, hidden: true}, termDict},
		{"pointer", ptr, termDict},
		{"pointer to pointer", &ptr, termDict},
		{"nil pointer", (*term)(nil), starlark.None},
		{"slice of structs", []term{{Reg: 3, LogValue: -1.5}}, starlark.NewList([]starlark.Value{termDict})},
	} {
		t.Run(c.name, func(t *testing.T) {
			got, err := toStarlarkValue(c.input)
			if err != nil {
				t.Fatal(err)
			}
			eq, err := starlark.Equal(got, c.want)
			if err != nil {
				t.Fatal(err)
			}
			if !eq {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}

	if _, err := toStarlarkValue(make(chan bool)); err == nil {
		t.Fatal("should fail")
	}
	if _, err := Globals(map[string]any{
		"c": []any{make(chan int)},
	}); err == nil || !strings.HasPrefix(err.Error(), "c: [0]") {
		t.Fatalf("got %v", err)
	}
}

func TestMapOrder(t *testing.T) {
	v, err := toStarlarkValue(map[string]int{"b": 2, "c": 3, "a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := v.String(); got != `{"a": 1, "b": 2, "c": 3}` {
		t.Fatalf("got %s", got)
	}
}

func TestInspect(t *testing.T) {
	buf := new(bytes.Buffer)
	testScope(t, buf).Call(func(
		inspect Inspect,
	) {
		err := inspect(t.Context(), "inspect.star", `
total = 0
for name in sorted(values):
	total += values[name]
print("total", total, "regs", stats["Regs"])
`, map[string]any{
			"values": map[string]float64{"x": 1, "y": 2.5},
			"stats":  struct{ Regs int }{Regs: 7},
		})
		if err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, `msg="total 3.5 regs 7"`) {
			t.Fatalf("got %s", out)
		}

		if err := inspect(t.Context(), "bad.star", `fail("nope")`, nil); err == nil {
			t.Fatal("should fail")
		}

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if err := inspect(ctx, "loop.star", `
while True:
	pass
`, nil); err == nil {
			t.Fatal("should be cancelled")
		}
	})
}
