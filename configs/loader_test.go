package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name string, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSchema(t *testing.T) {
	path := writeConfig(t, "lazyphy.cue", `
machine: gc_threshold: 1024
chain: iterations: 10
log: level: "debug"
`)
	loader := NewLoader([]string{path}, Schema)
	if n := First[int](loader, "machine.gc_threshold"); n != 1024 {
		t.Fatalf("got %v", n)
	}
	if n := First[int](loader, "chain.iterations"); n != 10 {
		t.Fatalf("got %v", n)
	}
	if n := First[int](loader, "chain.seed"); n != 0 {
		t.Fatalf("got %v", n)
	}
	if s := First[string](loader, "log.level"); s != "debug" {
		t.Fatalf("got %v", s)
	}
}

func TestSchemaViolation(t *testing.T) {
	for _, src := range []string{
		`foo: 1`,
		`machine: gc_threshold: -1`,
		`chain: proposal_sd: "wide"`,
		`log: format: "xml"`,
	} {
		path := writeConfig(t, "bad.cue", src)
		var v int
		if err := NewLoader([]string{path}, Schema).AssignFirst("chain.iterations", &v); err == nil {
			t.Fatalf("%s: should error", src)
		}
	}
}

func TestFirstFileWins(t *testing.T) {
	local := writeConfig(t, "local.cue", `chain: { seed: 7, iterations: 5 }`)
	global := writeConfig(t, "global.cue", `chain: { seed: 1, log_every: 3 }`)
	loader := NewLoader([]string{local, global}, Schema)

	var seed int64
	if err := loader.AssignFirst("chain.seed", &seed); err != nil {
		t.Fatal(err)
	}
	if seed != 7 {
		t.Fatalf("got %v", seed)
	}
	if n := First[int](loader, "chain.log_every"); n != 3 {
		t.Fatalf("got %v", n)
	}

	var seeds []int64
	for s := range All[int64](loader, "chain.seed") {
		seeds = append(seeds, s)
	}
	if str := fmt.Sprintf("%v", seeds); str != "[7 1]" {
		t.Fatalf("got %s", str)
	}

	err := loader.AssignFirst("chain.gc_every", &seed)
	if !errors.Is(err, ErrValueNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestDecodeError(t *testing.T) {
	path := writeConfig(t, "c.cue", `chain: iterations: 10`)
	loader := NewLoader([]string{path}, Schema)
	var s string
	if err := loader.AssignFirst("chain.iterations", &s); err == nil || errors.Is(err, ErrValueNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestMissingFile(t *testing.T) {
	loader := NewLoader([]string{filepath.Join(t.TempDir(), "none.cue")}, Schema)
	var n int
	if err := loader.AssignFirst("chain.iterations", &n); err == nil || errors.Is(err, ErrValueNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestNoFiles(t *testing.T) {
	loader := NewLoader(nil, "")
	if n := First[int](loader, "chain.iterations"); n != 0 {
		t.Fatalf("got %v", n)
	}
}
