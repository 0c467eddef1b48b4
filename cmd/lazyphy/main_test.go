package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/lazyphy/configs"
	"github.com/reusee/lazyphy/models"
	"github.com/reusee/lazyphy/modes"
	"github.com/reusee/lazyphy/regheap"
)

func TestWriteDot(t *testing.T) {
	dscope.New(
		modes.ForTest(t),
		new(models.Module),
	).Fork(
		func() configs.Loader {
			return configs.NewLoader(nil, "")
		},
	).Call(func(
		load models.Load,
		machine *regheap.Machine,
	) {
		model, err := load("m.star", `
x = modifiable("x", 1.0, lower=0)
factor(normal(x, 0.0, 1.0))
`)
		if err != nil {
			t.Fatal(err)
		}
		defer model.Context.Release()
		if _, err := model.Context.Probability(); err != nil {
			t.Fatal(err)
		}

		path := filepath.Join(t.TempDir(), "graph.dot")
		if err := writeDot(path, machine, model.Context); err != nil {
			t.Fatal(err)
		}
		for _, p := range []string{path, path + ".tokens"} {
			content, err := os.ReadFile(p)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.HasPrefix(content, []byte("digraph ")) {
				t.Fatalf("got %q", content)
			}
		}

		if err := writeDot(filepath.Join(t.TempDir(), "missing", "graph.dot"), machine, model.Context); err == nil {
			t.Fatal("should fail")
		}
	})
}
