package regheap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/lazyphy/configs"
	"github.com/reusee/lazyphy/modes"
)

func TestModuleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazyphy.cue")
	if err := os.WriteFile(path, []byte(`
machine: {
	gc_threshold: 0
	check_invariants: false
}
`), 0644); err != nil {
		t.Fatal(err)
	}

	dscope.New(
		modes.ForTest(t),
		new(Module),
	).Fork(
		func() configs.Loader {
			return configs.NewLoader([]string{path}, configs.Schema)
		},
	).Call(func(
		config Config,
		m *Machine,
	) {
		if config.GCThreshold != 0 || config.CheckInvariants {
			t.Fatalf("got %+v", config)
		}
		// defaults are kept
		if config.ArenaBlock != DefaultConfig().ArenaBlock {
			t.Fatalf("got %+v", config)
		}
		if m.Config() != config {
			t.Fatalf("got %+v", m.Config())
		}
	})

	dscope.New(
		modes.ForTest(t),
		new(Module),
	).Fork(
		func() configs.Loader {
			return configs.NewLoader(nil, configs.Schema)
		},
	).Call(func(
		config Config,
	) {
		// checks are on by default outside production
		want := DefaultConfig()
		want.CheckInvariants = true
		if config != want {
			t.Fatalf("got %+v", config)
		}
	})

	dscope.New(
		modes.ForProduction(),
		new(Module),
	).Fork(
		func() configs.Loader {
			return configs.NewLoader(nil, configs.Schema)
		},
	).Call(func(
		config Config,
	) {
		if config != DefaultConfig() {
			t.Fatalf("got %+v", config)
		}
	})
}
