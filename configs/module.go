package configs

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/reusee/dscope"
	"github.com/reusee/lazyphy/cmds"
)

//go:embed schema.cue
var Schema string

var extraFiles = cmds.Collect[string]("-config", "load a configuration file before the discovered ones")

type Module struct {
	dscope.Module
}

func (Module) Loader() Loader {
	return NewLoader(Files(), Schema)
}

// Files returns the existing configuration files, most specific first.
// Files named with -config come before the discovered ones.
func Files() []string {
	ret := append([]string(nil), *extraFiles...)
	candidates := []string{
		"lazyphy.cue",
		".lazyphy.cue",
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "lazyphy", "config.cue"))
	}
	candidates = append(candidates, "/etc/lazyphy.cue")
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			ret = append(ret, path)
		}
	}
	return ret
}
