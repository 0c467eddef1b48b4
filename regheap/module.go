package regheap

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/reusee/dscope"
	"github.com/reusee/lazyphy/configs"
	"github.com/reusee/lazyphy/logs"
	"github.com/reusee/lazyphy/modes"
)

type Module struct {
	dscope.Module
	Configs configs.Module
	Logs    logs.Module
}

// machineSection is the machine section of the configuration files.
// Absent fields keep their default.
type machineSection struct {
	ArenaBlock          *int     `json:"arena_block"`
	GCThreshold         *int     `json:"gc_threshold"`
	MaxProbabilityError *float64 `json:"max_probability_error"`
	CheckInvariants     *bool    `json:"check_invariants"`
}

func (Module) Config(
	loader configs.Loader,
	mode modes.Mode,
) Config {
	config := DefaultConfig()
	config.CheckInvariants = mode.Checked()
	var section machineSection
	if err := loader.AssignFirst("machine", &section); err != nil {
		if errors.Is(err, configs.ErrValueNotFound) {
			return config
		}
		panic(err)
	}
	if section.ArenaBlock != nil {
		config.ArenaBlock = *section.ArenaBlock
	}
	if section.GCThreshold != nil {
		config.GCThreshold = *section.GCThreshold
	}
	if section.MaxProbabilityError != nil {
		config.MaxProbabilityError = *section.MaxProbabilityError
	}
	if section.CheckInvariants != nil {
		config.CheckInvariants = *section.CheckInvariants
	}
	return config
}

func (Module) Registry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func (Module) Metrics(
	reg *prometheus.Registry,
) *Metrics {
	return NewMetrics(reg)
}

func (Module) Machine(
	config Config,
	logger logs.Logger,
	metrics *Metrics,
) *Machine {
	return NewMachine(config, logger, metrics)
}
