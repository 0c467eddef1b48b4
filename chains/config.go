package chains

import (
	"errors"

	"github.com/reusee/lazyphy/configs"
)

type Config struct {
	Iterations int
	Seed       int64
	// collect garbage every GCEvery iterations; 0 leaves it to the machine
	GCEvery int
	// log progress every LogEvery iterations; 0 disables it
	LogEvery int
	// deviation of Gaussian proposals
	ProposalSD float64
}

func DefaultConfig() Config {
	return Config{
		Iterations: 1000,
		Seed:       1,
		GCEvery:    1000,
		LogEvery:   100,
		ProposalSD: 0.5,
	}
}

type chainSection struct {
	Iterations *int     `json:"iterations"`
	Seed       *int64   `json:"seed"`
	GCEvery    *int     `json:"gc_every"`
	LogEvery   *int     `json:"log_every"`
	ProposalSD *float64 `json:"proposal_sd"`
}

func (Module) Config(
	loader configs.Loader,
) Config {
	config := DefaultConfig()
	var section chainSection
	if err := loader.AssignFirst("chain", &section); err != nil {
		if errors.Is(err, configs.ErrValueNotFound) {
			return config
		}
		panic(err)
	}
	if section.Iterations != nil {
		config.Iterations = *section.Iterations
	}
	if section.Seed != nil {
		config.Seed = *section.Seed
	}
	if section.GCEvery != nil {
		config.GCEvery = *section.GCEvery
	}
	if section.LogEvery != nil {
		config.LogEvery = *section.LogEvery
	}
	if section.ProposalSD != nil {
		config.ProposalSD = *section.ProposalSD
	}
	return config
}
