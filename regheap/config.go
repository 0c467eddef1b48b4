package regheap

type Config struct {
	// ArenaBlock is the number of slots added when an arena grows
	ArenaBlock int `json:"arena_block"`
	// GCThreshold is the number of register allocations between automatic collections; 0 disables them
	GCThreshold int `json:"gc_threshold"`
	// MaxProbabilityError is the accumulated rounding error that forces a full probability recomputation
	MaxProbabilityError float64 `json:"max_probability_error"`
	// CheckInvariants runs Check after every top-level operation
	CheckInvariants bool `json:"check_invariants"`
}

func DefaultConfig() Config {
	return Config{
		ArenaBlock:          4096,
		GCThreshold:         1 << 16,
		MaxProbabilityError: 1e-8,
	}
}
