package rules

import (
	"hash/fnv"
	"math"
)

// SimulateStatLine deterministically generates one value per declared stat,
// uniform within the stat's [min, max] bounds and rounded to its declared
// decimals. Identical (config, seed) pairs always produce identical lines,
// so callers encode the generation context in the seed (conventionally
// "leagueID:week:athleteID") and re-running a simulation is a no-op.
func SimulateStatLine(cfg *RuleSetConfig, seed string) map[string]float64 {
	rng := newStatStream(seed)
	line := make(map[string]float64, len(cfg.Scoring.Stats))
	for _, stat := range cfg.Scoring.Stats {
		v := stat.Min + rng.float64()*(stat.Max-stat.Min)
		line[stat.Key] = roundTo(v, stat.Decimals)
	}
	return line
}

// statStream is an xorshift32 generator seeded from a string. Xorshift is
// small, fast, and statistically adequate for uniform stat draws; it is not
// suitable for anything security-sensitive.
type statStream struct {
	state uint32
}

// newStatStream hashes the seed string to 32 bits with FNV-1a. FNV-1a is the
// documented hash choice for this engine: deterministic, well-dispersed, and
// stable across releases. Cross-implementation byte equality is not a goal.
func newStatStream(seed string) *statStream {
	h := fnv.New32a()
	h.Write([]byte(seed))
	state := h.Sum32()
	if state == 0 {
		// xorshift has a zero fixed point
		state = 0x9e3779b9
	}
	return &statStream{state: state}
}

func (s *statStream) next() uint32 {
	x := s.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	s.state = x
	return x
}

// float64 returns the next value in [0, 1).
func (s *statStream) float64() float64 {
	return float64(s.next()) / (1 << 32)
}

// roundTo rounds half away from zero to the nearest 10^-decimals unit.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
