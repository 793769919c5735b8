package triage

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === RunKey ===

// RunKey uniquely identifies a reproducible run. Two runs with the same
// RunKey and identical configuration MUST produce bit-for-bit identical
// results.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemBootstrap is the RNG subsystem for bootstrap resampling.
	// Uses the master seed directly so --seed maps straight onto the
	// primary statistical endpoints.
	SubsystemBootstrap = "bootstrap"

	// SubsystemBaseline is the RNG subsystem for the random baseline's
	// selection draw.
	SubsystemBaseline = "baseline"

	// SubsystemScorer is the RNG subsystem for the random fallback scorer.
	SubsystemScorer = "scorer"
)

// SubsystemWorker returns the subsystem name for bootstrap worker N.
// Per-worker RNG isolation keeps parallel resampling deterministic across
// worker counts.
func SubsystemWorker(id int) string {
	return fmt.Sprintf("bootstrap_worker_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem.
//
// Derivation formula:
//   - For SubsystemBootstrap: uses the master seed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine;
// parallel workers each take their own subsystem up front.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same subsystem name always returns the same *rand.Rand
// instance (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemBootstrap {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the RunKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
