package privacy

import (
	"math"
	"math/rand"
	"sync"
)

// NoiseSource is the single randomness source for the engine. It wraps a
// seeded math/rand generator behind a mutex so concurrent callers do not
// race, and so a fixed seed reproduces the full pipeline exactly.
type NoiseSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewNoiseSource creates a seeded noise source.
func NewNoiseSource(seed int64) *NoiseSource {
	return &NoiseSource{rng: rand.New(rand.NewSource(seed))}
}

// Gaussian draws from N(0, sigma^2).
func (n *NoiseSource) Gaussian(sigma float64) float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rng.NormFloat64() * sigma
}

// Laplace draws from Laplace(0, scale) via inverse transform sampling.
func (n *NoiseSource) Laplace(scale float64) float64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	u := n.rng.Float64() - 0.5
	if u < 0 {
		return scale * math.Log(1+2*u)
	}
	return -scale * math.Log(1-2*u)
}

// Float64 draws uniformly from [0, 1).
func (n *NoiseSource) Float64() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rng.Float64()
}

// Uniform draws uniformly from [min, max).
func (n *NoiseSource) Uniform(min, max float64) float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return min + n.rng.Float64()*(max-min)
}

// Intn draws uniformly from [0, n).
func (n *NoiseSource) Intn(max int) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rng.Intn(max)
}
