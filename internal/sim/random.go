package sim

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"sync"
)

// RandomSource is the single random stream of a run. Every draw happens under
// its lock so that concurrent consumers never interleave inside a sample.
type RandomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomSource(seed [32]byte) *RandomSource {
	return &RandomSource{rng: rand.New(rand.NewChaCha8(seed))}
}

// SeedFromInt64 expands an integer seed into the 32-byte form.
func SeedFromInt64(n int64) [32]byte {
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], uint64(n))
	return seed
}

// Draw runs fn with exclusive access to the stream. fn must not retain r.
func (s *RandomSource) Draw(fn func(r *rand.Rand)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.rng)
}

func (s *RandomSource) Float32() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float32()
}

func (s *RandomSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *RandomSource) Uniform(lo, hi float32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uniform(s.rng, lo, hi)
}

// uniform samples [lo, hi). It returns lo when the range is empty.
func uniform(r *rand.Rand, lo, hi float32) float32 {
	if !(hi > lo) {
		return lo
	}
	v := lo + r.Float32()*(hi-lo)
	if v >= hi {
		v = math.Nextafter32(hi, lo)
	}
	return v
}

func sign(r *rand.Rand) float32 {
	if r.IntN(2) == 0 {
		return -1
	}
	return 1
}
