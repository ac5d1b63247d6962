package core

import (
	"fmt"
	"math/rand"
)

// maxRejectionAttempts bounds the rejection samplers. A random sampler is
// accepted about half the time, so reaching the cap means the sampler can
// never produce an accepted point.
const maxRejectionAttempts = 1000

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a random sampler with a fixed seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// SequenceSampler replays a fixed list of values in order, wrapping around at the end.
// A sequence that never yields an accepted point makes RandomInUnitSphere and
// RandomUnitVector panic; NewSequenceSampler(0) maps to the cube corner
// (-1, -1, -1), for example.
type SequenceSampler struct {
	values []float64
	next   int
}

// NewSequenceSampler creates a sampler that cycles through values.
// At least one value is required.
func NewSequenceSampler(values ...float64) *SequenceSampler {
	if len(values) == 0 {
		panic("core: SequenceSampler needs at least one value")
	}
	return &SequenceSampler{values: values}
}

// Get1D returns the next value of the sequence
func (s *SequenceSampler) Get1D() float64 {
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}

// Get2D returns the next two values of the sequence
func (s *SequenceSampler) Get2D() Vec2 {
	x := s.Get1D()
	return NewVec2(x, s.Get1D())
}

// Get3D returns the next three values of the sequence
func (s *SequenceSampler) Get3D() Vec3 {
	x := s.Get1D()
	y := s.Get1D()
	return NewVec3(x, y, s.Get1D())
}

// RandomInRange maps a [0,1) sample into [min, max)
func RandomInRange(sampler Sampler, min, max float64) float64 {
	return min + (max-min)*sampler.Get1D()
}

// RandomVec3 returns a vector with independent components in [0, 1)
func RandomVec3(sampler Sampler) Vec3 {
	return sampler.Get3D()
}

// RandomVec3InRange returns a vector with independent components in [min, max)
func RandomVec3InRange(sampler Sampler, min, max float64) Vec3 {
	u := sampler.Get3D()
	return NewVec3(min+(max-min)*u.X, min+(max-min)*u.Y, min+(max-min)*u.Z)
}

// RandomInUnitSphere returns a uniformly distributed point inside the unit ball
// by rejection sampling the cube [-1,1]^3. It panics if the sampler yields no
// point inside the ball within maxRejectionAttempts tries.
func RandomInUnitSphere(sampler Sampler) Vec3 {
	for attempt := 0; attempt < maxRejectionAttempts; attempt++ {
		p := RandomVec3InRange(sampler, -1, 1)
		if p.LengthSquared() < 1 {
			return p
		}
	}
	panic(fmt.Sprintf("core: no point inside the unit sphere after %d samples", maxRejectionAttempts))
}

// RandomUnitVector returns a uniformly distributed direction on the unit sphere.
// Points too close to the origin are rejected so normalization stays finite.
// Like RandomInUnitSphere it panics when the sampler never yields an accepted point.
func RandomUnitVector(sampler Sampler) Vec3 {
	for attempt := 0; attempt < maxRejectionAttempts; attempt++ {
		p := RandomVec3InRange(sampler, -1, 1)
		lensq := p.LengthSquared()
		if 1e-160 < lensq && lensq < 1 {
			return p.Normalize()
		}
	}
	panic(fmt.Sprintf("core: no unit vector after %d samples", maxRejectionAttempts))
}
