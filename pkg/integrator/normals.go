package integrator

import (
	"math"

	"github.com/df07/go-raytracer/pkg/core"
	"github.com/df07/go-raytracer/pkg/scene"
)

// NormalIntegrator shades hits by their surface normal, mapping each component
// from [-1,1] to [0,1]. Misses show the scene background. Useful as a fast
// preview that ignores materials entirely.
type NormalIntegrator struct{}

// NewNormalIntegrator creates a new normal shading integrator
func NewNormalIntegrator() *NormalIntegrator {
	return &NormalIntegrator{}
}

// RayColor returns 0.5*(n+1) for the nearest hit
func (ni *NormalIntegrator) RayColor(ray core.Ray, scene *scene.Scene, sampler core.Sampler, depth int) core.Vec3 {
	if depth <= 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}

	hit, isHit := scene.Hit(ray, core.NewInterval(MinHitDistance, math.Inf(1)))
	if !isHit {
		return scene.Background(ray)
	}

	return hit.Normal.Add(core.NewVec3(1, 1, 1)).Multiply(0.5)
}
