package integrator

import (
	"github.com/df07/go-raytracer/pkg/core"
	"github.com/df07/go-raytracer/pkg/scene"
)

// MinHitDistance is the lower bound of every scene scan. Hits closer than this
// to the ray origin are treated as self-intersections.
const MinHitDistance = 0.001

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor returns the color carried back along ray. depth is the number
	// of bounces still allowed; depth <= 0 always yields black.
	RayColor(ray core.Ray, scene *scene.Scene, sampler core.Sampler, depth int) core.Vec3
}

// New returns the integrator registered under name: "path" (or empty) for
// path tracing, "normals" for normal shading
func New(name string) (Integrator, bool) {
	switch name {
	case "", "path":
		return NewPathTracingIntegrator(), true
	case "normals":
		return NewNormalIntegrator(), true
	default:
		return nil, false
	}
}
