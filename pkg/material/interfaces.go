package material

import (
	"github.com/df07/go-raytracer/pkg/core"
)

// Material interface for surfaces that can scatter rays.
// Scatter returns false when the incoming ray is absorbed.
type Material interface {
	Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool)
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   core.Ray  // The scattered ray
	Attenuation core.Vec3 // Per-channel color attenuation
}

// HitRecord contains information about a ray-object intersection.
// Material is a shared handle to the material owned by the scene; the record
// never owns it and may safely outlive the scan that produced it.
type HitRecord struct {
	Point     core.Vec3 // Point of intersection
	Normal    core.Vec3 // Surface normal, always opposing the incoming ray
	T         float64   // Parameter t along the ray
	FrontFace bool      // Whether ray hit the front face
	Material  Material  // Material of the hit object
}

// NewHitRecord builds a hit record at parameter t and orients the normal
// against the incoming ray. outwardNormal must point out of the surface.
func NewHitRecord(ray core.Ray, t float64, outwardNormal core.Vec3, mat Material) *HitRecord {
	hit := &HitRecord{
		T:        t,
		Point:    ray.At(t),
		Material: mat,
	}
	hit.SetFaceNormal(ray, outwardNormal)
	return hit
}

// SetFaceNormal sets the normal vector and determines front/back face
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}
