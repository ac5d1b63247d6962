package scene

import (
	"github.com/df07/go-raytracer/pkg/core"
	"github.com/df07/go-raytracer/pkg/geometry"
	"github.com/df07/go-raytracer/pkg/material"
)

// Scene contains all the elements needed for rendering.
// The world is read-only once rendering starts.
type Scene struct {
	World          *geometry.ShapeList // Primitives scanned for every ray
	TopColor       core.Vec3           // Sky color at the zenith
	BottomColor    core.Vec3           // Sky color at the horizon
	SamplingConfig SamplingConfig      // Recommended render settings
}

// SamplingConfig contains the render settings a scene recommends
type SamplingConfig struct {
	Width           int     // Image width
	AspectRatio     float64 // Nominal width / height
	SamplesPerPixel int     // Number of rays per pixel
	MaxDepth        int     // Maximum ray bounce depth
}

// DefaultSamplingConfig returns the settings used when a scene does not override them
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           400,
		AspectRatio:     16.0 / 9.0,
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}
}

// NewScene creates an empty scene with the white to sky-blue background
func NewScene() *Scene {
	return &Scene{
		World:          geometry.NewShapeList(),
		TopColor:       core.NewVec3(0.5, 0.7, 1.0), // Blue sky
		BottomColor:    core.NewVec3(1.0, 1.0, 1.0), // White horizon
		SamplingConfig: DefaultSamplingConfig(),
	}
}

// Add appends shapes to the scene's world
func (s *Scene) Add(shapes ...geometry.Shape) {
	for _, shape := range shapes {
		s.World.Add(shape)
	}
}

// AddSphere adds a sphere with the given material
func (s *Scene) AddSphere(center core.Vec3, radius float64, mat material.Material) *geometry.Sphere {
	sphere := geometry.NewSphere(center, radius, mat)
	s.World.Add(sphere)
	return sphere
}

// Hit returns the nearest intersection in the world
func (s *Scene) Hit(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool) {
	return s.World.Hit(ray, rayT)
}

// Background returns the sky gradient for a ray that escaped the world.
// The unit direction's y component is mapped from [-1,1] to [0,1] and used to
// blend from BottomColor to TopColor.
func (s *Scene) Background(ray core.Ray) core.Vec3 {
	unitDirection := ray.Direction.Normalize()
	a := 0.5 * (unitDirection.Y + 1.0)
	return s.BottomColor.Multiply(1.0 - a).Add(s.TopColor.Multiply(a))
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.World.Len()
}
