package scene

import (
	"math"

	"github.com/df07/go-raytracer/pkg/core"
	"github.com/df07/go-raytracer/pkg/material"
)

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return core.NewVec3(r, g, blue).Clamp(0, 1)
}

// Grid layout in front of the camera, on top of the ground sphere
const (
	gridColumns   = 9
	gridRows      = 5
	gridRadius    = 0.12
	groundLevel   = -0.5
	gridLeft      = -2.0
	gridRight     = 2.0
	gridNear      = -1.2
	gridFar       = -3.6
	gridPosJitter = 0.08
)

// NewSphereGridScene creates a ground sphere covered by a grid of small spheres.
// Colors, positions and material kinds are drawn from a sampler seeded with seed,
// so the same seed always yields the same scene.
func NewSphereGridScene(seed int64) *Scene {
	s := NewScene()
	sampler := core.NewSeededSampler(seed)

	s.AddSphere(core.NewVec3(0, groundLevel-1000, -1), 1000,
		material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))

	xStep := (gridRight - gridLeft) / float64(gridColumns-1)
	zStep := (gridFar - gridNear) / float64(gridRows-1)

	for i := 0; i < gridColumns; i++ {
		for j := 0; j < gridRows; j++ {
			jitter := core.RandomVec3InRange(sampler, -gridPosJitter, gridPosJitter)
			center := core.NewVec3(
				gridLeft+float64(i)*xStep+jitter.X,
				groundLevel+gridRadius,
				gridNear+float64(j)*zStep+jitter.Z,
			)

			// Hue varies across the row, chroma with depth
			hue := float64(i) / float64(gridColumns-1) * 360.0
			chroma := 0.05 + float64(j)/float64(gridRows-1)*0.2
			color := oklchToRGB(0.7, chroma, hue)

			s.AddSphere(center, gridRadius, gridMaterial(sampler, color))
		}
	}

	// Three feature spheres like the materials scene, set behind the grid
	s.AddSphere(core.NewVec3(-1.2, 0.0, -4.5), 0.5, material.NewDielectric(1.5))
	s.AddSphere(core.NewVec3(0.0, 0.0, -4.5), 0.5, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1)))
	s.AddSphere(core.NewVec3(1.2, 0.0, -4.5), 0.5, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0))

	s.SamplingConfig.SamplesPerPixel = 50
	s.SamplingConfig.MaxDepth = 50

	return s
}

// gridMaterial picks a diffuse, metal or glass material for a grid sphere
func gridMaterial(sampler core.Sampler, color core.Vec3) material.Material {
	choice := sampler.Get1D()
	switch {
	case choice < 0.7:
		return material.NewLambertian(color.MultiplyVec(color))
	case choice < 0.9:
		return material.NewMetal(color, core.RandomInRange(sampler, 0, 0.5))
	default:
		return material.NewDielectric(1.5)
	}
}
