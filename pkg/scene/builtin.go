package scene

import (
	"fmt"
	"sort"

	"github.com/df07/go-raytracer/pkg/core"
	"github.com/df07/go-raytracer/pkg/material"
)

// builtinScene describes a scene that ships with the renderer
type builtinScene struct {
	description string
	create      func() *Scene
}

var builtins = map[string]builtinScene{
	"default": {
		description: "Single sphere resting on a large ground sphere",
		create:      NewDefaultScene,
	},
	"materials": {
		description: "Diffuse, hollow glass and fuzzy metal spheres side by side",
		create:      NewMaterialsScene,
	},
	"spheregrid": {
		description: "Grid of small randomly colored spheres",
		create:      func() *Scene { return NewSphereGridScene(42) },
	},
}

// Names returns the names of all built-in scenes in sorted order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin creates the built-in scene with the given name
func Builtin(name string) (*Scene, error) {
	entry, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene: %q", name)
	}
	return entry.create(), nil
}

// NewDefaultScene creates the classic two-sphere world: a small sphere in front
// of the camera sitting on a huge sphere that acts as the ground
func NewDefaultScene() *Scene {
	s := NewScene()

	ground := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	center := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))

	s.AddSphere(core.NewVec3(0, 0, -1), 0.5, center)
	s.AddSphere(core.NewVec3(0, -100.5, -1), 100, ground)

	return s
}

// NewMaterialsScene creates a scene with one sphere of each material.
// The left glass sphere holds an air bubble, which makes it render hollow.
func NewMaterialsScene() *Scene {
	s := NewScene()

	materialGround := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	materialCenter := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	materialLeft := material.NewDielectric(1.50)
	materialBubble := material.NewDielectric(1.00 / 1.50)
	materialRight := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 1.0)

	s.AddSphere(core.NewVec3(0.0, -100.5, -1.0), 100.0, materialGround)
	s.AddSphere(core.NewVec3(0.0, 0.0, -1.2), 0.5, materialCenter)
	s.AddSphere(core.NewVec3(-1.0, 0.0, -1.0), 0.5, materialLeft)
	s.AddSphere(core.NewVec3(-1.0, 0.0, -1.0), 0.4, materialBubble)
	s.AddSphere(core.NewVec3(1.0, 0.0, -1.0), 0.5, materialRight)

	s.SamplingConfig.SamplesPerPixel = 100
	s.SamplingConfig.MaxDepth = 50

	return s
}
