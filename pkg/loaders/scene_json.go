package loaders

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-raytracer/pkg/core"
	"github.com/df07/go-raytracer/pkg/material"
	"github.com/df07/go-raytracer/pkg/scene"
)

// SceneFile is the on-disk description of a scene
type SceneFile struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Group       string                  `json:"group"`
	Camera      CameraDesc              `json:"camera"`
	Background  *BackgroundDesc         `json:"background"`
	Materials   map[string]MaterialDesc `json:"materials"`
	Spheres     []SphereDesc            `json:"spheres"`
}

// CameraDesc holds the recommended render settings. Zero fields keep the defaults.
type CameraDesc struct {
	Width           int     `json:"width"`
	AspectRatio     float64 `json:"aspectRatio"`
	SamplesPerPixel int     `json:"samplesPerPixel"`
	MaxDepth        int     `json:"maxDepth"`
}

// BackgroundDesc overrides the sky gradient
type BackgroundDesc struct {
	Top    [3]float64 `json:"top"`
	Bottom [3]float64 `json:"bottom"`
}

// MaterialDesc describes one entry of the material table
type MaterialDesc struct {
	Type   string     `json:"type"`   // "lambertian", "metal" or "dielectric"
	Albedo [3]float64 `json:"albedo"` // lambertian and metal
	Fuzz   float64    `json:"fuzz"`   // metal, clamped to [0,1]
	IOR    float64    `json:"ior"`    // dielectric
}

// SphereDesc places a sphere and names its material
type SphereDesc struct {
	Center   [3]float64 `json:"center"`
	Radius   float64    `json:"radius"`
	Material string     `json:"material"`
}

// LoadScene reads and builds a scene from a JSON file
func LoadScene(filename string) (*scene.Scene, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	s, err := ParseScene(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// ParseScene decodes a JSON scene description and builds the scene.
// Every material is created once and shared by all spheres that name it.
func ParseScene(reader io.Reader) (*scene.Scene, error) {
	var desc SceneFile
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&desc); err != nil {
		return nil, fmt.Errorf("error decoding scene: %w", err)
	}
	return BuildScene(desc)
}

// BuildScene converts a decoded description into a scene
func BuildScene(desc SceneFile) (*scene.Scene, error) {
	materials := make(map[string]material.Material, len(desc.Materials))
	for name, md := range desc.Materials {
		mat, err := buildMaterial(md)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		materials[name] = mat
	}

	s := scene.NewScene()
	for i, sd := range desc.Spheres {
		if !(sd.Radius > 0) {
			return nil, fmt.Errorf("sphere %d: radius must be positive, got %v", i, sd.Radius)
		}
		mat, ok := materials[sd.Material]
		if !ok {
			return nil, fmt.Errorf("sphere %d: unknown material %q", i, sd.Material)
		}
		s.AddSphere(vec(sd.Center), sd.Radius, mat)
	}

	if desc.Background != nil {
		s.TopColor = vec(desc.Background.Top)
		s.BottomColor = vec(desc.Background.Bottom)
	}

	s.SamplingConfig = mergeSampling(s.SamplingConfig, desc.Camera)

	return s, nil
}

func buildMaterial(md MaterialDesc) (material.Material, error) {
	switch strings.ToLower(md.Type) {
	case "lambertian", "diffuse":
		return material.NewLambertian(vec(md.Albedo)), nil
	case "metal":
		return material.NewMetal(vec(md.Albedo), md.Fuzz), nil
	case "dielectric", "glass":
		if !(md.IOR > 0) {
			return nil, fmt.Errorf("index of refraction must be positive, got %v", md.IOR)
		}
		return material.NewDielectric(md.IOR), nil
	default:
		return nil, fmt.Errorf("unsupported material type %q", md.Type)
	}
}

func mergeSampling(base scene.SamplingConfig, cam CameraDesc) scene.SamplingConfig {
	if cam.Width > 0 {
		base.Width = cam.Width
	}
	if cam.AspectRatio > 0 {
		base.AspectRatio = cam.AspectRatio
	}
	if cam.SamplesPerPixel > 0 {
		base.SamplesPerPixel = cam.SamplesPerPixel
	}
	if cam.MaxDepth > 0 {
		base.MaxDepth = cam.MaxDepth
	}
	return base
}

func vec(v [3]float64) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// IsSceneFile reports whether name looks like a path to a JSON scene file
// rather than the name of a built-in scene
func IsSceneFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".json")
}

// validateFilePath validates a file path for security issues
func validateFilePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	// Check for null bytes (could indicate path manipulation)
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}

	cleanPath := filepath.Clean(filename)

	if strings.Contains(filepath.ToSlash(cleanPath), "../") || cleanPath == ".." {
		return fmt.Errorf("invalid file path: directory traversal not allowed")
	}

	if !IsSceneFile(cleanPath) {
		return fmt.Errorf("invalid file type: only .json files are allowed")
	}

	if len(cleanPath) > 512 {
		return fmt.Errorf("file path too long: maximum 512 characters allowed")
	}

	return nil
}
