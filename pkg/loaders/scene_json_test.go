package loaders

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-raytracer/pkg/core"
	"github.com/df07/go-raytracer/pkg/material"
)

const threeSpheres = `{
  "name": "Three Spheres",
  "camera": {"width": 320, "samplesPerPixel": 16},
  "background": {"top": [0.2, 0.3, 0.9], "bottom": [1, 1, 1]},
  "materials": {
    "ground": {"type": "lambertian", "albedo": [0.8, 0.8, 0.0]},
    "glass":  {"type": "dielectric", "ior": 1.5},
    "gold":   {"type": "metal", "albedo": [0.8, 0.6, 0.2], "fuzz": 3.0}
  },
  "spheres": [
    {"center": [0, -100.5, -1], "radius": 100, "material": "ground"},
    {"center": [-1, 0, -1], "radius": 0.5, "material": "glass"},
    {"center": [1, 0, -1], "radius": 0.5, "material": "gold"},
    {"center": [0, 0, -2], "radius": 0.5, "material": "gold"}
  ]
}`

func TestParseScene(t *testing.T) {
	s, err := ParseScene(strings.NewReader(threeSpheres))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if s.GetPrimitiveCount() != 4 {
		t.Fatalf("Expected 4 spheres, got %d", s.GetPrimitiveCount())
	}
	if s.SamplingConfig.Width != 320 || s.SamplingConfig.SamplesPerPixel != 16 {
		t.Errorf("Expected camera overrides, got %+v", s.SamplingConfig)
	}
	if s.SamplingConfig.MaxDepth != 50 {
		t.Errorf("Expected default max depth 50, got %d", s.SamplingConfig.MaxDepth)
	}
	if s.TopColor != core.NewVec3(0.2, 0.3, 0.9) {
		t.Errorf("Expected custom top color, got %v", s.TopColor)
	}

	forward := core.NewInterval(0.001, math.Inf(1))

	// Spheres naming the same material share one instance
	hitA, okA := s.Hit(core.NewRay(core.Vec3{}, core.NewVec3(1, 0, -1)), forward)
	hitB, okB := s.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), forward)
	if !okA || !okB {
		t.Fatal("Expected both metal spheres to be hit")
	}
	if hitA.Material != hitB.Material {
		t.Error("Expected spheres to share the named material")
	}

	metal, isMetal := hitA.Material.(*material.Metal)
	if !isMetal {
		t.Fatalf("Expected *material.Metal, got %T", hitA.Material)
	}
	if metal.Fuzzness != 1.0 {
		t.Errorf("Expected fuzz clamped to 1.0, got %f", metal.Fuzzness)
	}
}

func TestParseScene_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		errText string
	}{
		{
			name:    "invalid json",
			input:   `{"spheres": [`,
			errText: "decoding",
		},
		{
			name:    "unknown field",
			input:   `{"lights": []}`,
			errText: "decoding",
		},
		{
			name:    "unknown material reference",
			input:   `{"spheres": [{"center": [0,0,-1], "radius": 0.5, "material": "missing"}]}`,
			errText: "unknown material",
		},
		{
			name:    "zero radius",
			input:   `{"materials": {"m": {"type": "lambertian"}}, "spheres": [{"center": [0,0,-1], "radius": 0, "material": "m"}]}`,
			errText: "radius",
		},
		{
			name:    "negative radius",
			input:   `{"materials": {"m": {"type": "lambertian"}}, "spheres": [{"center": [0,0,-1], "radius": -2, "material": "m"}]}`,
			errText: "radius",
		},
		{
			name:    "unsupported material",
			input:   `{"materials": {"m": {"type": "emissive"}}}`,
			errText: "unsupported material type",
		},
		{
			name:    "dielectric without ior",
			input:   `{"materials": {"m": {"type": "dielectric"}}}`,
			errText: "index of refraction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScene(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error containing %q, got %v", tt.errText, err)
			}
		})
	}
}

func TestParseScene_Empty(t *testing.T) {
	s, err := ParseScene(strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.GetPrimitiveCount() != 0 {
		t.Errorf("Expected empty world, got %d shapes", s.GetPrimitiveCount())
	}
	if s.TopColor != core.NewVec3(0.5, 0.7, 1.0) {
		t.Errorf("Expected default sky, got %v", s.TopColor)
	}
}

func TestLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "three.json")
	if err := os.WriteFile(path, []byte(threeSpheres), 0644); err != nil {
		t.Fatalf("Failed to write scene: %v", err)
	}

	s, err := LoadScene(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.GetPrimitiveCount() != 4 {
		t.Errorf("Expected 4 spheres, got %d", s.GetPrimitiveCount())
	}

	if _, err := LoadScene(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative json", "scenes/three.json", false},
		{"absolute json", "/tmp/scene.json", false},
		{"uppercase extension", "scenes/THREE.JSON", false},
		{"empty", "", true},
		{"traversal", "../../etc/passwd.json", true},
		{"wrong extension", "scenes/cornell.pbrt", true},
		{"null byte", "scenes/a\x00.json", true},
		{"too long", "scenes/" + strings.Repeat("a", 600) + ".json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFilePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFilePath(%q) error = %v, wantErr %t", tt.path, err, tt.wantErr)
			}
		})
	}
}
