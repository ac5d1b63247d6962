package renderer

import (
	"context"
	"errors"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/df07/go-raytracer/pkg/core"
	"github.com/df07/go-raytracer/pkg/integrator"
	"github.com/df07/go-raytracer/pkg/material"
	"github.com/df07/go-raytracer/pkg/scene"
)

// MockIntegrator implements integrator.Integrator for testing
type MockIntegrator struct {
	rayColorFn func(ray core.Ray, depth int) core.Vec3
}

func (m MockIntegrator) RayColor(ray core.Ray, s *scene.Scene, sampler core.Sampler, depth int) core.Vec3 {
	return m.rayColorFn(ray, depth)
}

// recordingLogger collects log output
type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.lines = append(l.lines, format)
}

// newSingleSphereScene is one sphere of radius 0.5 straight ahead of the camera
func newSingleSphereScene() *scene.Scene {
	s := scene.NewScene()
	s.AddSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	return s
}

func TestNewRaytracer_Errors(t *testing.T) {
	if _, err := NewRaytracer(nil, DefaultConfig()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for nil scene, got %v", err)
	}

	config := DefaultConfig()
	config.SamplesPerPixel = 0
	if _, err := NewRaytracer(newSingleSphereScene(), config); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for zero samples, got %v", err)
	}
}

func TestColorToRGBA_GammaBounds(t *testing.T) {
	tests := []struct {
		name     string
		color    core.Vec3
		gamma    float64
		expected color.RGBA
	}{
		{"white gamma 2", core.NewVec3(1, 1, 1), 2.0, color.RGBA{255, 255, 255, 255}},
		{"black gamma 2", core.NewVec3(0, 0, 0), 2.0, color.RGBA{0, 0, 0, 255}},
		{"white linear", core.NewVec3(1, 1, 1), 1.0, color.RGBA{255, 255, 255, 255}},
		{"overbright clamps", core.NewVec3(5, 2, 1.5), 2.0, color.RGBA{255, 255, 255, 255}},
		{"negative clamps", core.NewVec3(-1, -0.5, 0), 2.0, color.RGBA{0, 0, 0, 255}},
		{"infinities clamp", core.NewVec3(math.Inf(1), math.Inf(-1), 0), 2.0, color.RGBA{255, 0, 0, 255}},
		{"quarter gamma 2", core.NewVec3(0.25, 0.25, 0.25), 2.0, color.RGBA{128, 128, 128, 255}},
		{"half linear", core.NewVec3(0.5, 0.5, 0.5), 1.0, color.RGBA{128, 128, 128, 255}},
		{"gamma 2.2", core.NewVec3(0.5, 0, 1), 2.2, color.RGBA{uint8(int(256 * math.Pow(0.5, 1/2.2))), 0, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ColorToRGBA(tt.color, tt.gamma)
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestRaytracer_AveragesSamples(t *testing.T) {
	config := Config{Width: 2, AspectRatio: 2.0, SamplesPerPixel: 4, MaxDepth: 3, Gamma: 1}
	rt, err := NewRaytracer(scene.NewScene(), config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Alternate between white and black samples
	calls := 0
	rt.SetIntegrator(MockIntegrator{rayColorFn: func(ray core.Ray, depth int) core.Vec3 {
		if depth != 3 {
			t.Errorf("Expected integrator to receive max depth 3, got %d", depth)
		}
		calls++
		if calls%2 == 0 {
			return core.Vec3{}
		}
		return core.NewVec3(1, 1, 1)
	}})

	color := rt.RenderPixel(0, 0)
	if color != core.NewVec3(0.5, 0.5, 0.5) {
		t.Errorf("Expected average (0.5,0.5,0.5), got %v", color)
	}
	if calls != 4 {
		t.Errorf("Expected 4 samples, got %d", calls)
	}
}

func TestRaytracer_RowMajorOrder(t *testing.T) {
	config := Config{Width: 3, AspectRatio: 1.5, SamplesPerPixel: 1, MaxDepth: 1, Gamma: 1}
	rt, err := NewRaytracer(scene.NewScene(), config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rt.SetSampler(core.NewSequenceSampler(0.5))

	// Record the direction of every primary ray in the order it was traced
	var directions []core.Vec3
	rt.SetIntegrator(MockIntegrator{rayColorFn: func(ray core.Ray, depth int) core.Vec3 {
		directions = append(directions, ray.Direction)
		return core.Vec3{}
	}})

	rt.RenderPass()

	if len(directions) != 6 {
		t.Fatalf("Expected 6 rays for a 3x2 image, got %d", len(directions))
	}
	for n, dir := range directions {
		i, j := n%3, n/3
		expected := rt.camera.PixelCenter(i, j)
		if dir.Subtract(expected).Length() > tolerance {
			t.Errorf("Ray %d: expected pixel (%d,%d) %v, got %v", n, i, j, expected, dir)
		}
	}
}

func TestRaytracer_DepthZeroRendersBlack(t *testing.T) {
	config := Config{Width: 8, AspectRatio: 1, SamplesPerPixel: 2, MaxDepth: 0, Gamma: 2}
	rt, err := NewRaytracer(newSingleSphereScene(), config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	img, stats := rt.RenderPass()
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if c := img.RGBAAt(x, y); c != (color.RGBA{0, 0, 0, 255}) {
				t.Fatalf("Pixel (%d,%d): expected black, got %v", x, y, c)
			}
		}
	}
	if stats.TotalPixels != 64 || stats.TotalSamples != 128 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.AverageLuminance != 0 {
		t.Errorf("Expected zero luminance, got %f", stats.AverageLuminance)
	}
}

func TestRaytracer_LogsScanlines(t *testing.T) {
	config := Config{Width: 4, AspectRatio: 1, SamplesPerPixel: 1, MaxDepth: 1, Gamma: 2}
	rt, err := NewRaytracer(newSingleSphereScene(), config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	logger := &recordingLogger{}
	rt.SetLogger(logger)

	rt.RenderPass()

	scanlines := 0
	for _, line := range logger.lines {
		if strings.Contains(line, "Scanlines remaining") {
			scanlines++
		}
	}
	if scanlines != 4 {
		t.Errorf("Expected one progress line per row (4), got %d", scanlines)
	}
}

func TestRaytracer_Deterministic(t *testing.T) {
	config := Config{Width: 16, AspectRatio: 16.0 / 9.0, SamplesPerPixel: 4, MaxDepth: 5, Gamma: 2}
	render := func() []uint8 {
		rt, err := NewRaytracer(scene.NewMaterialsScene(), config)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		img, _ := rt.RenderPass()
		return img.Pix
	}

	a, b := render(), render()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Renders differ at byte %d: %d vs %d", i, a[i], b[i])
		}
	}
}

// TestRaytracer_EndToEnd renders a single sphere with normal shading and no
// jitter, then checks the center pixel against the facing normal and a corner
// pixel against the sky gradient
func TestRaytracer_EndToEnd(t *testing.T) {
	config := Config{Width: 400, AspectRatio: 16.0 / 9.0, SamplesPerPixel: 1, MaxDepth: 1, Gamma: 1}
	rt, err := NewRaytracer(newSingleSphereScene(), config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rt.SetSampler(core.NewSequenceSampler(0.5))
	rt.SetIntegrator(integrator.NewNormalIntegrator())

	if rt.Width() != 400 || rt.Height() != 225 {
		t.Fatalf("Expected 400x225, got %dx%d", rt.Width(), rt.Height())
	}

	img, _ := rt.RenderPass()

	// Center pixel: normal points back at the camera, 0.5*(n+1) = (0.5,0.5,1.0)
	center := img.RGBAAt(200, 112)
	expectedCenter := [3]int{128, 128, 255}
	got := [3]int{int(center.R), int(center.G), int(center.B)}
	for c := 0; c < 3; c++ {
		if math.Abs(float64(got[c]-expectedCenter[c])) > 2 {
			t.Errorf("Center pixel: expected ~%v, got %v", expectedCenter, got)
			break
		}
	}

	// Corner pixel misses the sphere and shows the sky gradient
	direction := rt.camera.PixelCenter(0, 0).Normalize()
	a := 0.5 * (direction.Y + 1.0)
	sky := core.NewVec3(1, 1, 1).Multiply(1 - a).Add(core.NewVec3(0.5, 0.7, 1.0).Multiply(a))
	toByte := func(v float64) uint8 {
		return uint8(int(256 * math.Max(0, math.Min(0.999, v))))
	}
	expectedCorner := color.RGBA{toByte(sky.X), toByte(sky.Y), toByte(sky.Z), 255}
	if corner := img.RGBAAt(0, 0); corner != expectedCorner {
		t.Errorf("Corner pixel: expected %v, got %v", expectedCorner, corner)
	}
}

func TestColorToRGBA_NaNPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected a panic for a NaN component")
		}
	}()
	ColorToRGBA(core.NewVec3(0.5, math.NaN(), 0.5), 2.0)
}

func TestRaytracer_NonFinitePixels(t *testing.T) {
	config := Config{Width: 3, AspectRatio: 3, SamplesPerPixel: 1, MaxDepth: 1, Gamma: 2}
	rt, err := NewRaytracer(scene.NewScene(), config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	logger := &recordingLogger{}
	rt.SetLogger(logger)

	// Pixels come out NaN, +Inf, then white
	calls := 0
	rt.SetIntegrator(MockIntegrator{rayColorFn: func(ray core.Ray, depth int) core.Vec3 {
		calls++
		switch calls {
		case 1:
			return core.NewVec3(math.NaN(), 0, 0)
		case 2:
			return core.NewVec3(0, math.Inf(1), 0)
		default:
			return core.NewVec3(1, 1, 1)
		}
	}})

	img, stats := rt.RenderPass()

	if stats.NonFinitePixels != 2 {
		t.Errorf("Expected 2 non-finite pixels, got %d", stats.NonFinitePixels)
	}
	black := color.RGBA{0, 0, 0, 255}
	for x := 0; x < 2; x++ {
		if got := img.RGBAAt(x, 0); got != black {
			t.Errorf("Expected pixel (%d, 0) written as black, got %v", x, got)
		}
	}
	if got := img.RGBAAt(2, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("Expected finite pixel to render white, got %v", got)
	}

	warnings := 0
	for _, line := range logger.lines {
		if strings.Contains(line, "non-finite color") {
			warnings++
		}
	}
	if warnings != 2 {
		t.Errorf("Expected 2 warnings, got %d", warnings)
	}
}

func TestRenderPassContext_AlreadyCancelled(t *testing.T) {
	config := Config{Width: 8, AspectRatio: 2, SamplesPerPixel: 1, MaxDepth: 1, Gamma: 2}
	rt, err := NewRaytracer(scene.NewScene(), config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rt.SetIntegrator(MockIntegrator{rayColorFn: func(ray core.Ray, depth int) core.Vec3 {
		t.Error("Expected no samples after cancellation")
		return core.Vec3{}
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, stats, err := rt.RenderPassContext(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if stats.TotalPixels != 0 {
		t.Errorf("Expected 0 pixels rendered, got %d", stats.TotalPixels)
	}
}

func TestRenderPassContext_StopsAtNextScanline(t *testing.T) {
	config := Config{Width: 10, AspectRatio: 1, SamplesPerPixel: 1, MaxDepth: 1, Gamma: 2}
	rt, err := NewRaytracer(scene.NewScene(), config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Cancel partway through the third row
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	rt.SetIntegrator(MockIntegrator{rayColorFn: func(ray core.Ray, depth int) core.Vec3 {
		calls++
		if calls == 25 {
			cancel()
		}
		return core.NewVec3(1, 1, 1)
	}})

	img, stats, err := rt.RenderPassContext(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if calls != 30 {
		t.Errorf("Expected the current row to finish (30 samples), got %d", calls)
	}
	if stats.TotalPixels != 30 {
		t.Errorf("Expected 30 pixels rendered, got %d", stats.TotalPixels)
	}
	if got := img.RGBAAt(0, 2); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("Expected finished rows to be kept, got %v", got)
	}
	if got := img.RGBAAt(0, 3); got.A != 0 {
		t.Errorf("Expected unrendered rows to stay empty, got %v", got)
	}
}

func TestRenderPass_MatchesBackgroundContext(t *testing.T) {
	config := Config{Width: 8, AspectRatio: 2, SamplesPerPixel: 2, MaxDepth: 3, Gamma: 2}
	a, err := NewRaytracer(newSingleSphereScene(), config)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, _ := NewRaytracer(newSingleSphereScene(), config)

	imgA, _ := a.RenderPass()
	imgB, _, err := b.RenderPassContext(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i := range imgA.Pix {
		if imgA.Pix[i] != imgB.Pix[i] {
			t.Fatalf("Renders differ at byte %d", i)
		}
	}
}
