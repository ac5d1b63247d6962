package renderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/df07/go-raytracer/pkg/core"
	"github.com/df07/go-raytracer/pkg/integrator"
	"github.com/df07/go-raytracer/pkg/scene"
)

// colorIntensity is the range linear colors are clamped to before scaling
// to bytes. The upper bound keeps 256*c below 256.
var colorIntensity = core.NewInterval(0.000, 0.999)

// Raytracer handles the rendering process
type Raytracer struct {
	scene      *scene.Scene
	camera     *Camera
	config     Config
	integrator integrator.Integrator
	sampler    core.Sampler
	logger     core.Logger
}

// NewRaytracer creates a new raytracer for scene. It path traces with a
// sampler seeded with 42 and discards log output until told otherwise.
func NewRaytracer(s *scene.Scene, config Config) (*Raytracer, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: scene is nil", ErrInvalidConfig)
	}

	camera, err := NewCamera(config)
	if err != nil {
		return nil, err
	}

	return &Raytracer{
		scene:      s,
		camera:     camera,
		config:     config,
		integrator: integrator.NewPathTracingIntegrator(),
		sampler:    core.NewSeededSampler(42),
		logger:     core.NopLogger{},
	}, nil
}

// SetSampler replaces the random source used for jitter and scattering
func (rt *Raytracer) SetSampler(sampler core.Sampler) {
	rt.sampler = sampler
}

// SetIntegrator replaces the light transport algorithm
func (rt *Raytracer) SetIntegrator(integrator integrator.Integrator) {
	rt.integrator = integrator
}

// SetLogger sets where progress messages go
func (rt *Raytracer) SetLogger(logger core.Logger) {
	rt.logger = logger
}

// Width returns the image width in pixels
func (rt *Raytracer) Width() int { return rt.camera.Width }

// Height returns the image height in pixels
func (rt *Raytracer) Height() int { return rt.camera.Height }

// Config returns the configuration the raytracer was built with
func (rt *Raytracer) Config() Config { return rt.config }

// RenderPixel returns the averaged linear color of pixel (i, j)
func (rt *Raytracer) RenderPixel(i, j int) core.Vec3 {
	var stats PixelStats
	for sample := 0; sample < rt.config.SamplesPerPixel; sample++ {
		ray := rt.camera.GetRay(i, j, rt.sampler)
		stats.AddSample(rt.integrator.RayColor(ray, rt.scene, rt.sampler, rt.config.MaxDepth))
	}
	return stats.GetColor()
}

// RenderPass renders every pixel, top row first and left to right within a
// row, and returns the gamma-corrected image
func (rt *Raytracer) RenderPass() (*image.RGBA, RenderStats) {
	img, stats, _ := rt.RenderPassContext(context.Background())
	return img, stats
}

// RenderPassContext is RenderPass with cancellation. ctx is checked before
// each scanline; on cancellation the partial image is returned with ctx.Err().
// Pixels whose averaged color is NaN or infinite are logged, counted in the
// stats and written as black.
func (rt *Raytracer) RenderPassContext(ctx context.Context) (*image.RGBA, RenderStats, error) {
	width, height := rt.camera.Width, rt.camera.Height
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	startTime := time.Now()
	nonFinite := 0

	for j := 0; j < height; j++ {
		if err := ctx.Err(); err != nil {
			rt.logger.Printf("\rRender cancelled with %d scanlines remaining\n", height-j)
			return img, RenderStats{
				TotalPixels:  j * width,
				TotalSamples: j * width * rt.config.SamplesPerPixel,
				Duration:     time.Since(startTime),
			}, err
		}

		rt.logger.Printf("\rScanlines remaining: %d ", height-j)
		for i := 0; i < width; i++ {
			c := rt.RenderPixel(i, j)
			if !isFinite(c) {
				nonFinite++
				rt.logger.Printf("\rWarning: pixel (%d, %d) has non-finite color %v\n", i, j, c)
				c = core.Vec3{}
			}
			img.SetRGBA(i, j, ColorToRGBA(c, rt.config.Gamma))
		}
	}

	stats := RenderStats{
		TotalPixels:      width * height,
		TotalSamples:     width * height * rt.config.SamplesPerPixel,
		Duration:         time.Since(startTime),
		AverageLuminance: CalculateAverageLuminance(img),
		NonFinitePixels:  nonFinite,
	}
	rt.logger.Printf("\rDone. %d pixels, %d samples in %v\n", stats.TotalPixels, stats.TotalSamples, stats.Duration)

	return img, stats, nil
}

func isFinite(c core.Vec3) bool {
	for _, x := range [3]float64{c.X, c.Y, c.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// ColorToRGBA converts a linear color to bytes: gamma correction, clamping to
// [0, 0.999], then scaling by 256 and truncating. A NaN component has no
// byte value and panics.
func ColorToRGBA(c core.Vec3, gamma float64) color.RGBA {
	return color.RGBA{
		R: toByte(linearToGamma(c.X, gamma)),
		G: toByte(linearToGamma(c.Y, gamma)),
		B: toByte(linearToGamma(c.Z, gamma)),
		A: 255,
	}
}

func toByte(x float64) uint8 {
	return uint8(int(256 * colorIntensity.Clamp(x)))
}

// linearToGamma raises x to 1/gamma. Gamma 2 uses an exact square root and
// gamma 1 leaves the value untouched. Non-positive inputs map to 0.
func linearToGamma(x, gamma float64) float64 {
	if math.IsNaN(x) {
		panic("renderer: cannot convert a NaN color component")
	}
	if x <= 0 {
		return 0
	}
	switch gamma {
	case 1:
		return x
	case 2:
		return math.Sqrt(x)
	default:
		return math.Pow(x, 1/gamma)
	}
}
