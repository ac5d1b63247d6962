package renderer

import (
	"github.com/df07/go-raytracer/pkg/core"
)

// Viewport geometry: a 2 unit tall window one unit in front of the camera
const (
	viewportHeight = 2.0
	focalLength    = 1.0
)

// Camera generates rays for rendering. All fields are derived once at
// construction and never change during a render.
type Camera struct {
	Width  int // Image width in pixels
	Height int // Image height in pixels

	center      core.Vec3 // Camera position
	pixel00     core.Vec3 // Center of the top-left pixel
	pixelDeltaU core.Vec3 // Offset from one pixel to the next column
	pixelDeltaV core.Vec3 // Offset from one pixel to the next row
}

// NewCamera creates a camera at the origin looking down -z.
// The viewport width uses the actual width/height ratio so pixels stay square.
func NewCamera(config Config) (*Camera, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	width := config.Width
	height := config.ImageHeight()

	viewportWidth := viewportHeight * float64(width) / float64(height)
	center := core.NewVec3(0, 0, 0)

	// Viewport edges: u runs left to right, v runs top to bottom
	viewportU := core.NewVec3(viewportWidth, 0, 0)
	viewportV := core.NewVec3(0, -viewportHeight, 0)

	pixelDeltaU := viewportU.Divide(float64(width))
	pixelDeltaV := viewportV.Divide(float64(height))

	viewportUpperLeft := center.
		Subtract(core.NewVec3(0, 0, focalLength)).
		Subtract(viewportU.Multiply(0.5)).
		Subtract(viewportV.Multiply(0.5))
	pixel00 := viewportUpperLeft.Add(pixelDeltaU.Add(pixelDeltaV).Multiply(0.5))

	return &Camera{
		Width:       width,
		Height:      height,
		center:      center,
		pixel00:     pixel00,
		pixelDeltaU: pixelDeltaU,
		pixelDeltaV: pixelDeltaV,
	}, nil
}

// GetRay returns a ray from the camera center through a random point inside
// pixel (i, j). The sampler's 2D sample in [0,1)^2 is shifted to [-0.5,0.5)^2
// so a constant 0.5 sample aims exactly at the pixel center.
func (c *Camera) GetRay(i, j int, sampler core.Sampler) core.Ray {
	offset := sampler.Get2D()
	pixelSample := c.pixel00.
		Add(c.pixelDeltaU.Multiply(float64(i) + offset.X - 0.5)).
		Add(c.pixelDeltaV.Multiply(float64(j) + offset.Y - 0.5))

	return core.NewRay(c.center, pixelSample.Subtract(c.center))
}

// PixelCenter returns the world position of the center of pixel (i, j)
func (c *Camera) PixelCenter(i, j int) core.Vec3 {
	return c.pixel00.
		Add(c.pixelDeltaU.Multiply(float64(i))).
		Add(c.pixelDeltaV.Multiply(float64(j)))
}
