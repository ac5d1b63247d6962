package renderer

import (
	"errors"
	"fmt"

	"github.com/df07/go-raytracer/pkg/scene"
)

// ErrInvalidConfig is returned (wrapped) for any render configuration that
// cannot produce an image
var ErrInvalidConfig = errors.New("invalid render configuration")

// Config contains the settings for a single render
type Config struct {
	Width           int     // Image width in pixels
	AspectRatio     float64 // Nominal width / height
	SamplesPerPixel int     // Number of jittered rays per pixel
	MaxDepth        int     // Maximum ray bounce depth, 0 renders black
	Gamma           float64 // Display gamma; 2.0 is a square root, 1.0 is linear
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Width:           400,
		AspectRatio:     16.0 / 9.0,
		SamplesPerPixel: 100,
		MaxDepth:        50,
		Gamma:           2.0,
	}
}

// ConfigFromScene returns the default config overridden by the scene's
// recommended sampling settings
func ConfigFromScene(s *scene.Scene) Config {
	return MergeConfig(DefaultConfig(), Config{
		Width:           s.SamplingConfig.Width,
		AspectRatio:     s.SamplingConfig.AspectRatio,
		SamplesPerPixel: s.SamplingConfig.SamplesPerPixel,
		MaxDepth:        s.SamplingConfig.MaxDepth,
	})
}

// MergeConfig merges override values into base config.
// Only non-zero values in override are applied.
func MergeConfig(base, override Config) Config {
	result := base

	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.SamplesPerPixel != 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth != 0 {
		result.MaxDepth = override.MaxDepth
	}
	if override.Gamma != 0 {
		result.Gamma = override.Gamma
	}

	return result
}

// Validate reports the first setting that cannot produce an image
func (c Config) Validate() error {
	switch {
	case c.Width <= 0:
		return fmt.Errorf("%w: width must be positive, got %d", ErrInvalidConfig, c.Width)
	case !(c.AspectRatio > 0):
		return fmt.Errorf("%w: aspect ratio must be positive, got %v", ErrInvalidConfig, c.AspectRatio)
	case c.SamplesPerPixel < 1:
		return fmt.Errorf("%w: samples per pixel must be at least 1, got %d", ErrInvalidConfig, c.SamplesPerPixel)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: max depth must not be negative, got %d", ErrInvalidConfig, c.MaxDepth)
	case !(c.Gamma > 0):
		return fmt.Errorf("%w: gamma must be positive, got %v", ErrInvalidConfig, c.Gamma)
	}
	return nil
}

// ImageHeight returns floor(width / aspect ratio), at least 1
func (c Config) ImageHeight() int {
	height := int(float64(c.Width) / c.AspectRatio)
	if height < 1 {
		height = 1
	}
	return height
}
