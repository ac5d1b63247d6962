package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/df07/go-raytracer/pkg/config"
	"github.com/df07/go-raytracer/pkg/core"
	"github.com/df07/go-raytracer/pkg/integrator"
	"github.com/df07/go-raytracer/pkg/loaders"
	"github.com/df07/go-raytracer/pkg/output"
	"github.com/df07/go-raytracer/pkg/renderer"
	"github.com/df07/go-raytracer/pkg/scene"
)

// options holds the parsed command line
type options struct {
	sceneType string
	config    renderer.Config // Zero fields keep scene defaults
	depth     int             // -1 keeps the scene default
	shading   string
	seed      int64 // -1 uses RAYTRACER_SEED
	out       string
	thumbnail uint
	upload    bool
	list      bool
	help      bool
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.sceneType, "scene", "default", "Built-in scene name or path to a .json scene file")
	fs.IntVar(&opts.config.Width, "width", 0, "Image width in pixels (0 = scene default)")
	fs.Float64Var(&opts.config.AspectRatio, "aspect", 0, "Aspect ratio width/height (0 = scene default)")
	fs.IntVar(&opts.config.SamplesPerPixel, "samples", 0, "Samples per pixel (0 = scene default)")
	fs.IntVar(&opts.depth, "depth", -1, "Maximum bounce depth (-1 = scene default)")
	fs.Float64Var(&opts.config.Gamma, "gamma", 0, "Display gamma (0 = 2.0)")
	fs.StringVar(&opts.shading, "shading", "path", "Shading: 'path' (path tracing) or 'normals'")
	fs.Int64Var(&opts.seed, "seed", -1, "Random seed (-1 = RAYTRACER_SEED or 42)")
	fs.StringVar(&opts.out, "out", "", "Output file (.ppm, .png, .jpg, ...) or '-' for PPM on stdout")
	fs.UintVar(&opts.thumbnail, "thumbnail", 0, "Also save a PNG thumbnail no larger than this size")
	fs.BoolVar(&opts.upload, "upload", false, "Upload the render to the configured S3 bucket")
	fs.BoolVar(&opts.list, "list", false, "List available scenes and exit")
	fs.BoolVar(&opts.help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return opts, fs, nil
}

func main() {
	opts, fs, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if opts.help {
		printHelp(fs)
		return
	}

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if opts.list {
		if err := listScenes(os.Stdout, cfg.ScenesDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing scenes: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(opts, cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp(fs *flag.FlagSet) {
	fmt.Println("Raytracer")
	fmt.Println("Usage: raytracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	fs.SetOutput(os.Stdout)
	fs.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	for _, info := range scene.BuiltinScenes() {
		fmt.Printf("  %-12s - %s\n", info.ID, info.Description)
	}
	fmt.Println("  <file>.json  - Scene description file")
	fmt.Println()
	fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.ppm unless -out is given")
}

func listScenes(w io.Writer, scenesDir string) error {
	response, err := scene.ListScenes(scenesDir)
	if err != nil {
		return err
	}
	for _, group := range response.Groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			fmt.Fprintf(w, "  %-28s %s\n", info.ID, info.Description)
		}
	}
	return nil
}

// run renders one image according to opts. Progress goes to stderr when the
// image itself is written to stdout.
func run(opts *options, cfg *config.Config, stdout io.Writer) error {
	renderID := uuid.New().String()

	selectedScene, err := createScene(opts.sceneType)
	if err != nil {
		return err
	}

	renderConfig := buildRenderConfig(selectedScene, opts)

	raytracer, err := renderer.NewRaytracer(selectedScene, renderConfig)
	if err != nil {
		return err
	}

	shading, ok := integrator.New(opts.shading)
	if !ok {
		return fmt.Errorf("unknown shading mode: %q", opts.shading)
	}
	raytracer.SetIntegrator(shading)

	raytracer.SetSampler(core.NewSeededSampler(renderSeed(opts, cfg)))

	toStdout := opts.out == "-"
	var logger core.Logger = renderer.NewDefaultLogger()
	if toStdout {
		logger = renderer.NewStderrLogger()
	}
	raytracer.SetLogger(logger)

	logger.Printf("Render %s: scene %s, %dx%d, %d samples, depth %d\n",
		renderID, opts.sceneType, raytracer.Width(), raytracer.Height(),
		renderConfig.SamplesPerPixel, renderConfig.MaxDepth)

	img, stats := raytracer.RenderPass()
	logger.Printf("Render completed in %v (average luminance %.3f)\n", stats.Duration, stats.AverageLuminance)

	if toStdout {
		return output.EncodePPM(stdout, img)
	}

	filename := opts.out
	if filename == "" {
		outputDir := createOutputDir(cfg.OutputDir, opts.sceneType)
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
		timestamp := time.Now().Format("20060102_150405")
		filename = filepath.Join(outputDir, fmt.Sprintf("render_%s.ppm", timestamp))
	}

	if err := output.SaveImage(filename, img); err != nil {
		return err
	}
	logger.Printf("Render saved as %s\n", filename)

	if opts.thumbnail > 0 {
		thumbPath, err := output.SaveThumbnail(filename, img, opts.thumbnail)
		if err != nil {
			return err
		}
		logger.Printf("Thumbnail saved as %s\n", thumbPath)
	}

	if opts.upload {
		if !cfg.S3Enabled() {
			return fmt.Errorf("-upload requires RAYTRACER_S3_BUCKET")
		}
		publisher, err := output.NewS3Publisher(cfg.S3)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("error reading render for upload: %w", err)
		}
		key, err := publisher.Publish(context.Background(), renderID+"/"+filepath.Base(filename), data)
		if err != nil {
			return err
		}
		logger.Printf("Uploaded to s3://%s/%s\n", cfg.S3.Bucket, key)
	}

	return nil
}

// buildRenderConfig layers defaults, scene recommendations and flags
func buildRenderConfig(s *scene.Scene, opts *options) renderer.Config {
	renderConfig := renderer.MergeConfig(renderer.ConfigFromScene(s), opts.config)
	if opts.depth >= 0 {
		renderConfig.MaxDepth = opts.depth
	}
	return renderConfig
}

// renderSeed picks the sampler seed. A negative -seed falls back to the
// configured seed; zero is a valid explicit seed.
func renderSeed(opts *options, cfg *config.Config) int64 {
	if opts.seed < 0 {
		return cfg.Seed
	}
	return opts.seed
}

// createScene returns a built-in scene by name or loads a .json scene file
func createScene(sceneType string) (*scene.Scene, error) {
	if sceneType == "" {
		return nil, fmt.Errorf("scene name cannot be empty")
	}
	if loaders.IsSceneFile(sceneType) {
		return loaders.LoadScene(sceneType)
	}
	return scene.Builtin(sceneType)
}

// createOutputDir returns the directory renders of sceneType are saved to.
// Scene files use their base name without extension.
func createOutputDir(outputRoot, sceneType string) string {
	name := sceneType
	if loaders.IsSceneFile(sceneType) {
		base := filepath.Base(sceneType)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return filepath.Join(outputRoot, name)
}
