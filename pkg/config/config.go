package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/df07/go-raytracer/pkg/output"
)

// Config holds process-level settings read from the environment
type Config struct {
	OutputDir string          // Directory renders are written to
	ScenesDir string          // Directory scanned for *.json scene files
	Seed      int64           // Random seed for reproducible renders
	Port      int             // Web server port
	S3        output.S3Config // Optional publishing target
}

// Load reads <rootDir>/.env if it exists, then builds the config from the
// environment. Variables already set in the environment win over the file.
func Load(rootDir string) (*Config, error) {
	envFile := filepath.Join(rootDir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	seed, err := getEnvInt("RAYTRACER_SEED", 42)
	if err != nil {
		return nil, err
	}
	port, err := getEnvInt("RAYTRACER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("RAYTRACER_PORT out of range: %d", port)
	}

	return &Config{
		OutputDir: getEnv("RAYTRACER_OUTPUT_DIR", "output"),
		ScenesDir: getEnv("RAYTRACER_SCENES_DIR", "scenes"),
		Seed:      seed,
		Port:      int(port),
		S3: output.S3Config{
			Bucket:    os.Getenv("RAYTRACER_S3_BUCKET"),
			Region:    getEnv("RAYTRACER_S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("RAYTRACER_S3_ENDPOINT"),
			AccessKey: os.Getenv("RAYTRACER_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("RAYTRACER_S3_SECRET_KEY"),
			Prefix:    getEnv("RAYTRACER_S3_PREFIX", "renders"),
		},
	}, nil
}

// S3Enabled reports whether a bucket is configured for publishing
func (c *Config) S3Enabled() bool {
	return c.S3.Bucket != ""
}

// Helper to get environment variables with a default value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int64) (int64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
