// Package config reads focalstats settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by FromEnv.
const (
	EnvExifTool        = "FOCALSTATS_EXIFTOOL"
	EnvExifToolTimeout = "FOCALSTATS_EXIFTOOL_TIMEOUT"
	EnvWorkers         = "FOCALSTATS_WORKERS"
	EnvCropFile        = "FOCALSTATS_CROP_FILE"
	EnvDisableExifTool = "FOCALSTATS_DISABLE_EXIFTOOL"
)

// Config holds the extraction settings shared by the commands.
type Config struct {
	ExifTool        string
	ExifToolTimeout time.Duration
	Workers         int
	CropFile        string
	DisableExifTool bool
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		ExifTool:        "exiftool",
		ExifToolTimeout: 5 * time.Minute,
		Workers:         runtime.NumCPU(),
	}
}

// Load applies the given .env files (default ".env") to the process
// environment, then reads the configuration from it. Missing files are
// ignored; variables already set in the environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv reads the configuration from the environment alone.
func FromEnv() (Config, error) {
	cfg := Default()

	if v := os.Getenv(EnvExifTool); v != "" {
		cfg.ExifTool = v
	}
	cfg.CropFile = os.Getenv(EnvCropFile)

	if v := os.Getenv(EnvExifToolTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvExifToolTimeout, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("%s: must be positive, got %s", EnvExifToolTimeout, v)
		}
		cfg.ExifToolTimeout = d
	}

	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		if n < 1 {
			return Config{}, fmt.Errorf("%s: must be at least 1, got %d", EnvWorkers, n)
		}
		cfg.Workers = n
	}

	if v := os.Getenv(EnvDisableExifTool); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvDisableExifTool, err)
		}
		cfg.DisableExifTool = b
	}

	return cfg, nil
}
