package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigError reports a rejected configuration field. A job is never
// created from a config that fails validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// ExtractionConfig holds all parameters for one extraction job.
// It is supplied once per job and read-only thereafter.
type ExtractionConfig struct {
	PatchWidth           int     `json:"patch_width"`
	PatchHeight          int     `json:"patch_height"`
	StrideX              int     `json:"stride_x"`
	StrideY              int     `json:"stride_y"`
	MinimumCoverage      float64 `json:"minimum_coverage"`
	MaxPatchesPerImage   int     `json:"max_patches_per_image"`
	IncludeBorderPatches bool    `json:"include_border_patches"`
	DryRun               bool    `json:"dry_run"`

	SourceRoot      string `json:"source_root"`
	DestinationRoot string `json:"destination_root"`
	ImagesSubdir    string `json:"images_subdir"`
	MasksSubdir     string `json:"masks_subdir"`

	SaveFormat string `json:"save_format"`
	Quality    int    `json:"quality"`
	Lossless   bool   `json:"lossless"`

	RasterExtensions []string `json:"raster_extensions"`
}

// Default returns a configuration with default values
func Default() *ExtractionConfig {
	return &ExtractionConfig{
		PatchWidth:           256,
		PatchHeight:          256,
		StrideX:              256,
		StrideY:              256,
		MinimumCoverage:      0.0,
		MaxPatchesPerImage:   0,
		IncludeBorderPatches: true,
		DryRun:               false,
		ImagesSubdir:         "images",
		MasksSubdir:          "masks",
		SaveFormat:           "png",
		Quality:              90,
		Lossless:             false,
		RasterExtensions:     []string{"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff", "webp"},
	}
}

// saveFormats are the supported output encodings.
var saveFormats = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"tif":  true,
	"webp": true,
}

// Validate checks if the configuration is valid
func (c *ExtractionConfig) Validate() error {
	if c.PatchWidth <= 0 {
		return &ConfigError{Field: "patch_width", Reason: "must be positive"}
	}
	if c.PatchHeight <= 0 {
		return &ConfigError{Field: "patch_height", Reason: "must be positive"}
	}
	if c.StrideX <= 0 {
		return &ConfigError{Field: "stride_x", Reason: "must be positive"}
	}
	if c.StrideY <= 0 {
		return &ConfigError{Field: "stride_y", Reason: "must be positive"}
	}
	if c.MinimumCoverage < 0 || c.MinimumCoverage > 1 {
		return &ConfigError{Field: "minimum_coverage", Reason: "must be between 0 and 1"}
	}
	if c.MaxPatchesPerImage < 0 {
		return &ConfigError{Field: "max_patches_per_image", Reason: "must not be negative"}
	}
	if c.SourceRoot == "" {
		return &ConfigError{Field: "source_root", Reason: "is required"}
	}
	if !c.DryRun && c.DestinationRoot == "" {
		return &ConfigError{Field: "destination_root", Reason: "is required unless dry_run is set"}
	}
	if c.ImagesSubdir == "" {
		return &ConfigError{Field: "images_subdir", Reason: "is required"}
	}
	if c.MasksSubdir == "" {
		return &ConfigError{Field: "masks_subdir", Reason: "is required"}
	}
	if !saveFormats[strings.ToLower(c.SaveFormat)] {
		return &ConfigError{Field: "save_format", Reason: "must be one of png, jpg, tif, webp"}
	}
	if c.Quality < 1 || c.Quality > 100 {
		return &ConfigError{Field: "quality", Reason: "must be between 1 and 100"}
	}
	if len(c.RasterExtensions) == 0 {
		return &ConfigError{Field: "raster_extensions", Reason: "cannot be empty"}
	}
	return nil
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*ExtractionConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a JSON file
func (c *ExtractionConfig) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "patch-extractor", "config.json")
}
