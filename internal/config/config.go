// Package config loads the frameloop demo configuration from a TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is returned for configuration values that fail validation.
var ErrInvalid = errors.New("config: invalid")

// Config is the demo configuration.
//
//	[window]
//	title = "frameloop"
//	width = 800
//	height = 600
//
//	[gpu]
//	backend = "auto"
//	power_preference = "high-performance"
//	present_mode = "fifo"
//	format = "auto"
//
//	[shaders]
//	manifest = "shaders/manifest.yaml"
//	compile = true
//
//	[log]
//	level = "info"
//	format = "auto"
type Config struct {
	Window  Window  `toml:"window"`
	GPU     GPU     `toml:"gpu"`
	Shaders Shaders `toml:"shaders"`
	Log     Log     `toml:"log"`
}

// Window configures the demo window.
type Window struct {
	Title  string `toml:"title"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

// GPU configures device and surface negotiation. Every field accepts
// "auto" or an empty string for the default.
type GPU struct {
	Backend         string `toml:"backend"`
	PowerPreference string `toml:"power_preference"`
	PresentMode     string `toml:"present_mode"`
	Format          string `toml:"format"`
}

// Shaders locates the pipeline manifest.
type Shaders struct {
	// Manifest is the manifest path. A relative path resolves against the
	// directory of the config file.
	Manifest string `toml:"manifest"`

	// Compile recompiles the manifest's sources before loading blobs.
	Compile bool `toml:"compile"`
}

// Log configures the demo logger.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Window:  Window{Title: "frameloop", Width: 800, Height: 600},
		GPU:     GPU{Backend: "auto", PowerPreference: "high-performance", PresentMode: "fifo", Format: "auto"},
		Shaders: Shaders{Manifest: filepath.Join("shaders", "manifest.yaml")},
		Log:     Log{Level: "info", Format: "auto"},
	}
}

// Parse decodes TOML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the file at path. A leading ~ is expanded. A missing file
// yields Default. The shader manifest path is made relative to the
// file's directory.
func Load(path string) (Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: expand %q: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", expanded, err)
	}

	manifest, err := homedir.Expand(cfg.Shaders.Manifest)
	if err != nil {
		return Config{}, fmt.Errorf("config: expand %q: %w", cfg.Shaders.Manifest, err)
	}
	if !filepath.IsAbs(manifest) {
		manifest = filepath.Join(filepath.Dir(expanded), manifest)
	}
	cfg.Shaders.Manifest = manifest
	return cfg, nil
}

// Validate checks sizes and enumerated names.
func (c Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if strings.TrimSpace(c.Shaders.Manifest) == "" {
		return fmt.Errorf("%w: empty shader manifest path", ErrInvalid)
	}
	if _, _, err := c.BackendVariant(); err != nil {
		return err
	}
	if _, err := c.Power(); err != nil {
		return err
	}
	if _, err := c.Present(); err != nil {
		return err
	}
	if _, err := c.TextureFormat(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if _, err := c.LogFormat(); err != nil {
		return err
	}
	return nil
}
