package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p, err := cfg.Power()
	require.NoError(t, err)
	assert.Equal(t, gputypes.PowerPreferenceHighPerformance, p)

	m, err := cfg.Present()
	require.NoError(t, err)
	assert.Equal(t, gputypes.PresentModeFifo, m)

	f, err := cfg.TextureFormat()
	require.NoError(t, err)
	assert.Equal(t, gputypes.TextureFormatUndefined, f)

	_, ok, err := cfg.BackendVariant()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
[window]
title = "demo"
width = 1024

[gpu]
backend = "Vulkan"
power_preference = "low-power"
present_mode = "mailbox"
format = "rgba8unorm"

[log]
level = "debug"
format = "json"
`))
	require.NoError(t, err)

	assert.Equal(t, Window{Title: "demo", Width: 1024, Height: 600}, cfg.Window)

	b, ok, err := cfg.BackendVariant()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, gputypes.BackendVulkan, b)

	p, _ := cfg.Power()
	assert.Equal(t, gputypes.PowerPreferenceLowPower, p)
	m, _ := cfg.Present()
	assert.Equal(t, gputypes.PresentModeMailbox, m)
	f, _ := cfg.TextureFormat()
	assert.Equal(t, gputypes.TextureFormatRGBA8Unorm, f)
	l, _ := cfg.LogLevel()
	assert.Equal(t, slog.LevelDebug, l)
	lf, _ := cfg.LogFormat()
	assert.Equal(t, LogFormatJSON, lf)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"zero width", "[window]\nwidth = 0\n"},
		{"zero height", "[window]\nheight = 0\n"},
		{"unknown key", "[window]\ndepth = 3\n"},
		{"unknown backend", "[gpu]\nbackend = \"glide\"\n"},
		{"unknown power", "[gpu]\npower_preference = \"turbo\"\n"},
		{"unknown present mode", "[gpu]\npresent_mode = \"vsync\"\n"},
		{"unknown format", "[gpu]\nformat = \"rgb565\"\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"bad log format", "[log]\nformat = \"xml\"\n"},
		{"empty manifest", "[shaders]\nmanifest = \" \"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Parse([]byte("[window\n"))
	assert.Error(t, err)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "frameloop.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadResolvesManifest(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "frameloop.toml")
	require.NoError(t, os.WriteFile(file, []byte("[shaders]\nmanifest = \"pipes/manifest.yaml\"\ncompile = true\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pipes", "manifest.yaml"), cfg.Shaders.Manifest)
	assert.True(t, cfg.Shaders.Compile)
}

func TestLoadExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	require.NoError(t, os.WriteFile(filepath.Join(home, "fl.toml"), []byte("[shaders]\nmanifest = \"~/m.yaml\"\n"), 0o600))
	cfg, err := Load("~/fl.toml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "m.yaml"), cfg.Shaders.Manifest)
}

func TestLoadInvalidFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "frameloop.toml")
	require.NoError(t, os.WriteFile(file, []byte("[window]\nwidth = 0\n"), 0o600))
	_, err := Load(file)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, file)
}

func TestNewLoggerNonTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()

	l := NewLogger(f, slog.LevelWarn, LogFormatAuto)
	l.Info("hidden")
	l.Warn("shown", "k", 1)

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"msg":"shown"`)

	assert.IsType(t, &slog.TextHandler{}, NewLogger(f, slog.LevelInfo, LogFormatText).Handler())
	assert.IsType(t, &slog.JSONHandler{}, NewLogger(f, slog.LevelInfo, LogFormatJSON).Handler())
}
