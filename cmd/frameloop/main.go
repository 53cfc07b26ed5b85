// Command frameloop opens a window and renders a triangle with the
// frameloop render state machine.
//
// Space toggles between the two pipeline variants, moving the cursor
// changes the clear color and Escape quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/allbackends" // Register Vulkan, Metal, DX12, GL and noop backends

	"github.com/gogpu/frameloop"
	"github.com/gogpu/frameloop/internal/config"
	"github.com/gogpu/frameloop/internal/loop"
	"github.com/gogpu/frameloop/internal/window"
)

func init() {
	// glfw and the surface must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	var (
		configPath = flag.String("config", "frameloop.toml", "configuration file")
		width      = flag.Int("width", 0, "window width (overrides config)")
		height     = flag.Int("height", 0, "window height (overrides config)")
		manifest   = flag.String("shaders", "", "shader manifest (overrides config)")
		compile    = flag.Bool("compile", false, "compile shader sources before loading")
		backend    = flag.String("backend", "", "backend: auto, vulkan, metal, dx12, gl, noop")
		level      = flag.String("log-level", "", "log level: debug, info, warn, error")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	applyFlags(&cfg, *width, *height, *manifest, *compile, *backend, *level)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := newLogger(cfg)
	frameloop.SetLogger(logger)

	if err := run(cfg); err != nil {
		logger.Error("frameloop exited", "error", err, "severity", frameloop.Classify(err))
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config, width, height int, manifest string, compile bool, backend, level string) {
	if width > 0 {
		cfg.Window.Width = uint32(width)
	}
	if height > 0 {
		cfg.Window.Height = uint32(height)
	}
	if manifest != "" {
		cfg.Shaders.Manifest = manifest
	}
	if compile {
		cfg.Shaders.Compile = true
	}
	if backend != "" {
		cfg.GPU.Backend = backend
	}
	if level != "" {
		cfg.Log.Level = level
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	// Validate has already accepted both values.
	level, _ := cfg.LogLevel()
	format, _ := cfg.LogFormat()
	return config.NewLogger(os.Stderr, level, format)
}

func run(cfg config.Config) error {
	variants, err := loadVariants(context.Background(), cfg.Shaders.Manifest, cfg.Shaders.Compile)
	if err != nil {
		return err
	}

	backend, err := selectBackend(cfg)
	if err != nil {
		return err
	}

	win, err := window.Open(cfg.Window.Title, int(cfg.Window.Width), int(cfg.Window.Height))
	if err != nil {
		return err
	}
	defer win.Close()

	target, err := win.Target()
	if err != nil {
		return err
	}

	format, _ := cfg.TextureFormat()
	present, _ := cfg.Present()
	power, _ := cfg.Power()
	w, h := win.FramebufferSize()

	state, err := frameloop.NewState(backend, target, frameloop.SurfaceDescriptor{
		Width:       w,
		Height:      h,
		Format:      format,
		PresentMode: present,
	}, variants, frameloop.WithPowerPreference(power), frameloop.WithLabel("frameloop"))
	if err != nil {
		return err
	}
	defer state.Close()
	frameloop.Logger().Info("rendering", "adapter", state.Context().Info().String(), "width", w, "height", h)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return loop.New(state, win.Events()).Run(ctx, win)
}

func selectBackend(cfg config.Config) (hal.Backend, error) {
	variant, explicit, err := cfg.BackendVariant()
	if err != nil {
		return nil, err
	}
	if !explicit {
		return hal.SelectBestBackend()
	}
	b, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("backend %s is not available on this platform", variant)
	}
	return b, nil
}
