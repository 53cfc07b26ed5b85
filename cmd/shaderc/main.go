// Command shaderc compiles WGSL shader sources to SPIR-V blobs.
//
// Every *.vert, *.frag and *.comp file under -dir (or each file named on
// the command line) is compiled for the stage its extension names and
// written next to the source as <name>.<ext>.spv.
//
// Usage:
//
//	shaderc [-dir shaders] [-deps] [-watch] [-validate] [file ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/frameloop/internal/config"
	"github.com/gogpu/frameloop/internal/shaderc"
	"github.com/gogpu/frameloop/shader"
)

func main() {
	var (
		dir      = flag.String("dir", "shaders", "source directory to compile")
		deps     = flag.Bool("deps", false, "print a rerun-if-changed line per source")
		watch    = flag.Bool("watch", false, "recompile sources as they change")
		validate = flag.Bool("validate", false, "validate the IR before code generation")
		debug    = flag.Bool("debug", false, "emit debug names")
		verbose  = flag.Bool("v", false, "log each compiled source")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := config.NewLogger(os.Stderr, level, config.LogFormatAuto)
	shader.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := shaderc.Options{Validate: *validate, Debug: *debug}
	var (
		results []shaderc.Result
		err     error
	)
	if flag.NArg() > 0 {
		results, err = shaderc.CompileFiles(ctx, flag.Args(), opts)
	} else {
		results, err = shaderc.CompileAll(ctx, *dir, opts)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *deps {
		if err := shaderc.WriteDeps(os.Stdout, results); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	logger.Info("compiled", "sources", len(results))

	if !*watch {
		return
	}
	err = shaderc.Watch(ctx, *dir, opts, func(r shaderc.Result, err error) {
		if err != nil {
			logger.Error("compile failed", "error", err)
			return
		}
		logger.Info("recompiled", "source", r.Source, "stage", r.Stage, "bytes", r.Size)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
