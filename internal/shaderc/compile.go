package shaderc

import (
	"errors"
	"fmt"
	"os"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"

	"github.com/gogpu/frameloop/shader"
)

// ErrStageMismatch is returned when a source declares no entry point for
// the stage its extension names.
var ErrStageMismatch = errors.New("shaderc: no entry point for stage")

// Options configures compilation.
type Options struct {
	// Validate runs IR validation before code generation.
	Validate bool

	// Debug emits debug names into the blob.
	Debug bool
}

// Result describes one compiled source.
type Result struct {
	Source  string
	Blob    string
	Stage   shader.Stage
	Entries []string
	Size    int
}

// Compile compiles WGSL source for stage and returns the SPIR-V blob and
// the names of the entry points of that stage.
func Compile(source string, stage shader.Stage, opts Options) ([]byte, []string, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, nil, err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, nil, fmt.Errorf("lowering error: %w", err)
	}
	if opts.Validate {
		verrs, err := naga.Validate(module)
		if err != nil {
			return nil, nil, fmt.Errorf("validation error: %w", err)
		}
		if len(verrs) > 0 {
			return nil, nil, fmt.Errorf("validation failed: %w", verrs[0])
		}
	}

	entries := entryPoints(module, stage)
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("%w %s", ErrStageMismatch, stage)
	}

	blob, err := naga.GenerateSPIRV(module, spirv.Options{
		Version: spirv.Version1_3,
		Debug:   opts.Debug,
	})
	if err != nil {
		return nil, nil, err
	}
	return blob, entries, nil
}

func entryPoints(module *ir.Module, stage shader.Stage) []string {
	want, ok := irStage(stage)
	if !ok {
		return nil
	}
	var names []string
	for _, ep := range module.EntryPoints {
		if ep.Stage == want {
			names = append(names, ep.Name)
		}
	}
	return names
}

func irStage(s shader.Stage) (ir.ShaderStage, bool) {
	switch s {
	case shader.StageVertex:
		return ir.StageVertex, true
	case shader.StageFragment:
		return ir.StageFragment, true
	case shader.StageCompute:
		return ir.StageCompute, true
	default:
		return 0, false
	}
}

// CompileFile compiles the source at path and writes its blob to
// shader.BlobPath(path).
func CompileFile(path string, opts Options) (Result, error) {
	stage, err := shader.StageFromPath(path)
	if err != nil {
		return Result{}, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("shaderc: %w", err)
	}
	blob, entries, err := Compile(string(src), stage, opts)
	if err != nil {
		return Result{}, fmt.Errorf("shaderc: %s: %w", path, err)
	}

	out := shader.BlobPath(path)
	if err := os.WriteFile(out, blob, 0o644); err != nil {
		return Result{}, fmt.Errorf("shaderc: %w", err)
	}
	shader.Logger().Debug("shaderc: compiled", "source", path, "stage", stage, "bytes", len(blob))
	return Result{
		Source:  path,
		Blob:    out,
		Stage:   stage,
		Entries: entries,
		Size:    len(blob),
	}, nil
}
