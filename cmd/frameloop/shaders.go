package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/frameloop"
	"github.com/gogpu/frameloop/internal/shaderc"
	"github.com/gogpu/frameloop/shader"
)

// loadVariants reads the manifest, optionally recompiles its sources and
// returns the blobs keyed by pipeline.
func loadVariants(ctx context.Context, path string, compile bool) (map[frameloop.PipelineKey]frameloop.ShaderBinaries, error) {
	m, err := shader.LoadManifest(path)
	if err != nil {
		return nil, err
	}

	if compile {
		srcs := make([]string, 0, len(m.Sources()))
		for _, src := range m.Sources() {
			srcs = append(srcs, filepath.Join(m.Dir(), filepath.FromSlash(src)))
		}
		if _, err := shaderc.CompileFiles(ctx, srcs, shaderc.Options{}); err != nil {
			return nil, err
		}
	}

	bins, err := shader.NewLibrary(os.DirFS(m.Dir())).Load(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", frameloop.ErrShaderLink, err)
	}
	return toVariants(bins)
}

func toVariants(bins map[string]shader.Binaries) (map[frameloop.PipelineKey]frameloop.ShaderBinaries, error) {
	variants := make(map[frameloop.PipelineKey]frameloop.ShaderBinaries, len(bins))
	for name, b := range bins {
		key, err := frameloop.ParsePipelineKey(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", frameloop.ErrShaderLink, err)
		}
		variants[key] = frameloop.ShaderBinaries{
			Vertex:        b.Vertex,
			VertexEntry:   b.VertexEntry,
			Fragment:      b.Fragment,
			FragmentEntry: b.FragmentEntry,
		}
	}
	return variants, nil
}
