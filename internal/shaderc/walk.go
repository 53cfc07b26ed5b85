package shaderc

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/frameloop/shader"
)

// Find returns the shader sources under root in lexical order.
// Hidden directories are skipped.
func Find(root string) ([]string, error) {
	var srcs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if shader.IsSource(path) {
			srcs = append(srcs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("shaderc: walk %s: %w", root, err)
	}
	return srcs, nil
}

// CompileAll compiles every source under root in parallel. The first
// failure cancels the remaining work and is returned. Results are in
// source order.
func CompileAll(ctx context.Context, root string, opts Options) ([]Result, error) {
	srcs, err := Find(root)
	if err != nil {
		return nil, err
	}
	return CompileFiles(ctx, srcs, opts)
}

// CompileFiles compiles the given sources in parallel. Every path must
// carry a shader extension.
func CompileFiles(ctx context.Context, srcs []string, opts Options) ([]Result, error) {
	for _, src := range srcs {
		if _, err := shader.StageFromPath(src); err != nil {
			return nil, err
		}
	}

	results := make([]Result, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, src := range srcs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := CompileFile(src, opts)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b Result) int { return strings.Compare(a.Source, b.Source) })
	return results, nil
}

// WriteDeps writes one rerun-if-changed line per compiled source.
func WriteDeps(w io.Writer, results []Result) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "rerun-if-changed=%s\n", filepath.ToSlash(r.Source)); err != nil {
			return err
		}
	}
	return nil
}
