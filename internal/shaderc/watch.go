package shaderc

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/frameloop/shader"
)

// Watch recompiles sources under root whenever they are written or
// created, reporting every attempt to report. It returns when ctx is
// done or the watcher fails.
func Watch(ctx context.Context, root string, opts Options, report func(Result, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("shaderc: watch: %w", err)
	}
	defer w.Close()

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
	if err != nil {
		return fmt.Errorf("shaderc: watch %s: %w", root, err)
	}
	shader.Logger().Info("shaderc: watching", "root", root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !rebuildOn(event) {
				continue
			}
			report(CompileFile(event.Name, opts))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("shaderc: watch: %w", err)
		}
	}
}

func rebuildOn(event fsnotify.Event) bool {
	if !shader.IsSource(event.Name) {
		return false
	}
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create
}
