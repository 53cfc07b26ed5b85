package shader

import (
	"fmt"
	"path/filepath"
	"strings"
)

// BlobExt is appended to a source path to name its compiled SPIR-V blob.
const BlobExt = ".spv"

// Stage is the pipeline stage a shader source compiles for.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}

// Extension returns the source file extension for the stage.
func (s Stage) Extension() string {
	switch s {
	case StageVertex:
		return ".vert"
	case StageFragment:
		return ".frag"
	case StageCompute:
		return ".comp"
	default:
		return ""
	}
}

// StageFromPath derives the stage from a source path's extension.
// Extensions other than .vert, .frag and .comp return ErrUnsupportedStage.
func StageFromPath(path string) (Stage, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vert":
		return StageVertex, nil
	case ".frag":
		return StageFragment, nil
	case ".comp":
		return StageCompute, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedStage, path)
	}
}

// IsSource reports whether path names a shader source file.
func IsSource(path string) bool {
	_, err := StageFromPath(path)
	return err == nil
}

// BlobPath returns the compiled blob path for a source path:
// shaders/shader.vert becomes shaders/shader.vert.spv.
func BlobPath(src string) string { return src + BlobExt }
