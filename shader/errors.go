package shader

import "errors"

var (
	// ErrUnsupportedStage is returned for source files whose extension
	// does not name a shader stage.
	ErrUnsupportedStage = errors.New("shader: unsupported shader extension")

	// ErrBlobNotFound is returned when a compiled blob is missing.
	// Run the shader compiler to produce it.
	ErrBlobNotFound = errors.New("shader: compiled blob not found")

	// ErrInvalidManifest is returned when a manifest fails validation.
	ErrInvalidManifest = errors.New("shader: invalid manifest")
)
