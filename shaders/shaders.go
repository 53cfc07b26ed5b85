// Package shaders holds the WGSL sources and the variant manifest of the
// frameloop demo pipelines.
//
// Compiled blobs (*.spv) are produced next to the sources by cmd/shaderc.
package shaders

import "embed"

//go:generate go run ../cmd/shaderc -dir . -deps

// Sources contains manifest.yaml and every shader source it references.
//
//go:embed manifest.yaml *.vert *.frag
var Sources embed.FS

// ManifestFile is the manifest's name inside Sources.
const ManifestFile = "manifest.yaml"
