// Package shaderc compiles WGSL shader sources to SPIR-V blobs.
//
// A source's stage comes from its extension (.vert, .frag, .comp). The
// compiled module must declare at least one entry point of that stage.
// The blob is written next to the source as <name>.<ext>.spv, the key
// the shader package loads it by.
package shaderc
