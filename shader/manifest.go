package shader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultEntryPoint is used when a manifest leaves an entry point empty.
const DefaultEntryPoint = "main"

// Variant names the sources of one pipeline variant. Paths are relative
// to the manifest directory and use forward slashes.
type Variant struct {
	Vertex        string `yaml:"vertex"`
	VertexEntry   string `yaml:"vertex_entry,omitempty"`
	Fragment      string `yaml:"fragment,omitempty"`
	FragmentEntry string `yaml:"fragment_entry,omitempty"`
}

// Manifest maps pipeline variant names to their shader sources.
//
//	variants:
//	  default:
//	    vertex: shader.vert
//	    fragment: shader.frag
//	  alternate:
//	    vertex: shader2.vert
//	    fragment: shader2.frag
type Manifest struct {
	Variants map[string]Variant `yaml:"variants"`

	dir string
}

// ParseManifest decodes and validates a YAML manifest.
// Unknown keys are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidManifest)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	m.normalize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads a manifest file. A leading ~ is expanded to the
// user's home directory. Source paths resolve against the file's directory.
func LoadManifest(file string) (*Manifest, error) {
	expanded, err := homedir.Expand(file)
	if err != nil {
		return nil, fmt.Errorf("shader: expand %q: %w", file, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("shader: read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", expanded, err)
	}
	m.dir = filepath.Dir(expanded)
	Logger().Debug("shader: manifest loaded", "path", expanded, "variants", len(m.Variants))
	return m, nil
}

// Dir returns the directory the manifest was loaded from, or "" for a
// manifest parsed from memory.
func (m *Manifest) Dir() string { return m.dir }

func (m *Manifest) normalize() {
	for name, v := range m.Variants {
		v.Vertex = cleanSource(v.Vertex)
		v.Fragment = cleanSource(v.Fragment)
		if v.VertexEntry == "" {
			v.VertexEntry = DefaultEntryPoint
		}
		if v.Fragment != "" && v.FragmentEntry == "" {
			v.FragmentEntry = DefaultEntryPoint
		}
		m.Variants[name] = v
	}
}

func cleanSource(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(filepath.ToSlash(p))
}

// Validate checks that every variant names a vertex source and that each
// source's extension matches the stage it is used for.
func (m *Manifest) Validate() error {
	if len(m.Variants) == 0 {
		return fmt.Errorf("%w: no variants", ErrInvalidManifest)
	}
	for _, name := range m.Names() {
		v := m.Variants[name]
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty variant name", ErrInvalidManifest)
		}
		if v.Vertex == "" {
			return fmt.Errorf("%w: variant %q has no vertex shader", ErrInvalidManifest, name)
		}
		if err := checkStage(v.Vertex, StageVertex); err != nil {
			return fmt.Errorf("%w: variant %q: %w", ErrInvalidManifest, name, err)
		}
		if v.Fragment != "" {
			if err := checkStage(v.Fragment, StageFragment); err != nil {
				return fmt.Errorf("%w: variant %q: %w", ErrInvalidManifest, name, err)
			}
		}
	}
	return nil
}

func checkStage(src string, want Stage) error {
	if path.IsAbs(src) || strings.HasPrefix(src, "../") || src == ".." {
		return fmt.Errorf("source %q escapes the manifest directory", src)
	}
	got, err := StageFromPath(src)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%s used as %s shader", src, want)
	}
	return nil
}

// Names returns the variant names in sorted order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Variants))
	for name := range m.Variants {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Sources returns every source path the manifest references, sorted and
// without duplicates.
func (m *Manifest) Sources() []string {
	var srcs []string
	for _, v := range m.Variants {
		srcs = append(srcs, v.Vertex)
		if v.Fragment != "" {
			srcs = append(srcs, v.Fragment)
		}
	}
	slices.Sort(srcs)
	return slices.Compact(srcs)
}
