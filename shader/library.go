package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"

	"github.com/gogpu/frameloop/internal/cache"
)

// blobCacheSize bounds the number of blobs a Library keeps in memory.
const blobCacheSize = 64

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// Binaries holds the compiled blobs of one pipeline variant.
// Fragment is nil for vertex-only variants.
type Binaries struct {
	Vertex        []byte
	VertexEntry   string
	Fragment      []byte
	FragmentEntry string
}

// Library loads compiled SPIR-V blobs keyed by source path.
// Blobs are cached after the first read, so variants sharing a source
// read it once. Library is safe for concurrent use.
type Library struct {
	fsys  fs.FS
	blobs *cache.Cache[string, []byte]
}

// NewLibrary returns a Library reading blobs from fsys.
func NewLibrary(fsys fs.FS) *Library {
	return &Library{fsys: fsys, blobs: cache.New[string, []byte](blobCacheSize)}
}

// Blob returns the compiled blob for the source path src, read from
// BlobPath(src). A missing blob returns ErrBlobNotFound.
func (l *Library) Blob(src string) ([]byte, error) {
	src = cleanSource(src)
	if _, err := StageFromPath(src); err != nil {
		return nil, err
	}

	return l.blobs.GetOrLoad(src, func() ([]byte, error) {
		b, err := fs.ReadFile(l.fsys, BlobPath(src))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, BlobPath(src))
			}
			return nil, fmt.Errorf("shader: read %s: %w", BlobPath(src), err)
		}
		if err := checkBlob(b); err != nil {
			return nil, fmt.Errorf("shader: %s: %w", BlobPath(src), err)
		}
		Logger().Debug("shader: blob loaded", "source", src, "bytes", len(b))
		return b, nil
	})
}

// checkBlob accepts only whole-word blobs that start with the SPIR-V magic
// number in either byte order.
func checkBlob(b []byte) error {
	if len(b) < 20 || len(b)%4 != 0 {
		return fmt.Errorf("blob size %d is not a SPIR-V module", len(b))
	}
	if binary.LittleEndian.Uint32(b) != spirvMagic && binary.BigEndian.Uint32(b) != spirvMagic {
		return errors.New("missing SPIR-V magic number")
	}
	return nil
}

// Load returns the blobs of every variant in m, keyed by variant name.
func (l *Library) Load(m *Manifest) (map[string]Binaries, error) {
	out := make(map[string]Binaries, len(m.Variants))
	for _, name := range m.Names() {
		v := m.Variants[name]
		vert, err := l.Blob(v.Vertex)
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", name, err)
		}
		bin := Binaries{Vertex: vert, VertexEntry: v.VertexEntry}
		if v.Fragment != "" {
			frag, err := l.Blob(v.Fragment)
			if err != nil {
				return nil, fmt.Errorf("variant %q: %w", name, err)
			}
			bin.Fragment = frag
			bin.FragmentEntry = v.FragmentEntry
		}
		out[name] = bin
	}
	return out, nil
}
