package shader

import (
	"encoding/binary"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blob returns a minimal header-only SPIR-V module.
func blob(order binary.ByteOrder) []byte {
	b := make([]byte, 20)
	order.PutUint32(b, spirvMagic)
	order.PutUint32(b[4:], 0x00010300)
	order.PutUint32(b[12:], 1)
	return b
}

func TestLibraryBlob(t *testing.T) {
	fsys := fstest.MapFS{
		"shader.vert.spv":     {Data: blob(binary.LittleEndian)},
		"sub/shader.frag.spv": {Data: blob(binary.BigEndian)},
		"short.vert.spv":      {Data: []byte{1, 2, 3, 4}},
		"bad.vert.spv":        {Data: make([]byte, 20)},
	}
	lib := NewLibrary(fsys)

	b, err := lib.Blob("shader.vert")
	require.NoError(t, err)
	assert.Len(t, b, 20)

	_, err = lib.Blob("./sub/shader.frag")
	require.NoError(t, err)

	_, err = lib.Blob("missing.vert")
	assert.ErrorIs(t, err, ErrBlobNotFound)

	_, err = lib.Blob("shader.wgsl")
	assert.ErrorIs(t, err, ErrUnsupportedStage)

	_, err = lib.Blob("short.vert")
	assert.Error(t, err)
	_, err = lib.Blob("bad.vert")
	assert.ErrorContains(t, err, "magic")
}

func TestLibraryCachesBlobs(t *testing.T) {
	fsys := fstest.MapFS{"shader.vert.spv": {Data: blob(binary.LittleEndian)}}
	lib := NewLibrary(fsys)
	first, err := lib.Blob("shader.vert")
	require.NoError(t, err)

	delete(fsys, "shader.vert.spv")
	second, err := lib.Blob("shader.vert")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLibraryLoad(t *testing.T) {
	m, err := ParseManifest([]byte(testManifest))
	require.NoError(t, err)

	fsys := fstest.MapFS{}
	for _, src := range m.Sources() {
		fsys[BlobPath(src)] = &fstest.MapFile{Data: blob(binary.LittleEndian)}
	}
	bins, err := NewLibrary(fsys).Load(m)
	require.NoError(t, err)
	require.Len(t, bins, 3)

	assert.Equal(t, "vs", bins["alternate"].VertexEntry)
	assert.Equal(t, "fs", bins["alternate"].FragmentEntry)
	assert.NotNil(t, bins["default"].Fragment)
	assert.Nil(t, bins["depth"].Fragment)

	delete(fsys, "shader2.frag.spv")
	_, err = NewLibrary(fsys).Load(m)
	assert.ErrorIs(t, err, ErrBlobNotFound)
	assert.ErrorContains(t, err, `variant "alternate"`)
}

// countingFS counts opens per name.
type countingFS struct {
	fs.FS
	opens map[string]int
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.opens[name]++
	return c.FS.Open(name)
}

func TestLibraryLoadReadsSharedSourceOnce(t *testing.T) {
	m, err := ParseManifest([]byte(testManifest))
	require.NoError(t, err)

	mapfs := fstest.MapFS{}
	for _, src := range m.Sources() {
		mapfs[BlobPath(src)] = &fstest.MapFile{Data: blob(binary.LittleEndian)}
	}
	cfs := &countingFS{FS: mapfs, opens: map[string]int{}}
	bins, err := NewLibrary(cfs).Load(m)
	require.NoError(t, err)

	assert.Equal(t, bins["default"].Vertex, bins["depth"].Vertex)
	assert.Equal(t, 1, cfs.opens["shader.vert.spv"])
}
