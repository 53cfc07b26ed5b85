package frameloop

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"
)

// vertexStride is the byte stride of Vertex in a vertex buffer.
// Layout per vertex:
//
//	position (vec3<f32>) = 12 bytes (location 0)
//	color    (vec3<f32>) = 12 bytes (location 1)
const vertexStride = 24

// Vertex is one vertex record of the static geometry.
type Vertex struct {
	Position f32.Vec3
	Color    f32.Vec3
}

// Triangle is the default geometry: one counter-clockwise triangle with a
// red, green and blue corner.
var Triangle = []Vertex{
	{Position: f32.Vec3{0.0, 0.5, 0.0}, Color: f32.Vec3{1.0, 0.0, 0.0}},
	{Position: f32.Vec3{-0.5, -0.5, 0.0}, Color: f32.Vec3{0.0, 1.0, 0.0}},
	{Position: f32.Vec3{0.5, -0.5, 0.0}, Color: f32.Vec3{0.0, 0.0, 1.0}},
}

// VertexAttribute places one shader input inside a vertex record.
type VertexAttribute struct {
	Location uint32
	Offset   uint64
	Format   gputypes.VertexFormat
}

// VertexLayout is the fixed attribute layout of a vertex buffer.
type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// DefaultVertexLayout returns the layout of Vertex.
func DefaultVertexLayout() VertexLayout {
	return VertexLayout{
		Stride: vertexStride,
		Attributes: []VertexAttribute{
			{Location: 0, Offset: 0, Format: gputypes.VertexFormatFloat32x3},  // position
			{Location: 1, Offset: 12, Format: gputypes.VertexFormatFloat32x3}, // color
		},
	}
}

// Validate checks that every attribute fits inside the stride and that no
// location is declared twice.
func (l VertexLayout) Validate() error {
	if l.Stride == 0 {
		return errors.New("vertex layout: zero stride")
	}
	seen := make(map[uint32]bool, len(l.Attributes))
	for _, a := range l.Attributes {
		if seen[a.Location] {
			return fmt.Errorf("vertex layout: location %d declared twice", a.Location)
		}
		seen[a.Location] = true
		size := a.Format.Size()
		if size == 0 {
			return fmt.Errorf("vertex layout: location %d has invalid format %v", a.Location, a.Format)
		}
		if a.Offset+size > l.Stride {
			return fmt.Errorf("vertex layout: location %d (offset %d, %d bytes) exceeds stride %d",
				a.Location, a.Offset, size, l.Stride)
		}
	}
	return nil
}

func (l VertexLayout) provides(location uint32) bool {
	for _, a := range l.Attributes {
		if a.Location == location {
			return true
		}
	}
	return false
}

func (l VertexLayout) halLayout() []gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		}
	}
	return []gputypes.VertexBufferLayout{{
		ArrayStride: l.Stride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}}
}

// EncodeVertices packs vertices into the Vertex layout.
func EncodeVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*vertexStride)
	for i, v := range vertices {
		off := i * vertexStride
		for j := range 3 {
			binary.LittleEndian.PutUint32(buf[off+j*4:], math.Float32bits(v.Position[j]))
			binary.LittleEndian.PutUint32(buf[off+12+j*4:], math.Float32bits(v.Color[j]))
		}
	}
	return buf
}

// VertexBuffer is a GPU-resident array of Vertex records. It is uploaded
// once when created; Update rewrites it and must only be called from the
// render goroutine between frames.
type VertexBuffer struct {
	ctx      *GraphicsContext
	buffer   hal.Buffer
	count    uint32
	capacity uint32
}

// NewVertexBuffer creates a vertex buffer sized for vertices and uploads
// them.
func NewVertexBuffer(ctx *GraphicsContext, vertices []Vertex) (*VertexBuffer, error) {
	if ctx.closed() {
		return nil, ErrClosed
	}
	if len(vertices) == 0 {
		return nil, errors.New("frameloop: vertex buffer needs at least one vertex")
	}
	data := EncodeVertices(vertices)
	buf, err := ctx.device.CreateBuffer(&hal.BufferDescriptor{
		Label: ctx.label("vertices"),
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}
	if err := ctx.queue.WriteBuffer(buf, 0, data); err != nil {
		ctx.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("upload vertices: %w", err)
	}
	return &VertexBuffer{
		ctx:      ctx,
		buffer:   buf,
		count:    uint32(len(vertices)),
		capacity: uint32(len(vertices)),
	}, nil
}

// Count returns the number of vertices a draw covers.
func (vb *VertexBuffer) Count() uint32 { return vb.count }

// Buffer returns the underlying GPU buffer.
func (vb *VertexBuffer) Buffer() hal.Buffer { return vb.buffer }

// Update replaces the buffer contents. It cannot grow the buffer.
func (vb *VertexBuffer) Update(vertices []Vertex) error {
	if vb.buffer == nil {
		return ErrClosed
	}
	if len(vertices) == 0 || len(vertices) > int(vb.capacity) {
		return fmt.Errorf("frameloop: %d vertices do not fit a buffer of %d", len(vertices), vb.capacity)
	}
	if err := vb.ctx.queue.WriteBuffer(vb.buffer, 0, EncodeVertices(vertices)); err != nil {
		return fmt.Errorf("update vertices: %w", err)
	}
	vb.count = uint32(len(vertices))
	return nil
}

// Destroy releases the GPU buffer.
func (vb *VertexBuffer) Destroy() {
	if vb.buffer == nil || vb.ctx.closed() {
		return
	}
	vb.ctx.device.DestroyBuffer(vb.buffer)
	vb.buffer = nil
}
