package frameloop

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/wgpu/hal"
)

// PipelineKey selects one pipeline of a PipelineSet.
type PipelineKey uint8

const (
	// PipelineDefault is drawn unless the alternate toggle is set.
	PipelineDefault PipelineKey = iota
	// PipelineAlternate is drawn while InputState.Alternate is set.
	PipelineAlternate

	pipelineKeyCount
)

// String returns the variant name used in shader manifests.
func (k PipelineKey) String() string {
	switch k {
	case PipelineDefault:
		return "default"
	case PipelineAlternate:
		return "alternate"
	default:
		return fmt.Sprintf("PipelineKey(%d)", k)
	}
}

// ParsePipelineKey returns the key for a manifest variant name.
func ParsePipelineKey(name string) (PipelineKey, error) {
	for k := PipelineKey(0); k < pipelineKeyCount; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("frameloop: unknown pipeline variant %q", name)
}

// defaultEntryPoint is used when ShaderBinaries leaves an entry unset.
const defaultEntryPoint = "main"

// ShaderBinaries are the SPIR-V blobs of one pipeline variant. The blobs
// are opaque to the caller; they are only checked structurally.
type ShaderBinaries struct {
	Vertex        []byte
	VertexEntry   string
	Fragment      []byte // optional
	FragmentEntry string
}

func (b ShaderBinaries) vertexEntry() string {
	if b.VertexEntry == "" {
		return defaultEntryPoint
	}
	return b.VertexEntry
}

func (b ShaderBinaries) fragmentEntry() string {
	if b.FragmentEntry == "" {
		return defaultEntryPoint
	}
	return b.FragmentEntry
}

// Pipeline is one immutable render pipeline.
type Pipeline struct {
	key      PipelineKey
	pipeline hal.RenderPipeline
	vertex   hal.ShaderModule
	fragment hal.ShaderModule
}

// Key returns the variant of the pipeline.
func (p *Pipeline) Key() PipelineKey { return p.key }

// HAL returns the HAL pipeline object.
func (p *Pipeline) HAL() hal.RenderPipeline { return p.pipeline }

// PipelineSet owns the render pipelines built at startup. Pipelines are
// immutable once built and selection is a pure read.
type PipelineSet struct {
	ctx       *GraphicsContext
	layout    hal.PipelineLayout
	format    gputypes.TextureFormat
	vertices  VertexLayout
	pipelines [pipelineKeyCount]*Pipeline
}

// BuildPipelineSet builds one pipeline per variant. Every pipeline uses a
// triangle list, counter-clockwise front faces with back-face culling,
// replace blending and a single color target of format. The default variant
// is required.
//
// Malformed blobs, blobs whose entry points or vertex inputs do not match
// layout, and device failures all fail with ErrShaderLink.
func BuildPipelineSet(ctx *GraphicsContext, format gputypes.TextureFormat, layout VertexLayout, variants map[PipelineKey]ShaderBinaries) (*PipelineSet, error) {
	if ctx.closed() {
		return nil, ErrClosed
	}
	if _, ok := variants[PipelineDefault]; !ok {
		return nil, fmt.Errorf("%w: no %s variant", ErrShaderLink, PipelineDefault)
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderLink, err)
	}

	pipeLayout, err := ctx.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: ctx.label("pipe_layout"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create pipeline layout: %w", ErrShaderLink, err)
	}

	ps := &PipelineSet{
		ctx:      ctx,
		layout:   pipeLayout,
		format:   format,
		vertices: layout,
	}
	for key := PipelineKey(0); key < pipelineKeyCount; key++ {
		bins, ok := variants[key]
		if !ok {
			continue
		}
		p, err := ps.build(key, bins)
		if err != nil {
			ps.Destroy()
			return nil, fmt.Errorf("%w: %s pipeline: %w", ErrShaderLink, key, err)
		}
		ps.pipelines[key] = p
		slogger().Debug("pipeline built", "variant", key, "format", format)
	}
	return ps, nil
}

func (ps *PipelineSet) build(key PipelineKey, bins ShaderBinaries) (*Pipeline, error) {
	p := &Pipeline{key: key}

	vs, err := ps.createModule(key, "vs", bins.Vertex, spirv.ExecutionModelVertex, bins.vertexEntry())
	if err != nil {
		return nil, err
	}
	p.vertex = vs

	var fragment *hal.FragmentState
	if bins.Fragment != nil {
		fs, err := ps.createModule(key, "fs", bins.Fragment, spirv.ExecutionModelFragment, bins.fragmentEntry())
		if err != nil {
			ps.destroyPipeline(p)
			return nil, err
		}
		p.fragment = fs
		replace := gputypes.BlendStateReplace()
		fragment = &hal.FragmentState{
			Module:     fs,
			EntryPoint: bins.fragmentEntry(),
			Targets: []gputypes.ColorTargetState{{
				Format:    ps.format,
				Blend:     &replace,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		}
	}

	pipeline, err := ps.ctx.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  ps.ctx.label(key.String() + "_pipeline"),
		Layout: ps.layout,
		Vertex: hal.VertexState{
			Module:     vs,
			EntryPoint: bins.vertexEntry(),
			Buffers:    ps.vertices.halLayout(),
		},
		Fragment: fragment,
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeBack,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		ps.destroyPipeline(p)
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	p.pipeline = pipeline
	return p, nil
}

// createModule checks blob against the expected stage and, for the vertex
// stage, against the vertex layout before creating the shader module.
func (ps *PipelineSet) createModule(key PipelineKey, stage string, blob []byte, model spirv.ExecutionModel, entry string) (hal.ShaderModule, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%s stage: empty binary", stage)
	}
	mod, err := parseSPIRV(blob)
	if err != nil {
		return nil, fmt.Errorf("%s stage: %w", stage, err)
	}
	ep, ok := mod.entryPoint(model, entry)
	if !ok {
		return nil, fmt.Errorf("%s stage: no %s entry point %q", stage, executionModelName(model), entry)
	}
	if model == spirv.ExecutionModelVertex {
		for _, loc := range mod.inputLocations(ep) {
			if !ps.vertices.provides(loc) {
				return nil, fmt.Errorf("%s stage: input location %d not provided by the vertex layout", stage, loc)
			}
		}
	}

	module, err := ps.ctx.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  ps.ctx.label(key.String() + "_" + stage),
		Source: hal.ShaderSource{SPIRV: mod.words},
	})
	if err != nil {
		return nil, fmt.Errorf("%s stage: create shader module: %w", stage, err)
	}
	return module, nil
}

// Pipeline returns the pipeline for key, or nil if that variant was not
// built.
func (ps *PipelineSet) Pipeline(key PipelineKey) *Pipeline {
	if key >= pipelineKeyCount {
		return nil
	}
	return ps.pipelines[key]
}

// Select returns the key drawn for input. It only reads input. An
// alternate toggle without an alternate pipeline selects the default.
func (ps *PipelineSet) Select(input *InputState) PipelineKey {
	if input != nil && input.Alternate && ps.pipelines[PipelineAlternate] != nil {
		return PipelineAlternate
	}
	return PipelineDefault
}

// Format returns the color target format of the pipelines.
func (ps *PipelineSet) Format() gputypes.TextureFormat { return ps.format }

// Destroy releases all pipelines and the shared layout.
func (ps *PipelineSet) Destroy() {
	if ps.ctx.closed() {
		return
	}
	for i, p := range ps.pipelines {
		if p != nil {
			ps.destroyPipeline(p)
			ps.pipelines[i] = nil
		}
	}
	if ps.layout != nil {
		ps.ctx.device.DestroyPipelineLayout(ps.layout)
		ps.layout = nil
	}
}

// destroyPipeline releases pipeline resources in reverse creation order.
func (ps *PipelineSet) destroyPipeline(p *Pipeline) {
	d := ps.ctx.device
	if p.pipeline != nil {
		d.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.fragment != nil {
		d.DestroyShaderModule(p.fragment)
		p.fragment = nil
	}
	if p.vertex != nil {
		d.DestroyShaderModule(p.vertex)
		p.vertex = nil
	}
}
