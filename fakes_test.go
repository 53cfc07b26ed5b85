package frameloop

import (
	"image"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// fakeGPU records every call made through the fake HAL objects and holds
// the errors to inject. The fakes embed the noop backend types so only the
// methods under test are overridden.
type fakeGPU struct {
	calls int

	// surface
	configures   int
	unconfigures int
	config       hal.SurfaceConfiguration
	acquires     int
	acquireErrs  []error
	suboptimal   bool
	discards     int
	configureErr error

	// device
	shaderModules     int
	destroyedModules  int
	pipelinesCreated  int
	pipelineDescs     []hal.RenderPipelineDescriptor
	destroyedPipes    int
	views             int
	destroyedViews    int
	buffers           int
	destroyedBuffers  int
	freedCmdBuffers   int
	shaderErr         error
	pipelineErr       error
	encoderErr        error
	endEncodingErr    error
	discardedEncoders int

	// queue
	writes     int
	written    []byte
	submits    int
	presents   int
	submitErr  error
	presentErr error

	passes []*fakePass

	destroyed []string
}

// fakeAdapterSpec describes one adapter returned by enumeration.
type fakeAdapterSpec struct {
	name      string
	typ       gputypes.DeviceType
	noSurface bool
}

// fakeBackend implements hal.Backend on top of the fakes.
type fakeBackend struct {
	gpu         *fakeGPU
	adapters    []fakeAdapterSpec
	instanceErr error
	surfaceErr  error
	openErr     error
	opened      string
}

func newFakeBackend(adapters ...fakeAdapterSpec) *fakeBackend {
	if len(adapters) == 0 {
		adapters = []fakeAdapterSpec{{name: "Fake Discrete", typ: gputypes.DeviceTypeDiscreteGPU}}
	}
	return &fakeBackend{gpu: &fakeGPU{}, adapters: adapters}
}

func (b *fakeBackend) Variant() gputypes.Backend { return gputypes.BackendEmpty }

func (b *fakeBackend) CreateInstance(*hal.InstanceDescriptor) (hal.Instance, error) {
	if b.instanceErr != nil {
		return nil, b.instanceErr
	}
	return &fakeInstance{b: b}, nil
}

type fakeInstance struct {
	noop.Instance
	b *fakeBackend
}

func (i *fakeInstance) CreateSurface(_, _ uintptr) (hal.Surface, error) {
	if i.b.surfaceErr != nil {
		return nil, i.b.surfaceErr
	}
	return &fakeSurface{gpu: i.b.gpu}, nil
}

func (i *fakeInstance) EnumerateAdapters(hal.Surface) []hal.ExposedAdapter {
	out := make([]hal.ExposedAdapter, len(i.b.adapters))
	for n, spec := range i.b.adapters {
		out[n] = hal.ExposedAdapter{
			Adapter: &fakeAdapter{b: i.b, spec: spec},
			Info: gputypes.AdapterInfo{
				Name:       spec.name,
				Vendor:     "Fake",
				DeviceType: spec.typ,
				Backend:    gputypes.BackendEmpty,
			},
			Capabilities: hal.Capabilities{Limits: gputypes.DefaultLimits()},
		}
	}
	return out
}

func (i *fakeInstance) Destroy() { i.b.gpu.destroyed = append(i.b.gpu.destroyed, "instance") }

type fakeAdapter struct {
	noop.Adapter
	b    *fakeBackend
	spec fakeAdapterSpec
}

func (a *fakeAdapter) SurfaceCapabilities(hal.Surface) *hal.SurfaceCapabilities {
	if a.spec.noSurface {
		return nil
	}
	return &hal.SurfaceCapabilities{
		Formats: []gputypes.TextureFormat{
			gputypes.TextureFormatBGRA8UnormSrgb,
			gputypes.TextureFormatBGRA8Unorm,
		},
		PresentModes: []gputypes.PresentMode{
			gputypes.PresentModeFifo,
			gputypes.PresentModeMailbox,
		},
		AlphaModes: []gputypes.CompositeAlphaMode{gputypes.CompositeAlphaModeOpaque},
	}
}

func (a *fakeAdapter) Open(gputypes.Features, gputypes.Limits) (hal.OpenDevice, error) {
	if a.b.openErr != nil {
		return hal.OpenDevice{}, a.b.openErr
	}
	a.b.opened = a.spec.name
	return hal.OpenDevice{
		Device: &fakeDevice{gpu: a.b.gpu},
		Queue:  &fakeQueue{gpu: a.b.gpu},
	}, nil
}

func (a *fakeAdapter) Destroy() { a.b.gpu.destroyed = append(a.b.gpu.destroyed, "adapter") }

type fakeSurface struct {
	noop.Surface
	gpu *fakeGPU
}

func (s *fakeSurface) Configure(_ hal.Device, cfg *hal.SurfaceConfiguration) error {
	s.gpu.calls++
	if s.gpu.configureErr != nil {
		return s.gpu.configureErr
	}
	s.gpu.configures++
	s.gpu.config = *cfg
	return nil
}

func (s *fakeSurface) Unconfigure(hal.Device) {
	s.gpu.calls++
	s.gpu.unconfigures++
}

func (s *fakeSurface) AcquireTexture(hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	s.gpu.calls++
	s.gpu.acquires++
	if len(s.gpu.acquireErrs) > 0 {
		err := s.gpu.acquireErrs[0]
		s.gpu.acquireErrs = s.gpu.acquireErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &hal.AcquiredSurfaceTexture{
		Texture:    &noop.SurfaceTexture{},
		Suboptimal: s.gpu.suboptimal,
	}, nil
}

func (s *fakeSurface) DiscardTexture(hal.SurfaceTexture) {
	s.gpu.calls++
	s.gpu.discards++
}

func (s *fakeSurface) Destroy() { s.gpu.destroyed = append(s.gpu.destroyed, "surface") }

type fakeDevice struct {
	noop.Device
	gpu *fakeGPU
}

func (d *fakeDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.gpu.calls++
	d.gpu.buffers++
	return d.Device.CreateBuffer(desc)
}

func (d *fakeDevice) DestroyBuffer(hal.Buffer) {
	d.gpu.calls++
	d.gpu.destroyedBuffers++
}

func (d *fakeDevice) CreateTextureView(hal.Texture, *hal.TextureViewDescriptor) (hal.TextureView, error) {
	d.gpu.calls++
	d.gpu.views++
	return &noop.Resource{}, nil
}

func (d *fakeDevice) DestroyTextureView(hal.TextureView) {
	d.gpu.calls++
	d.gpu.destroyedViews++
}

func (d *fakeDevice) CreateShaderModule(*hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	d.gpu.calls++
	if d.gpu.shaderErr != nil {
		return nil, d.gpu.shaderErr
	}
	d.gpu.shaderModules++
	return &noop.Resource{}, nil
}

func (d *fakeDevice) DestroyShaderModule(hal.ShaderModule) {
	d.gpu.calls++
	d.gpu.destroyedModules++
}

func (d *fakeDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.gpu.calls++
	if d.gpu.pipelineErr != nil {
		return nil, d.gpu.pipelineErr
	}
	d.gpu.pipelinesCreated++
	d.gpu.pipelineDescs = append(d.gpu.pipelineDescs, *desc)
	return &fakePipeline{id: d.gpu.pipelinesCreated}, nil
}

func (d *fakeDevice) DestroyRenderPipeline(hal.RenderPipeline) {
	d.gpu.calls++
	d.gpu.destroyedPipes++
}

func (d *fakeDevice) CreateCommandEncoder(*hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	d.gpu.calls++
	if d.gpu.encoderErr != nil {
		return nil, d.gpu.encoderErr
	}
	return &fakeEncoder{gpu: d.gpu}, nil
}

func (d *fakeDevice) FreeCommandBuffer(hal.CommandBuffer) {
	d.gpu.calls++
	d.gpu.freedCmdBuffers++
}

func (d *fakeDevice) Destroy() { d.gpu.destroyed = append(d.gpu.destroyed, "device") }

// fakePipeline is a render pipeline identified by creation order.
type fakePipeline struct {
	noop.Resource
	id int
}

type fakeQueue struct {
	noop.Queue
	gpu *fakeGPU
}

func (q *fakeQueue) WriteBuffer(_ hal.Buffer, _ uint64, data []byte) error {
	q.gpu.calls++
	q.gpu.writes++
	q.gpu.written = append([]byte(nil), data...)
	return nil
}

func (q *fakeQueue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	q.gpu.calls++
	if q.gpu.submitErr != nil {
		return 0, q.gpu.submitErr
	}
	q.gpu.submits++
	return q.Queue.Submit(cmds)
}

func (q *fakeQueue) Present(hal.Surface, hal.SurfaceTexture, []image.Rectangle) error {
	q.gpu.calls++
	if q.gpu.presentErr != nil {
		return q.gpu.presentErr
	}
	q.gpu.presents++
	return nil
}

type fakeEncoder struct {
	noop.CommandEncoder
	gpu *fakeGPU
}

func (e *fakeEncoder) BeginEncoding(string) error {
	e.gpu.calls++
	return nil
}

func (e *fakeEncoder) EndEncoding() (hal.CommandBuffer, error) {
	e.gpu.calls++
	if e.gpu.endEncodingErr != nil {
		return nil, e.gpu.endEncodingErr
	}
	return &noop.Resource{}, nil
}

func (e *fakeEncoder) DiscardEncoding() {
	e.gpu.calls++
	e.gpu.discardedEncoders++
}

func (e *fakeEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.gpu.calls++
	p := &fakePass{gpu: e.gpu, desc: *desc}
	e.gpu.passes = append(e.gpu.passes, p)
	return p
}

// fakePass records the commands of one render pass.
type fakePass struct {
	noop.RenderPassEncoder
	gpu       *fakeGPU
	desc      hal.RenderPassDescriptor
	pipeline  hal.RenderPipeline
	vbSlot    int
	vbBuffer  hal.Buffer
	draws     [][4]uint32
	ended     bool
	afterEnds int
}

func (p *fakePass) SetPipeline(pl hal.RenderPipeline) {
	p.gpu.calls++
	p.pipeline = pl
}

func (p *fakePass) SetVertexBuffer(slot uint32, buf hal.Buffer, _ uint64) {
	p.gpu.calls++
	p.vbSlot = int(slot)
	p.vbBuffer = buf
}

func (p *fakePass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.gpu.calls++
	if p.ended {
		p.afterEnds++
	}
	p.draws = append(p.draws, [4]uint32{vertexCount, instanceCount, firstVertex, firstInstance})
}

func (p *fakePass) End() {
	p.gpu.calls++
	p.ended = true
}

// totalDraws counts draw calls over all recorded passes.
func (g *fakeGPU) totalDraws() int {
	n := 0
	for _, p := range g.passes {
		n += len(p.draws)
	}
	return n
}

// testShader builds a minimal SPIR-V module with one entry point of model
// named entry whose interface declares an Input vec3 at each location.
func testShader(t testing.TB, model spirv.ExecutionModel, entry string, locations ...uint32) []byte {
	t.Helper()
	b := spirv.NewModuleBuilder(spirv.Version1_3)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)

	void := b.AddTypeVoid()
	f32Type := b.AddTypeFloat(32)
	vec3 := b.AddTypeVector(f32Type, 3)
	inPtr := b.AddTypePointer(spirv.StorageClassInput, vec3)

	interfaces := make([]uint32, 0, len(locations))
	for _, loc := range locations {
		v := b.AddVariable(inPtr, spirv.StorageClassInput)
		b.AddDecorate(v, spirv.DecorationLocation, loc)
		interfaces = append(interfaces, v)
	}

	fnType := b.AddTypeFunction(void)
	fn := b.AddFunction(fnType, void, spirv.FunctionControlNone)
	b.AddLabel()
	b.AddReturn()
	b.AddFunctionEnd()

	b.AddEntryPoint(model, fn, entry, interfaces)
	if model == spirv.ExecutionModelFragment {
		b.AddExecutionMode(fn, spirv.ExecutionModeOriginUpperLeft)
	}
	return b.Build()
}

// testVariants returns valid binaries for both pipeline variants.
func testVariants(t testing.TB) map[PipelineKey]ShaderBinaries {
	t.Helper()
	vs := testShader(t, spirv.ExecutionModelVertex, "main", 0, 1)
	fs := testShader(t, spirv.ExecutionModelFragment, "main", 0)
	return map[PipelineKey]ShaderBinaries{
		PipelineDefault:   {Vertex: vs, Fragment: fs},
		PipelineAlternate: {Vertex: vs, Fragment: fs},
	}
}

// newTestContext initializes a GraphicsContext on a fake backend.
func newTestContext(t *testing.T, adapters ...fakeAdapterSpec) (*GraphicsContext, *fakeBackend) {
	t.Helper()
	b := newFakeBackend(adapters...)
	gc, err := Initialize(b, SurfaceTarget{Window: 1})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(gc.Destroy)
	return gc, b
}

// newTestState builds a State on a fake backend with an 800x600 surface.
func newTestState(t *testing.T) (*State, *fakeGPU) {
	t.Helper()
	b := newFakeBackend()
	st, err := NewState(b, SurfaceTarget{Window: 1},
		SurfaceDescriptor{Width: 800, Height: 600}, testVariants(t))
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	t.Cleanup(st.Close)
	return st, b.gpu
}
