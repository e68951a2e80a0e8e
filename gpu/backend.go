//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/portal"
	"github.com/gogpu/portal/render"
)

// Backend errors.
var (
	// ErrNoTarget is returned when a frame begins without sized target
	// textures.
	ErrNoTarget = errors.New("gpu: target has no textures, call EnsureSize first")

	// ErrFrameNotStarted is returned when drawing or ending outside
	// BeginFrame/EndFrame.
	ErrFrameNotStarted = errors.New("gpu: no frame in progress")

	// ErrFrameActive is returned when BeginFrame is called twice.
	ErrFrameActive = errors.New("gpu: frame already in progress")
)

// frameTimeout bounds the fence wait at frame end.
const frameTimeout = 5 * time.Second

// deviceState mirrors the fixed-function state the renderer drives.
// Most of it becomes a pipelineKey; stencil reference and depth range
// stay dynamic.
type deviceState struct {
	stencilCmp  gputypes.CompareFunction
	stencilRef  uint32
	stencilOp   render.StencilOp
	stencilMask uint32

	depthCmp   gputypes.CompareFunction
	depthWrite bool
	depthNear  float64
	depthFar   float64

	colorMask gputypes.ColorWriteMask
	cullMode  gputypes.CullMode
}

func baseDeviceState() deviceState {
	return deviceState{
		stencilCmp:  gputypes.CompareFunctionAlways,
		stencilOp:   render.StencilOpKeep,
		stencilMask: 0xFF,
		depthCmp:    gputypes.CompareFunctionLess,
		depthWrite:  true,
		depthNear:   0,
		depthFar:    1,
		colorMask:   gputypes.ColorWriteMaskAll,
		cullMode:    gputypes.CullModeBack,
	}
}

func (s deviceState) key() pipelineKey {
	return pipelineKey{
		stencilCmp:  s.stencilCmp,
		stencilOp:   s.stencilOp,
		stencilMask: s.stencilMask,
		depthCmp:    s.depthCmp,
		depthWrite:  s.depthWrite,
		colorMask:   s.colorMask,
		cullMode:    s.cullMode,
	}
}

// Backend implements render.Device on wgpu-hal.
//
// State setters only record; the pipeline for the accumulated state is
// resolved lazily at each draw through the pipeline cache. Errors hit
// during recording are sticky and surface from EndFrame, so the
// renderer's draw path stays error-free.
//
// Backend is not safe for concurrent use.
type Backend struct {
	device hal.Device
	queue  hal.Queue
	reg    *portal.Registry

	target *Target

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	cache         *pipelineCache

	quadBuf  hal.Buffer
	frameBuf hal.Buffer

	cur      deviceState
	pipeline hal.RenderPipeline

	encoder  hal.CommandEncoder
	pass     hal.RenderPassEncoder
	started  bool
	passOpen bool

	// firstPass marks the frame's initial render pass, which clears
	// color and depth; ClearStencil opens follow-up passes that load
	// them back.
	firstPass    bool
	stencilClear uint32

	// Per-frame uniform buffers and bind groups, released after the
	// fence wait.
	frameBuffers []hal.Buffer
	frameGroups  []hal.BindGroup

	surfaceColor [4]float32
	frameColor   [4]float32

	err error
}

// NewBackend creates a backend over device and queue, drawing portal
// geometry from reg and rendering into target. The target's color
// format must match the format passed here.
func NewBackend(device hal.Device, queue hal.Queue, reg *portal.Registry, target *Target, colorFormat gputypes.TextureFormat) (*Backend, error) {
	b := &Backend{
		device:       device,
		queue:        queue,
		reg:          reg,
		target:       target,
		cur:          baseDeviceState(),
		surfaceColor: [4]float32{0.05, 0.05, 0.08, 1},
		frameColor:   [4]float32{0.9, 0.6, 0.1, 1},
	}

	shader, err := createPortalShader(device)
	if err != nil {
		return nil, err
	}
	b.shader = shader

	uniformLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "portal_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		b.Destroy()
		return nil, fmt.Errorf("create uniform bind group layout: %w", err)
	}
	b.uniformLayout = uniformLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "portal_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{uniformLayout},
	})
	if err != nil {
		b.Destroy()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	b.pipeLayout = pipeLayout

	b.cache = newPipelineCache(device, pipeLayout, shader, colorFormat)

	quadBuf, err := b.createVertexBuffer("portal_quad_verts", quadVertices())
	if err != nil {
		b.Destroy()
		return nil, err
	}
	b.quadBuf = quadBuf

	frameBuf, err := b.createVertexBuffer("portal_frame_verts", frameVertices())
	if err != nil {
		b.Destroy()
		return nil, err
	}
	b.frameBuf = frameBuf

	return b, nil
}

// SetFrameColor sets the fill color of portal border frames.
func (b *Backend) SetFrameColor(c [4]float32) { b.frameColor = c }

// SetSurfaceColor sets the portal surface fill color, visible only in
// passes that enable color writes.
func (b *Backend) SetSurfaceColor(c [4]float32) { b.surfaceColor = c }

// Target returns the backend's render target.
func (b *Backend) Target() *Target { return b.target }

// BeginFrame opens the frame's command encoder. The render pass itself
// starts lazily at the first draw, so the stencil clear value requested
// by the renderer folds into the pass's load op.
func (b *Backend) BeginFrame() error {
	if b.started {
		return ErrFrameActive
	}
	if b.target == nil || b.target.colorView == nil {
		return ErrNoTarget
	}

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "portal_frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("portal_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	b.encoder = encoder
	b.started = true
	b.firstPass = true
	b.stencilClear = 0
	b.cur = baseDeviceState()
	b.pipeline = nil
	b.err = nil
	return nil
}

// EndFrame closes the pass, submits the frame, and waits for the GPU.
// Any error recorded during the frame is returned here.
func (b *Backend) EndFrame() error {
	if !b.started {
		return ErrFrameNotStarted
	}
	b.started = false
	defer b.releaseFrameResources()

	if b.passOpen {
		b.pass.End()
		b.passOpen = false
	}

	if b.err != nil {
		b.encoder.DiscardEncoding()
		err := b.err
		b.err = nil
		return err
	}

	cmdBuf, err := b.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)

	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := b.device.Wait(fence, 1, frameTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// Pass returns the open render pass encoder so scene collaborators can
// record their own draws between BeginFrame and EndFrame. The pass is
// opened on demand.
func (b *Backend) Pass() hal.RenderPassEncoder {
	if !b.started {
		b.fail(ErrFrameNotStarted)
		return nil
	}
	b.ensurePass()
	return b.pass
}

// Destroy releases all GPU resources. The target is owned by its
// portal (or the caller) and is not destroyed here.
func (b *Backend) Destroy() {
	if b.cache != nil {
		b.cache.destroy()
		b.cache = nil
	}
	if b.frameBuf != nil {
		b.device.DestroyBuffer(b.frameBuf)
		b.frameBuf = nil
	}
	if b.quadBuf != nil {
		b.device.DestroyBuffer(b.quadBuf)
		b.quadBuf = nil
	}
	if b.pipeLayout != nil {
		b.device.DestroyPipelineLayout(b.pipeLayout)
		b.pipeLayout = nil
	}
	if b.uniformLayout != nil {
		b.device.DestroyBindGroupLayout(b.uniformLayout)
		b.uniformLayout = nil
	}
	if b.shader != nil {
		b.device.DestroyShaderModule(b.shader)
		b.shader = nil
	}
}

// render.Device implementation.

func (b *Backend) SetStencilFunc(cmp gputypes.CompareFunction, ref uint32) {
	b.cur.stencilCmp = cmp
	b.cur.stencilRef = ref
}

func (b *Backend) SetStencilWrite(op render.StencilOp, mask uint32) {
	b.cur.stencilOp = op
	b.cur.stencilMask = mask
}

func (b *Backend) SetDepthFunc(cmp gputypes.CompareFunction) {
	b.cur.depthCmp = cmp
}

func (b *Backend) SetDepthWrite(enabled bool) {
	b.cur.depthWrite = enabled
}

func (b *Backend) SetDepthRange(near, far float64) {
	b.cur.depthNear = near
	b.cur.depthFar = far
}

func (b *Backend) SetColorWrite(mask gputypes.ColorWriteMask) {
	b.cur.colorMask = mask
}

func (b *Backend) SetCullMode(mode gputypes.CullMode) {
	b.cur.cullMode = mode
}

// ClearStencil clears the stencil buffer to v. Before the first draw
// this folds into the frame's initial pass; afterwards it splits the
// frame into a new pass that reloads color and depth.
func (b *Backend) ClearStencil(v uint32) {
	if !b.started {
		b.fail(ErrFrameNotStarted)
		return
	}
	if b.passOpen {
		b.pass.End()
		b.passOpen = false
	}
	b.stencilClear = v
}

func (b *Backend) DrawPortalSurface(h portal.Handle, mvp portal.Mat4) {
	p := b.reg.Get(h)
	if p == nil {
		b.fail(fmt.Errorf("draw surface %d: %w", h, portal.ErrInvalidHandle))
		return
	}
	b.draw(b.quadBuf, quadVertexCount, mvp, p.Width, p.Height, b.surfaceColor)
}

func (b *Backend) DrawPortalFrame(h portal.Handle, mvp portal.Mat4) {
	p := b.reg.Get(h)
	if p == nil {
		b.fail(fmt.Errorf("draw frame %d: %w", h, portal.ErrInvalidHandle))
		return
	}
	b.draw(b.frameBuf, frameVertexCount, mvp, p.Width, p.Height, b.frameColor)
}

var _ render.Device = (*Backend)(nil)

func (b *Backend) draw(verts hal.Buffer, count uint32, mvp portal.Mat4, width, height float64, color [4]float32) {
	if b.err != nil {
		return
	}
	if !b.started {
		b.fail(ErrFrameNotStarted)
		return
	}
	b.ensurePass()
	if b.err != nil {
		return
	}

	pipe, err := b.cache.get(b.cur.key())
	if err != nil {
		b.fail(err)
		return
	}
	if pipe != b.pipeline {
		b.pass.SetPipeline(pipe)
		b.pipeline = pipe
	}

	w, h := b.target.Size()
	b.pass.SetViewport(0, 0, float32(w), float32(h), float32(b.cur.depthNear), float32(b.cur.depthFar))
	b.pass.SetStencilReference(b.cur.stencilRef)

	group, err := b.uniformFor(mvp, width, height, color)
	if err != nil {
		b.fail(err)
		return
	}

	b.pass.SetBindGroup(0, group, nil)
	b.pass.SetVertexBuffer(0, verts, 0)
	b.pass.Draw(count, 1, 0, 0)
}

// ensurePass opens the render pass if none is recording.
func (b *Backend) ensurePass() {
	if b.passOpen || b.err != nil {
		return
	}
	desc := b.target.passDescriptor(b.firstPass, b.stencilClear)
	if desc == nil {
		b.fail(ErrNoTarget)
		return
	}
	b.pass = b.encoder.BeginRenderPass(desc)
	b.passOpen = true
	b.firstPass = false
	b.pipeline = nil
}

// uniformFor uploads one draw's uniform block and binds it.
func (b *Backend) uniformFor(mvp portal.Mat4, width, height float64, color [4]float32) (hal.BindGroup, error) {
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "portal_draw_uniform",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	b.queue.WriteBuffer(buf, 0, packUniform(mvp, width, height, color))
	b.frameBuffers = append(b.frameBuffers, buf)

	group, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "portal_draw_bind",
		Layout: b.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: uniformSize,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	b.frameGroups = append(b.frameGroups, group)
	return group, nil
}

func (b *Backend) createVertexBuffer(label string, verts []float32) (hal.Buffer, error) {
	data := floatBytes(verts)
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *Backend) releaseFrameResources() {
	for _, g := range b.frameGroups {
		b.device.DestroyBindGroup(g)
	}
	b.frameGroups = b.frameGroups[:0]
	for _, buf := range b.frameBuffers {
		b.device.DestroyBuffer(buf)
	}
	b.frameBuffers = b.frameBuffers[:0]
	b.pass = nil
	b.encoder = nil
	b.passOpen = false
}

func (b *Backend) fail(err error) {
	if b.err == nil {
		b.err = err
		portal.Logger().Error("portal backend error", "err", err)
	}
}
