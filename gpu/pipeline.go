//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/portal/render"
)

// pipelineKey identifies one fixed-function state combination. Stencil
// reference and depth range are excluded: both are dynamic pass-encoder
// state and need no pipeline of their own.
type pipelineKey struct {
	stencilCmp  gputypes.CompareFunction
	stencilOp   render.StencilOp
	stencilMask uint32
	depthCmp    gputypes.CompareFunction
	depthWrite  bool
	colorMask   gputypes.ColorWriteMask
	cullMode    gputypes.CullMode
}

// halStencilOp maps the renderer's pass operation onto wgpu-hal.
// Fail and depth-fail always keep the stored value.
func halStencilOp(op render.StencilOp) hal.StencilOperation {
	switch op {
	case render.StencilOpIncrement:
		return hal.StencilOperationIncrementWrap
	case render.StencilOpZero:
		return hal.StencilOperationZero
	default:
		return hal.StencilOperationKeep
	}
}

// pipelineCache lazily builds one render pipeline per distinct key.
// The recursive walk only touches a handful of combinations per frame,
// so the cache stays small and is never evicted.
type pipelineCache struct {
	device      hal.Device
	layout      hal.PipelineLayout
	shader      hal.ShaderModule
	colorFormat gputypes.TextureFormat

	pipelines map[pipelineKey]hal.RenderPipeline
}

func newPipelineCache(device hal.Device, layout hal.PipelineLayout, shader hal.ShaderModule, colorFormat gputypes.TextureFormat) *pipelineCache {
	return &pipelineCache{
		device:      device,
		layout:      layout,
		shader:      shader,
		colorFormat: colorFormat,
		pipelines:   make(map[pipelineKey]hal.RenderPipeline),
	}
}

// get returns the pipeline for key, creating it on first use.
func (c *pipelineCache) get(key pipelineKey) (hal.RenderPipeline, error) {
	if p, ok := c.pipelines[key]; ok {
		return p, nil
	}

	// Portal quads are drawn from both sides; front and back faces
	// share one stencil face state.
	face := hal.StencilFaceState{
		Compare:     key.stencilCmp,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      halStencilOp(key.stencilOp),
	}

	p, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("portal_pipeline_%d", len(c.pipelines)),
		Layout: c.layout,
		Vertex: hal.VertexState{
			Module:     c.shader,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{
				{
					ArrayStride: vertexStride,
					StepMode:    gputypes.VertexStepModeVertex,
					Attributes: []gputypes.VertexAttribute{
						{
							Format:         gputypes.VertexFormatFloat32x2,
							Offset:         0,
							ShaderLocation: 0,
						},
					},
				},
			},
		},
		Fragment: &hal.FragmentState{
			Module:     c.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    c.colorFormat,
					WriteMask: key.colorMask,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            gputypes.TextureFormatDepth24PlusStencil8,
			DepthWriteEnabled: key.depthWrite,
			DepthCompare:      key.depthCmp,
			StencilFront:      face,
			StencilBack:       face,
			StencilReadMask:   0xFF,
			StencilWriteMask:  key.stencilMask,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: key.cullMode,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create portal pipeline: %w", err)
	}
	c.pipelines[key] = p
	return p, nil
}

// destroy releases every cached pipeline. Safe to call twice.
func (c *pipelineCache) destroy() {
	for key, p := range c.pipelines {
		c.device.DestroyRenderPipeline(p)
		delete(c.pipelines, key)
	}
}
