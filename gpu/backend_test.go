//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/portal"
	"github.com/gogpu/portal/render"
)

func TestHalStencilOp(t *testing.T) {
	tests := []struct {
		op   render.StencilOp
		want hal.StencilOperation
	}{
		{render.StencilOpKeep, hal.StencilOperationKeep},
		{render.StencilOpIncrement, hal.StencilOperationIncrementWrap},
		{render.StencilOpZero, hal.StencilOperationZero},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			if got := halStencilOp(tt.op); got != tt.want {
				t.Errorf("halStencilOp(%v) = %v, want %v", tt.op, got, tt.want)
			}
		})
	}
}

func TestDeviceStateKey(t *testing.T) {
	base := baseDeviceState()

	// Stencil reference and depth range are dynamic state: changing
	// them must not produce a new pipeline identity.
	dynamic := base
	dynamic.stencilRef = 7
	dynamic.depthNear, dynamic.depthFar = 1, 1
	if base.key() != dynamic.key() {
		t.Error("dynamic state changed the pipeline key")
	}

	// Every baked field must contribute to the key.
	variants := []func(*deviceState){
		func(s *deviceState) { s.stencilCmp = gputypes.CompareFunctionEqual },
		func(s *deviceState) { s.stencilOp = render.StencilOpIncrement },
		func(s *deviceState) { s.stencilMask = 0x00 },
		func(s *deviceState) { s.depthCmp = gputypes.CompareFunctionAlways },
		func(s *deviceState) { s.depthWrite = false },
		func(s *deviceState) { s.colorMask = gputypes.ColorWriteMaskNone },
		func(s *deviceState) { s.cullMode = gputypes.CullModeNone },
	}
	seen := map[pipelineKey]bool{base.key(): true}
	for i, mutate := range variants {
		s := base
		mutate(&s)
		if seen[s.key()] {
			t.Errorf("variant %d collides with an earlier pipeline key", i)
		}
		seen[s.key()] = true
	}
}

func TestPackUniform(t *testing.T) {
	mvp := portal.Translate3D(1, 2, 3)
	data := packUniform(mvp, 2.0, 3.0, [4]float32{0.1, 0.2, 0.3, 1})

	if len(data) != uniformSize {
		t.Fatalf("uniform size = %d, want %d", len(data), uniformSize)
	}

	at := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}

	// Column-major: the translation column starts at element 12.
	if at(12*4) != 1 || at(13*4) != 2 || at(14*4) != 3 || at(15*4) != 1 {
		t.Errorf("translation column = (%v,%v,%v,%v), want (1,2,3,1)",
			at(12*4), at(13*4), at(14*4), at(15*4))
	}
	if at(64) != 2 || at(68) != 3 {
		t.Errorf("extent = (%v,%v), want (2,3)", at(64), at(68))
	}
	if at(80) != 0.1 || at(92) != 1 {
		t.Errorf("color = (%v..%v), want 0.1..1", at(80), at(92))
	}
}

func TestQuadVertices(t *testing.T) {
	v := quadVertices()
	if len(v) != quadVertexCount*2 {
		t.Fatalf("quad floats = %d, want %d", len(v), quadVertexCount*2)
	}
	for i := 0; i < len(v); i++ {
		if v[i] < -0.5 || v[i] > 0.5 {
			t.Errorf("quad vertex component %d = %v outside unit quad", i, v[i])
		}
	}
}

func TestFrameVertices(t *testing.T) {
	v := frameVertices()
	if len(v) != frameVertexCount*2 {
		t.Fatalf("frame floats = %d, want %d", len(v), frameVertexCount*2)
	}

	// The border bars must stay outside the inner quad on at least one
	// axis per triangle, and inside the outer bound everywhere.
	const out = 0.5 + frameBorder
	for i := 0; i < len(v); i += 2 {
		x, y := v[i], v[i+1]
		if x < -out || x > out || y < -out || y > out {
			t.Errorf("frame vertex (%v,%v) outside outer bound %v", x, y, out)
		}
	}
}

func TestFloatBytes(t *testing.T) {
	data := floatBytes([]float32{1, -2.5})
	if len(data) != 8 {
		t.Fatalf("len = %d, want 8", len(data))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data)); got != 1 {
		t.Errorf("first value = %v, want 1", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[4:])); got != -2.5 {
		t.Errorf("second value = %v, want -2.5", got)
	}
}

func TestFormatFromHandle(t *testing.T) {
	if got := FormatFromHandle(nil); got != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("nil handle format = %v, want BGRA8Unorm", got)
	}
	if got := FormatFromHandle(NullDeviceHandle{}); got != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("null handle format = %v, want BGRA8Unorm", got)
	}
}
