//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/portal"
)

//go:embed shaders/portal.wgsl
var portalShaderSource string

// vertexStride is the byte stride per vertex: 2 x float32 (x, y).
const vertexStride = 8

// uniformSize is the byte size of the per-draw uniform block.
// Layout: mvp (mat4x4<f32>) + extent (vec4<f32>) + color (vec4<f32>).
const uniformSize = 96

// compileShaderToSPIRV compiles WGSL source to a SPIR-V uint32 slice.
func compileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// createPortalShader builds the shared portal shader module. SPIR-V via
// naga is preferred; backends that reject it get the WGSL source.
func createPortalShader(device hal.Device) (hal.ShaderModule, error) {
	spirv, err := compileShaderToSPIRV(portalShaderSource)
	if err != nil {
		portal.Logger().Warn("naga translation failed, using WGSL source", "err", err)
		m, werr := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  "portal_shader",
			Source: hal.ShaderSource{WGSL: portalShaderSource},
		})
		if werr != nil {
			return nil, fmt.Errorf("create portal shader: %w", werr)
		}
		return m, nil
	}

	m, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "portal_shader",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("create portal shader: %w", err)
	}
	return m, nil
}
