//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/portal"
)

// Portal geometry lives in unit quad space, x and y in [-0.5, 0.5];
// the vertex shader scales it by the portal extents. One quad buffer
// and one frame buffer serve every portal.

const (
	quadVertexCount  = 6
	frameVertexCount = 24

	// frameBorder is the border bar thickness in unit quad space,
	// i.e. relative to the portal extents.
	frameBorder = 0.05
)

// quadVertices returns the portal surface as two triangles.
func quadVertices() []float32 {
	return []float32{
		-0.5, -0.5, 0.5, -0.5, 0.5, 0.5,
		-0.5, -0.5, 0.5, 0.5, -0.5, 0.5,
	}
}

// frameVertices returns four border bars hugging the quad's edges.
func frameVertices() []float32 {
	const in, out = 0.5, 0.5 + frameBorder
	var v []float32
	v = appendQuad(v, -out, in, out, out)   // top
	v = appendQuad(v, -out, -out, out, -in) // bottom
	v = appendQuad(v, -out, -in, -in, in)   // left
	v = appendQuad(v, in, -in, out, in)     // right
	return v
}

func appendQuad(v []float32, x0, y0, x1, y1 float32) []float32 {
	return append(v,
		x0, y0, x1, y0, x1, y1,
		x0, y0, x1, y1, x0, y1,
	)
}

// floatBytes packs float32 values little-endian for buffer upload.
func floatBytes(f []float32) []byte {
	out := make([]byte, len(f)*4)
	for i, v := range f {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// packUniform lays out one draw's uniform block: the MVP matrix in
// column-major float32, the portal extents, and the fill color.
func packUniform(mvp portal.Mat4, width, height float64, color [4]float32) []byte {
	out := make([]byte, uniformSize)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(mvp[i])))
	}
	binary.LittleEndian.PutUint32(out[64:], math.Float32bits(float32(width)))
	binary.LittleEndian.PutUint32(out[68:], math.Float32bits(float32(height)))
	for i, c := range color {
		binary.LittleEndian.PutUint32(out[80+i*4:], math.Float32bits(c))
	}
	return out
}
