//go:build !nogpu

package gpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (a windowing framework, an engine, a test harness) owns the
// GPU device and passes a handle down; this package never creates one.
// DeviceHandle is an alias for gpucontext.DeviceProvider so any
// gpucontext-compatible host plugs in directly.
type DeviceHandle = gpucontext.DeviceProvider

// FormatFromHandle returns the host surface format, or BGRA8Unorm when
// the handle reports none. Used to pick the color target format for
// portal render pipelines.
func FormatFromHandle(h DeviceHandle) gputypes.TextureFormat {
	if h == nil {
		return gputypes.TextureFormatBGRA8Unorm
	}
	if f := h.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		return f
	}
	return gputypes.TextureFormatBGRA8Unorm
}

// NullDeviceHandle is a DeviceHandle with nil implementations, for
// headless runs where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null handle.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null handle.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null handle.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null handle.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
