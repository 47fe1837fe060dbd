//go:build !nogpu

// Package gpu classifies frames into shading rate images on the GPU.
//
// WebGPU has no fragment shading rate attachment, so the rate image is
// produced by a compute kernel (shaders/contrast_adaptive.wgsl) and read
// back to the host, where it is handed to the rasterizer by the caller.
// The kernel mirrors internal/contrast exactly: the CPU path is the
// reference and the fallback.
//
// # Pipeline
//
//	RGBA frame + velocity -> storage buffers -> compute pass (one invocation
//	per tile) -> rate codes -> staging buffer -> RateImage
//
// The fence wait after submit is the completion barrier for a frame: a
// rate image returned by Backend.Classify is fully written.
//
// Devices come from wgpu/hal. Backend.Init opens its own Vulkan device;
// Backend.SetDeviceProvider reuses a device shared with the host
// application. Errors during a frame are returned as vrs.ErrFallbackToCPU.
package gpu
