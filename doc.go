// Package vrs provides contrast adaptive variable rate shading for Go
// renderers.
//
// # Overview
//
// vrs looks at each rendered frame and decides, per screen tile, how coarse
// the next frame may be shaded without visible loss. Tiles with high
// luminance contrast keep full rate (1x1); flat or fast moving tiles drop to
// half (2x2) or quarter (4x4) rate. The result is a RateImage, one byte per
// tile in the shading rate encoding used by D3D12 and Vulkan, ready to be
// bound as a shading rate attachment.
//
// # Quick Start
//
//	import "github.com/gogpu/vrs"
//
//	c := vrs.Probe(querier) // capability of the device
//	ctl, err := vrs.NewController(c, vrs.DefaultSettings())
//	if err != nil {
//	    return err
//	}
//	defer ctl.Close()
//
//	// Per frame:
//	ctl.Update(lastFrameTime)
//	rates, err := ctl.Render(ctx, vrs.Inputs{Color: vrs.ColorFrameFromImage(frame)})
//	state := ctl.ShadingRateState() // per-draw rate and combiners
//
// # Capabilities
//
// Probe asks a FeatureQuerier once. Devices without support get
// Unsupported and never produce a rate image. Tier1 devices use a single
// per-draw rate. Tier2 devices get per-tile rate images and combiners.
// Every rate vrs emits is legal for the probed Capability: 2x4, 4x2 and
// 4x4 only appear with ExtendedRates.
//
// # Classification
//
// For every tile the classifier measures the largest luminance step between
// adjacent pixels, optionally scales it by the Weber-Fechner law and
// relaxes it by the largest motion vector in the tile, then compares it
// against the sensitivity threshold:
//
//	c >= T        -> 1x1
//	c * K >= T    -> 2x2
//	otherwise     -> 4x4 when allowed, else 2x2
//
// A higher threshold never yields a finer rate for the same input.
//
// # Backends
//
// Classification runs on a Backend. The CPU backend is always available
// and classifies tile rows on a worker pool. Importing the gpu package
// registers a compute backend built on wgpu/hal:
//
//	import _ "github.com/gogpu/vrs/gpu"
//
// A backend that cannot handle a frame returns ErrFallbackToCPU and the
// frame is retried on the CPU.
//
// # Statistics and Debugging
//
// Collector reports the share of tiles at each rate, throttled by an
// optional rate limiter. Overlay tints tiles by rate for visual debugging,
// and ReportWriter logs experiments as CSV. The metrics package exports
// the same numbers to Prometheus.
//
// # Logging
//
// vrs is silent by default. Use SetLogger to route its log/slog output.
package vrs
