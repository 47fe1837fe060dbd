// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vrs"
)

// Querier answers shading rate capability queries from the wgpu/hal
// adapters of the machine.
//
// WebGPU exposes no fragment shading rate attachment, so rate images are
// produced by the compute kernel and consumed by the host. Any adapter
// that can run compute therefore reports Tier2 with extended rates.
type Querier struct {
	// TileSize is the reported rate image tile size; zero means
	// vrs.DefaultTileSize.
	TileSize int

	// Variant selects the hal backend; zero means Vulkan.
	Variant gputypes.Backend
}

var _ vrs.FeatureQuerier = Querier{}

// QueryShadingRateSupport enumerates adapters of the selected backend.
func (q Querier) QueryShadingRateSupport() (vrs.FeatureSupport, error) {
	variant := q.Variant
	if variant == 0 {
		variant = gputypes.BackendVulkan
	}
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return vrs.FeatureSupport{}, fmt.Errorf("%w: backend %v not available", ErrNoGPU, variant)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return vrs.FeatureSupport{}, fmt.Errorf("create instance: %w", err)
	}
	defer instance.Destroy()

	return supportFor(instance.EnumerateAdapters(nil), q.TileSize)
}

// supportFor derives the capability from an adapter list.
func supportFor(adapters []hal.ExposedAdapter, tileSize int) (vrs.FeatureSupport, error) {
	selected := selectAdapter(adapters)
	if selected == nil {
		return vrs.FeatureSupport{}, ErrNoGPU
	}
	if tileSize <= 0 {
		tileSize = vrs.DefaultTileSize
	}
	slogger().Info("vrs-gpu: adapter supports compute rate images",
		"adapter", selected.Info.Name, "tile_size", tileSize)
	return vrs.FeatureSupport{
		Tier:          vrs.Tier2,
		TileSize:      tileSize,
		ExtendedRates: true,
		SumCombiner:   true,
	}, nil
}
