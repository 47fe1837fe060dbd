// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package gpu registers the GPU classification backend.
//
// Import this package to classify shading rate tiles with a compute
// kernel through wgpu/hal. If GPU initialization fails (no Vulkan
// available), the registration is skipped with a warning and
// classification stays on the CPU.
//
// Usage:
//
//	import _ "github.com/gogpu/vrs/gpu" // enable GPU classification
package gpu

import (
	"errors"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/vrs"
	gpuimpl "github.com/gogpu/vrs/internal/gpu"
)

func init() {
	if err := vrs.RegisterBackend(gpuimpl.NewBackend()); err != nil {
		vrs.Logger().Warn("GPU classifier not available", "err", err)
	}
}

// SetDeviceProvider makes the GPU backend share the host application's
// device instead of opening its own.
//
// The provider must also expose HalDevice() and HalQueue() for direct
// HAL access.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	if provider == nil {
		return errors.New("vrs/gpu: nil device provider")
	}
	return vrs.SetBackendDeviceProvider(provider)
}

// Querier returns a capability querier backed by the machine's adapters.
// A tileSize of zero selects vrs.DefaultTileSize.
func Querier(tileSize int) vrs.FeatureQuerier {
	return gpuimpl.Querier{TileSize: tileSize}
}
