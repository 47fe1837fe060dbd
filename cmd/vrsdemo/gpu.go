//go:build !nogpu

package main

import (
	"github.com/gogpu/vrs"
	"github.com/gogpu/vrs/gpu"
)

func gpuQuerier(tileSize int) vrs.FeatureQuerier {
	return gpu.Querier(tileSize)
}
