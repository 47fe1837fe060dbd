//go:build nogpu

package main

import (
	"errors"

	"github.com/gogpu/vrs"
)

func gpuQuerier(int) vrs.FeatureQuerier {
	return vrs.StaticQuerier{Err: errors.New("built without GPU support")}
}
