// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/gogpu/vrs"
	"github.com/gogpu/vrs/internal/contrast"
)

// boundaryEpsilon is how close perceived contrast may sit to a band edge
// before a differing decision is attributed to float rounding on the GPU.
const boundaryEpsilon = 1e-4

// noisyFrame returns a frame whose tiles land in every band: the noise
// amplitude changes per 16px block.
func noisyFrame(w, h int, seed uint64) *vrs.ColorFrame {
	rng := rand.New(rand.NewPCG(seed, 11))
	f := vrs.NewColorFrame(w, h)
	for y := range h {
		for x := range w {
			amp := ((x/16)*37 + (y/16)*91) % 256
			v := uint8(rng.IntN(amp + 1))
			i := y*f.Stride + x*4
			f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3] = v, v, v, 255
		}
	}
	return f
}

// swirl returns a velocity field whose speed grows towards the right edge.
func swirl(w, h int) *vrs.VelocityFrame {
	v := vrs.NewVelocityFrame(w, h)
	for y := range h {
		for x := range w {
			s := 4 * float32(x) / float32(w)
			v.Set(x, y, s, -s/2)
		}
	}
	return v
}

// nearBoundary reports whether the tile's perceived contrast is within
// boundaryEpsilon of either band edge.
func nearBoundary(job *ContrastJob, x0, y0, w, h int) bool {
	img := &contrast.Image{Width: job.Width, Height: job.Height, Stride: job.Stride, Pix: job.Pixels}
	raw, base := contrast.Measure(img, x0, y0, w, h, make([]float32, w*h))

	var m float32
	if job.Params.Motion && job.Velocity != nil {
		vel := &contrast.Velocity{Width: job.VelWidth, Height: job.VelHeight, Vec: job.Velocity}
		m = contrast.MaxMotion(vel, job.Width, job.Height, x0, y0, w, h)
	}
	c := float64(contrast.Perceive(raw, base, m, job.Params))
	t := float64(job.Params.Threshold)
	return math.Abs(c-t) < boundaryEpsilon || math.Abs(c*float64(job.Params.K)-t) < boundaryEpsilon
}

func TestContrastKernelMatchesCPU(t *testing.T) {
	if testing.Short() {
		t.Skip("GPU parity test skipped in short mode")
	}

	b := NewBackend()
	if err := b.Init(); err != nil {
		t.Skipf("no Vulkan adapter: %v", err)
	}
	defer b.Close()

	cpu := vrs.NewCPUBackend(2)
	if err := cpu.Init(); err != nil {
		t.Fatal(err)
	}
	defer cpu.Close()

	extended := vrs.Capability{Tier: vrs.Tier2, TileSize: 16, ExtendedRates: true}
	base := vrs.Capability{Tier: vrs.Tier2, TileSize: 8}

	tests := []struct {
		name     string
		w, h     int
		caps     vrs.Capability
		params   func(p *vrs.Params)
		velocity *vrs.VelocityFrame
	}{
		{"defaults", 128, 96, extended, func(*vrs.Params) {}, nil},
		{"edge tiles", 101, 67, extended, func(*vrs.Params) {}, nil},
		{"weber-fechner", 101, 67, extended, func(p *vrs.Params) {
			p.UseWeberFechnerLaw = true
			p.AmbientLuma = 0.2
		}, nil},
		{"motion half resolution", 101, 67, extended, func(p *vrs.Params) {
			p.UseMotionVectors = true
		}, swirl(51, 34)},
		{"weber-fechner and motion", 96, 64, extended, func(p *vrs.Params) {
			p.UseWeberFechnerLaw = true
			p.UseMotionVectors = true
			p.SensitivityThreshold = 0.3
		}, swirl(96, 64)},
		{"tile 8 without quarter", 75, 45, base, func(p *vrs.Params) {
			p.QuarterRateSensitivity = 4
		}, nil},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := vrs.DefaultParams()
			tt.params(&p)
			req := &vrs.Request{
				Color:      noisyFrame(tt.w, tt.h, uint64(i+1)),
				Velocity:   tt.velocity,
				Params:     p,
				Capability: tt.caps,
			}

			want := vrs.NewRateImage(tt.w, tt.h, tt.caps.TileSize)
			if err := cpu.Classify(context.Background(), req, want); err != nil {
				t.Fatalf("cpu classify: %v", err)
			}
			got := vrs.NewRateImage(tt.w, tt.h, tt.caps.TileSize)
			if err := b.Classify(context.Background(), req, got); err != nil {
				t.Fatalf("gpu classify: %v", err)
			}

			job := newJob(req, tt.caps.TileSize)
			size := tt.caps.TileSize
			bands := map[vrs.ShadingRate]int{}
			for ty := range want.Height {
				for tx := range want.Width {
					cpuRate, gpuRate := want.At(tx, ty), got.At(tx, ty)
					bands[cpuRate]++
					if cpuRate == gpuRate {
						continue
					}
					x0, y0 := tx*size, ty*size
					if nearBoundary(job, x0, y0, min(size, tt.w-x0), min(size, tt.h-y0)) {
						continue
					}
					t.Errorf("tile (%d,%d): gpu = %v, cpu = %v", tx, ty, gpuRate, cpuRate)
				}
			}
			if len(bands) < 2 {
				t.Errorf("frame exercised only %v; want several bands", bands)
			}
		})
	}
}
