package vrs

import (
	"context"
	"sync"

	"github.com/gogpu/vrs/internal/contrast"
	"github.com/gogpu/vrs/internal/parallel"
)

// CPUBackend classifies tiles on a worker pool, one tile row per work item.
// It is the reference implementation of the GPU kernel and the fallback for
// every other backend.
type CPUBackend struct {
	workers int
	pool    *parallel.WorkerPool
	scratch sync.Pool
}

// NewCPUBackend creates a CPU backend with n workers (0 means GOMAXPROCS).
func NewCPUBackend(n int) *CPUBackend {
	return &CPUBackend{workers: n}
}

// Name returns "cpu".
func (b *CPUBackend) Name() string { return "cpu" }

// Priority returns 0; any accelerated backend takes precedence.
func (b *CPUBackend) Priority() int { return 0 }

// Init starts the worker pool.
func (b *CPUBackend) Init() error {
	if b.pool == nil || !b.pool.IsRunning() {
		b.pool = parallel.NewWorkerPool(b.workers)
	}
	return nil
}

// Close stops the worker pool.
func (b *CPUBackend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

// Classify writes a rate for every tile of req.Color into dst.
func (b *CPUBackend) Classify(ctx context.Context, req *Request, dst *RateImage) error {
	if b.pool == nil {
		if err := b.Init(); err != nil {
			return err
		}
	}

	img := req.Color.kernel()
	vel := req.Velocity.kernel()
	kp := kernelParams(req)
	size := dst.TileSize

	grid := parallel.NewTileGrid(req.Color.Width, req.Color.Height, size)
	Logger().Debug("vrs: cpu classify",
		"tiles_x", grid.TilesX(), "tiles_y", grid.TilesY(), "tiles", grid.TileCount(), "workers", b.pool.Workers())

	work := grid.RowWork(func(t parallel.Tile) {
		if ctx.Err() != nil {
			return
		}
		s := b.getScratch(t.Pixels())
		band := contrast.Classify(img, vel, t.PX, t.PY, t.Width, t.Height, kp, *s)
		b.scratch.Put(s)
		dst.Set(t.X, t.Y, bandRate(band))
	})
	b.pool.ExecuteAll(work)

	return ctx.Err()
}

// getScratch returns a luminance buffer of at least n values.
func (b *CPUBackend) getScratch(n int) *[]float32 {
	if s, ok := b.scratch.Get().(*[]float32); ok && len(*s) >= n {
		return s
	}
	s := make([]float32, n)
	return &s
}

// kernelParams converts a request into the kernel parameter set.
func kernelParams(req *Request) contrast.Params {
	p := req.Params
	return contrast.Params{
		Threshold:            float32(p.SensitivityThreshold),
		K:                    float32(p.QuarterRateSensitivity),
		AmbientLuma:          float32(p.AmbientLuma),
		WeberFechnerConstant: float32(p.WeberFechnerConstant),
		WeberFechner:         p.UseWeberFechnerLaw,
		Motion:               p.UseMotionVectors && req.Velocity != nil,
		Quarter:              req.AllowQuarter(),
	}
}

func bandRate(b contrast.Band) ShadingRate {
	switch b {
	case contrast.BandQuarter:
		return Rate4x4
	case contrast.BandHalf:
		return Rate2x2
	default:
		return Rate1x1
	}
}
