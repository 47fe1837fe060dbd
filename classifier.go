package vrs

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors.
var (
	// ErrTileRatesUnsupported is returned when per-tile classification is
	// requested on a device below Tier2. Such devices use a single global
	// rate instead; this is a normal operating mode.
	ErrTileRatesUnsupported = errors.New("vrs: per-tile shading rates not supported")

	// ErrInvalidFrame reports a malformed input or output buffer.
	ErrInvalidFrame = errors.New("vrs: invalid frame")

	// ErrSizeMismatch reports a rate image that does not match the frame.
	ErrSizeMismatch = errors.New("vrs: rate image does not match frame size")

	// ErrNoBackend reports that a requested backend is not registered.
	ErrNoBackend = errors.New("vrs: no such backend")
)

// Classifier produces per-tile shading rate images from rendered frames.
//
// The backend is chosen once at construction from the Capability and the
// registered backends. Frames are classified one at a time; Classify must
// not be called concurrently on the same Classifier.
type Classifier struct {
	cap     Capability
	backend Backend
	cpu     *CPUBackend
	rec     Recorder
}

// NewClassifier creates a classifier for the given capability.
//
// It returns ErrTileRatesUnsupported when the capability is below Tier2.
// Without options the highest priority registered backend is used, and the
// CPU backend when none is registered.
func NewClassifier(c Capability, opts ...Option) (*Classifier, error) {
	if !c.Supports(Tier2) {
		return nil, fmt.Errorf("%w (tier %v)", ErrTileRatesUnsupported, c.Tier)
	}
	if c.TileSize <= 0 {
		c.TileSize = DefaultTileSize
	}

	o := buildOptions(opts)
	cpu := NewCPUBackend(o.workers)
	if err := cpu.Init(); err != nil {
		return nil, err
	}

	cl := &Classifier{cap: c, cpu: cpu, rec: o.rec()}
	switch {
	case o.backend != nil:
		cl.backend = o.backend
	case o.backendName != "":
		if o.backendName == cpu.Name() {
			cl.backend = cpu
			break
		}
		b := LookupBackend(o.backendName)
		if b == nil {
			cpu.Close()
			return nil, fmt.Errorf("%w: %q", ErrNoBackend, o.backendName)
		}
		cl.backend = b
	default:
		if bs := Backends(); len(bs) > 0 && bs[0].Priority() > cpu.Priority() {
			cl.backend = bs[0]
		} else {
			cl.backend = cpu
		}
	}

	Logger().Info("vrs: classifier ready",
		"backend", cl.backend.Name(),
		"tile_size", c.TileSize,
		"extended_rates", c.ExtendedRates)
	return cl, nil
}

// Capability returns the capability the classifier was built for.
func (cl *Classifier) Capability() Capability {
	return cl.cap
}

// Backend returns the name of the selected backend.
func (cl *Classifier) Backend() string {
	return cl.backend.Name()
}

// NewRateImage allocates a rate image sized for a frame.
func (cl *Classifier) NewRateImage(frameWidth, frameHeight int) *RateImage {
	return NewRateImage(frameWidth, frameHeight, cl.cap.TileSize)
}

// Classify allocates a rate image and classifies color into it.
// velocity may be nil.
func (cl *Classifier) Classify(ctx context.Context, color *ColorFrame, velocity *VelocityFrame, p Params) (*RateImage, error) {
	if err := color.Validate(); err != nil {
		return nil, err
	}
	dst := cl.NewRateImage(color.Width, color.Height)
	if err := cl.ClassifyInto(ctx, dst, color, velocity, p); err != nil {
		return nil, err
	}
	return dst, nil
}

// ClassifyInto classifies color into an existing rate image. The image is
// fully written when ClassifyInto returns nil.
func (cl *Classifier) ClassifyInto(ctx context.Context, dst *RateImage, color *ColorFrame, velocity *VelocityFrame, p Params) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := color.Validate(); err != nil {
		return err
	}
	if dst == nil || dst.TileSize != cl.cap.TileSize || !dst.Fits(color.Width, color.Height) {
		return fmt.Errorf("%w: frame %dx%d, tile %d", ErrSizeMismatch, color.Width, color.Height, cl.cap.TileSize)
	}

	p = p.Sanitize()
	req := &Request{
		Color:      color,
		Velocity:   usableVelocity(velocity, p),
		Params:     p,
		Capability: cl.cap,
	}

	start := time.Now()
	used := cl.backend
	err := used.Classify(ctx, req, dst)
	if err != nil && errors.Is(err, ErrFallbackToCPU) && used != Backend(cl.cpu) {
		Logger().Warn("vrs: backend fell back to CPU", "backend", used.Name(), "err", err)
		cl.rec.ObserveFallback(used.Name())
		used = cl.cpu
		err = used.Classify(ctx, req, dst)
	}
	if err != nil {
		return fmt.Errorf("vrs: classify with %s: %w", used.Name(), err)
	}
	cl.rec.ObserveClassify(used.Name(), time.Since(start))

	if n := cl.legalize(dst); n > 0 {
		Logger().Warn("vrs: backend produced illegal rates, clamped", "backend", used.Name(), "tiles", n)
	}
	return nil
}

// legalize clamps any cell outside the legal set and returns how many
// cells were changed.
func (cl *Classifier) legalize(img *RateImage) int {
	n := 0
	for y := range img.Height {
		row := img.Row(y)
		for x, v := range row {
			r := ShadingRate(v)
			if r == Rate1x1 || cl.cap.IsRateSupported(r) {
				continue
			}
			row[x] = uint8(cl.cap.Clamp(r))
			n++
		}
	}
	return n
}

// Close releases the classifier's CPU workers. Registered backends are
// owned by the registry and stay open.
func (cl *Classifier) Close() {
	cl.cpu.Close()
}
