package vrs

import (
	"context"
	"image"
	"sync"
	"time"
)

// Inputs are the per-frame images handed to the controller.
type Inputs struct {
	Color *ColorFrame

	// Velocity is the motion field at render resolution; HighResVelocity
	// at output resolution. Either may be nil.
	Velocity        *VelocityFrame
	HighResVelocity *VelocityFrame
}

// DrawState is the shading rate state the draw path applies per draw.
type DrawState struct {
	Enabled   bool
	Rate      ShadingRate
	Combiners CombinerStages

	// TileImage is true when a rate image is produced for the frame.
	TileImage bool
}

// Controller runs the shading rate layer of a renderer frame by frame.
//
// Per frame the renderer calls Update with the last frame time, Render with
// the frame's images, and then optionally Percentages and Overlay. Settings
// changes happen between frames through SetSettings.
//
// Thread safety: all methods are serialized by an internal mutex.
type Controller struct {
	mu         sync.Mutex
	cap        Capability
	settings   Settings
	classifier *Classifier
	collector  *Collector
	rec        Recorder

	rates *RateImage
	ready bool

	nativeW, nativeH int
}

// NewController creates a controller. Below Tier2 no classifier is created
// and Render never produces a rate image.
func NewController(c Capability, s Settings, opts ...Option) (*Controller, error) {
	o := buildOptions(opts)
	ctl := &Controller{cap: c, settings: s, rec: o.rec()}

	if c.Supports(Tier2) {
		cl, err := NewClassifier(c, opts...)
		if err != nil {
			return nil, err
		}
		ctl.classifier = cl
		ctl.cap = cl.Capability()
	}
	ctl.collector = NewCollector(RateReaderFunc(ctl.readRates), opts...)
	ctl.rec.SetThreshold(s.Params.SensitivityThreshold)
	return ctl, nil
}

// Capability returns the probed capability.
func (c *Controller) Capability() Capability {
	return c.cap
}

// Settings returns a copy of the current settings.
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// SetSettings replaces the settings. Call between frames.
func (c *Controller) SetSettings(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
	c.rec.SetThreshold(s.Params.SensitivityThreshold)
}

// Update advances per-frame state. With dynamic threshold enabled on a
// Tier2 device, the sensitivity threshold for the next frame is derived
// from frameTime.
func (c *Controller) Update(frameTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.settings.DynamicThreshold || !c.cap.Supports(Tier2) {
		return
	}
	d := DynamicThreshold{TargetFPS: c.settings.TargetFPS}
	t := d.Next(c.settings.Params.SensitivityThreshold, frameTime)
	c.settings.Params.SensitivityThreshold = t
	c.rec.SetThreshold(t)
	Logger().Debug("vrs: dynamic threshold", "frame_time", frameTime, "threshold", t)
}

// Render classifies the frame when shading rates are enabled on a Tier2
// device. It returns the fully written rate image, or nil when no image is
// produced this frame. The returned image is reused by the next frame.
func (c *Controller) Render(ctx context.Context, in Inputs) (*RateImage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ready = false
	if !c.settings.Enabled || c.classifier == nil {
		return nil, nil
	}
	if err := in.Color.Validate(); err != nil {
		return nil, err
	}

	if c.rates == nil || !c.rates.Fits(in.Color.Width, in.Color.Height) {
		c.rates = c.classifier.NewRateImage(in.Color.Width, in.Color.Height)
	}
	c.nativeW, c.nativeH = in.Color.Width, in.Color.Height

	vel := in.Velocity
	if in.HighResVelocity != nil && (c.settings.Params.UseHighResVelocity || vel == nil) {
		vel = in.HighResVelocity
	}

	if err := c.classifier.ClassifyInto(ctx, c.rates, in.Color, vel, c.settings.Params); err != nil {
		return nil, err
	}
	c.ready = true
	return c.rates, nil
}

// ShadingRateState returns the per-draw state for the draw path.
func (c *Controller) ShadingRateState() DrawState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.settings.Enabled || !c.cap.Supports(Tier1) {
		return DrawState{Rate: Rate1x1, Combiners: CombinerStages{}}
	}
	return DrawState{
		Enabled:   true,
		Rate:      c.cap.Clamp(c.settings.Tier1Rate),
		Combiners: c.settings.Combiners,
		TileImage: c.classifier != nil,
	}
}

// Percentages returns the rate distribution of the last rendered frame.
// Without a rate image for the frame, every tile counts as 1x1. fresh is
// false when statistics are turned off or the read was throttled.
func (c *Controller) Percentages(ctx context.Context) (p Percentages, fresh bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.settings.CalculatePercents {
		return c.collector.Last(), false, nil
	}
	return c.collector.Collect(ctx, c.settings.Enabled && c.ready)
}

// readRates is the collector's reader. It runs with c.mu held.
func (c *Controller) readRates(context.Context) (*RateImage, error) {
	return c.rates, nil
}

// Overlay draws the debug overlay for the last frame on frame, which may be
// at output resolution. It returns nil when the overlay is off or there is
// no rate image.
func (c *Controller) Overlay(frame image.Image) (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.settings.Overlay || !c.ready {
		return nil, nil
	}
	o := Overlay{
		BlendTint:    c.settings.BlendMask,
		Grid:         c.settings.DrawGrid,
		NativeWidth:  c.nativeW,
		NativeHeight: c.nativeH,
	}
	return o.Draw(frame, c.rates)
}

// Close releases classifier resources.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.classifier != nil {
		c.classifier.Close()
	}
}
