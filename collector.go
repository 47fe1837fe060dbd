package vrs

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// ErrNoReader is returned by Collect when the collector has no RateReader.
var ErrNoReader = errors.New("vrs: collector has no rate reader")

// RateReader provides a fully resolved rate image for statistics. A GPU
// implementation maps its readback buffer; the caller guarantees the frame
// is complete before reading.
type RateReader interface {
	ReadRates(ctx context.Context) (*RateImage, error)
}

// RateReaderFunc adapts a function to RateReader.
type RateReaderFunc func(ctx context.Context) (*RateImage, error)

// ReadRates calls f.
func (f RateReaderFunc) ReadRates(ctx context.Context) (*RateImage, error) {
	return f(ctx)
}

// StaticReader always returns the same image.
type StaticReader struct {
	Image *RateImage
}

// ReadRates returns r.Image.
func (r StaticReader) ReadRates(context.Context) (*RateImage, error) {
	return r.Image, nil
}

// Collector computes shading rate percentages on demand.
//
// Readback may stall the producer, so a Collector can be throttled with a
// rate limiter (WithLimiter). Throttled calls return the last result.
//
// Thread safety: Collector is safe for concurrent use.
type Collector struct {
	reader  RateReader
	limiter *rate.Limiter
	rec     Recorder

	mu   sync.Mutex
	last Percentages
}

// NewCollector creates a collector reading from r.
func NewCollector(r RateReader, opts ...Option) *Collector {
	o := buildOptions(opts)
	return &Collector{
		reader:  r,
		limiter: o.limiter,
		rec:     o.rec(),
		last:    DisabledPercentages(),
	}
}

// Collect returns the current percentages. When enabled is false it
// returns DisabledPercentages without reading. fresh is false when the call
// was throttled or the read failed; p is then the previous result.
func (c *Collector) Collect(ctx context.Context, enabled bool) (p Percentages, fresh bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !enabled {
		c.store(DisabledPercentages())
		return c.last, true, nil
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return c.last, false, nil
	}
	if c.reader == nil {
		return c.last, false, ErrNoReader
	}

	img, err := c.reader.ReadRates(ctx)
	if err != nil {
		return c.last, false, err
	}
	c.store(ComputePercentages(img))
	return c.last, true, nil
}

// Last returns the most recent result without reading.
func (c *Collector) Last() Percentages {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Collector) store(p Percentages) {
	c.last = p
	c.rec.SetPercentages(p)
}
