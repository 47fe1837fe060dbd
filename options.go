package vrs

import (
	"time"

	"golang.org/x/time/rate"
)

// Recorder receives classifier and statistics measurements. The metrics
// package provides a Prometheus implementation.
type Recorder interface {
	ObserveClassify(backend string, d time.Duration)
	ObserveFallback(from string)
	SetPercentages(p Percentages)
	SetThreshold(t float64)
}

// Option configures a Classifier, Collector or Controller.
//
// Example:
//
//	c, err := vrs.NewClassifier(capability,
//	    vrs.WithWorkers(4),
//	    vrs.WithRecorder(metrics.NewRecorder(prometheus.DefaultRegisterer)),
//	)
type Option func(*options)

type options struct {
	backend     Backend
	backendName string
	workers     int
	limiter     *rate.Limiter
	recorder    Recorder
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithBackend forces a specific backend instead of the highest priority
// registered one.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithBackendName selects a registered backend by name. NewClassifier
// fails with ErrNoBackend if it is not registered.
func WithBackendName(name string) Option {
	return func(o *options) {
		o.backendName = name
	}
}

// WithWorkers sets the number of CPU workers. Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLimiter throttles statistics readback. Without a limiter every
// Collect call reads back.
//
// Example:
//
//	// at most two readbacks per second
//	vrs.WithLimiter(rate.NewLimiter(2, 1))
func WithLimiter(l *rate.Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

// WithRecorder reports measurements to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveClassify(string, time.Duration) {}
func (nopRecorder) ObserveFallback(string)                {}
func (nopRecorder) SetPercentages(Percentages)            {}
func (nopRecorder) SetThreshold(float64)                  {}

func (o options) rec() Recorder {
	if o.recorder == nil {
		return nopRecorder{}
	}
	return o.recorder
}
