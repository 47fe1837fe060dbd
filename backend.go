package vrs

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrFallbackToCPU indicates a backend cannot classify this frame.
// The Classifier transparently retries on the CPU backend.
var ErrFallbackToCPU = errors.New("vrs: falling back to CPU classification")

// Request is one frame of classification work handed to a Backend.
type Request struct {
	Color *ColorFrame

	// Velocity is nil when motion relaxation is off or no field was
	// supplied for this frame.
	Velocity *VelocityFrame

	Params     Params
	Capability Capability
}

// AllowQuarter reports whether 4x4 may be emitted for this request.
func (r *Request) AllowQuarter() bool {
	return r.Params.AllowQuarterRate && r.Capability.ExtendedRates
}

// Backend produces a rate image for a frame.
//
// Implementations must fully write dst before Classify returns; callers rely
// on that as the frame completion barrier. Backends are registered with
// RegisterBackend, usually from an init function of a package that is
// enabled by blank import:
//
//	import _ "github.com/gogpu/vrs/gpu" // enables GPU classification
type Backend interface {
	// Name returns the backend name (e.g., "cpu", "wgpu").
	Name() string

	// Init prepares backend resources. Called once during registration.
	Init() error

	// Close releases backend resources.
	Close()

	// Priority orders backends; the highest registered one is the default.
	Priority() int

	// Classify writes one rate per tile of req.Color into dst.
	// Returns ErrFallbackToCPU if the frame cannot be handled.
	Classify(ctx context.Context, req *Request, dst *RateImage) error
}

// DeviceProviderAware is implemented by backends that can share a GPU
// device with the host renderer.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	backendsMu sync.RWMutex
	backends   = map[string]Backend{}
)

// RegisterBackend registers b under its name, replacing and closing any
// backend registered under the same name. b.Init is called first; if it
// fails, b is not registered and the error is returned.
func RegisterBackend(b Backend) error {
	if b == nil {
		return errors.New("vrs: backend must not be nil")
	}
	if err := b.Init(); err != nil {
		return err
	}
	propagateLogger(b, Logger())

	backendsMu.Lock()
	old := backends[b.Name()]
	backends[b.Name()] = b
	backendsMu.Unlock()

	if old != nil && old != b {
		old.Close()
	}
	Logger().Info("vrs: backend registered", "name", b.Name(), "priority", b.Priority())
	return nil
}

// UnregisterBackend removes and closes the named backend.
func UnregisterBackend(name string) {
	backendsMu.Lock()
	b := backends[name]
	delete(backends, name)
	backendsMu.Unlock()
	if b != nil {
		b.Close()
	}
}

// LookupBackend returns the named backend, or nil.
func LookupBackend(name string) Backend {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	return backends[name]
}

// Backends returns the registered backends, highest priority first.
func Backends() []Backend {
	backendsMu.RLock()
	bs := make([]Backend, 0, len(backends))
	for _, b := range backends {
		bs = append(bs, b)
	}
	backendsMu.RUnlock()

	sort.Slice(bs, func(i, j int) bool {
		if bs[i].Priority() != bs[j].Priority() {
			return bs[i].Priority() > bs[j].Priority()
		}
		return bs[i].Name() < bs[j].Name()
	})
	return bs
}

// SetBackendDeviceProvider passes a device provider to every registered
// backend that supports device sharing.
func SetBackendDeviceProvider(provider any) error {
	var errs []error
	for _, b := range Backends() {
		if dpa, ok := b.(DeviceProviderAware); ok {
			if err := dpa.SetDeviceProvider(provider); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
