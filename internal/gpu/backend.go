//go:build !nogpu

package gpu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vrs"
	"github.com/gogpu/vrs/internal/contrast"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// BackendName is the registry name of the GPU backend.
const BackendName = "wgpu"

// backendPriority places the GPU backend above the CPU backend.
const backendPriority = 10

var (
	// ErrNoGPU is returned by Init when no usable adapter exists.
	ErrNoGPU = errors.New("vrs-gpu: no GPU adapter available")

	// ErrNotInitialized is returned when classifying before Init.
	ErrNotInitialized = errors.New("vrs-gpu: backend not initialized")
)

// Backend classifies frames with the contrast adaptive compute kernel.
// It implements vrs.Backend.
//
// Any GPU failure during a frame is reported as vrs.ErrFallbackToCPU so
// the classifier retries on the CPU.
type Backend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	dispatcher *ContrastDispatcher

	adapterName    string
	externalDevice bool // true when using a shared device (don't destroy on Close)
}

var _ vrs.Backend = (*Backend)(nil)

// NewBackend returns an uninitialized GPU backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Name returns "wgpu".
func (b *Backend) Name() string { return BackendName }

// Priority returns a priority above the CPU backend.
func (b *Backend) Priority() int { return backendPriority }

// SetLogger receives the logger from vrs.SetLogger.
func (b *Backend) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Init opens a Vulkan device and compiles the kernel. It returns ErrNoGPU
// when no adapter is present.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dispatcher != nil {
		return nil
	}

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("%w: create instance: %w", ErrNoGPU, err)
	}
	selected := selectAdapter(instance.EnumerateAdapters(nil))
	if selected == nil {
		instance.Destroy()
		return ErrNoGPU
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("open device: %w", err)
	}

	d, err := NewContrastDispatcher(openDev.Device, openDev.Queue)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return err
	}

	b.instance = instance
	b.device = openDev.Device
	b.queue = openDev.Queue
	b.dispatcher = d
	b.adapterName = selected.Info.Name
	slogger().Info("vrs-gpu: backend initialized", "adapter", b.adapterName)
	return nil
}

// selectAdapter prefers a discrete, then an integrated GPU, then whatever
// comes first. It returns nil for an empty list.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	if len(adapters) == 0 {
		return nil
	}
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			return &adapters[i]
		}
	}
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return &adapters[i]
		}
	}
	return &adapters[0]
}

// SetDeviceProvider switches the backend to a shared GPU device. The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func (b *Backend) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("vrs-gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("vrs-gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("vrs-gpu: provider HalQueue is not hal.Queue")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.useDevice(device, queue, true)
}

// useDevice replaces the current device. Called with b.mu held.
func (b *Backend) useDevice(device hal.Device, queue hal.Queue, external bool) error {
	b.releaseLocked()

	d, err := NewContrastDispatcher(device, queue)
	if err != nil {
		return fmt.Errorf("vrs-gpu: create pipeline with shared device: %w", err)
	}
	b.device = device
	b.queue = queue
	b.dispatcher = d
	b.externalDevice = external
	slogger().Info("vrs-gpu: switched to shared GPU device")
	return nil
}

// Close releases GPU resources. A shared device is left to its owner.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()
}

func (b *Backend) releaseLocked() {
	if b.dispatcher != nil {
		b.dispatcher.Destroy()
		b.dispatcher = nil
	}
	if !b.externalDevice && b.device != nil {
		b.device.Destroy()
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
	b.device = nil
	b.queue = nil
	b.externalDevice = false
}

// Classify runs the kernel for req and writes the rates into dst.
func (b *Backend) Classify(ctx context.Context, req *vrs.Request, dst *vrs.RateImage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dispatcher == nil {
		return fmt.Errorf("%w: %w", vrs.ErrFallbackToCPU, ErrNotInitialized)
	}
	if err := b.dispatcher.Dispatch(newJob(req, dst.TileSize), dst.Pix, dst.Stride); err != nil {
		slogger().Warn("vrs-gpu: dispatch failed", "err", err)
		return fmt.Errorf("%w: %w", vrs.ErrFallbackToCPU, err)
	}
	return nil
}

func newJob(req *vrs.Request, tileSize int) *ContrastJob {
	p := req.Params
	job := &ContrastJob{
		Width:    req.Color.Width,
		Height:   req.Color.Height,
		Stride:   req.Color.Stride,
		Pixels:   req.Color.Pix,
		TileSize: tileSize,
		Params: contrast.Params{
			Threshold:            float32(p.SensitivityThreshold),
			K:                    float32(p.QuarterRateSensitivity),
			AmbientLuma:          float32(p.AmbientLuma),
			WeberFechnerConstant: float32(p.WeberFechnerConstant),
			WeberFechner:         p.UseWeberFechnerLaw,
			Motion:               p.UseMotionVectors && req.Velocity != nil,
			Quarter:              req.AllowQuarter(),
		},
	}
	if v := req.Velocity; v != nil {
		job.VelWidth, job.VelHeight, job.Velocity = v.Width, v.Height, v.Vec
	}
	return job
}
