//go:build !nogpu

package gpu

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vrs"
)

func TestBackendIdentity(t *testing.T) {
	b := NewBackend()
	if b.Name() != BackendName {
		t.Errorf("Name() = %q, want %q", b.Name(), BackendName)
	}
	if b.Priority() <= 0 {
		t.Error("GPU backend must rank above the CPU backend")
	}
}

func TestBackendClassifyBeforeInit(t *testing.T) {
	b := NewBackend()
	req := &vrs.Request{Color: vrs.NewColorFrame(32, 32), Params: vrs.DefaultParams()}
	dst := vrs.NewRateImage(32, 32, 16)

	err := b.Classify(context.Background(), req, dst)
	if !errors.Is(err, vrs.ErrFallbackToCPU) {
		t.Errorf("err = %v, want ErrFallbackToCPU", err)
	}
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestBackendClassifyCanceled(t *testing.T) {
	b := NewBackend()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Classify(ctx, &vrs.Request{}, vrs.NewRateImage(16, 16, 16))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// ===========================================================================
// Shared device
// ===========================================================================

type fakeProvider struct {
	device any
	queue  any
}

func (p fakeProvider) HalDevice() any { return p.device }
func (p fakeProvider) HalQueue() any  { return p.queue }

func TestBackendSetDeviceProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	b := NewBackend()
	if err := b.SetDeviceProvider(fakeProvider{device: device, queue: queue}); err != nil {
		t.Fatalf("SetDeviceProvider: %v", err)
	}
	if !b.externalDevice {
		t.Error("shared device not marked external")
	}
	if b.dispatcher == nil {
		t.Fatal("dispatcher not created")
	}

	// Close must leave the shared device to its owner.
	b.Close()
	if b.device != nil || b.dispatcher != nil {
		t.Error("Close did not drop references")
	}
}

func TestBackendSetDeviceProviderRejects(t *testing.T) {
	b := NewBackend()
	tests := []struct {
		name     string
		provider any
	}{
		{"no hal accessors", struct{}{}},
		{"wrong device type", fakeProvider{device: 42, queue: 42}},
		{"nil device", fakeProvider{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := b.SetDeviceProvider(tt.provider); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// TestBackendClassifyNoop runs a whole classification through the
// classifier with the GPU backend on the noop device. Whatever the device
// returns, the classifier output must be legal.
func TestBackendClassifyNoop(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	b := NewBackend()
	if err := b.SetDeviceProvider(fakeProvider{device: device, queue: queue}); err != nil {
		t.Fatalf("SetDeviceProvider: %v", err)
	}
	defer b.Close()

	capability := vrs.Capability{Tier: vrs.Tier2, TileSize: 16}
	cl, err := vrs.NewClassifier(capability, vrs.WithBackend(b))
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	defer cl.Close()

	frame := vrs.NewColorFrame(50, 30)
	for i := range frame.Pix {
		frame.Pix[i] = uint8(i * 7)
	}
	img, err := cl.Classify(context.Background(), frame, nil, vrs.DefaultParams())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if err := img.Validate(capability); err != nil {
		t.Errorf("rate image not legal: %v", err)
	}
}

func TestNewJob(t *testing.T) {
	p := vrs.DefaultParams()
	p.UseMotionVectors = true
	p.UseWeberFechnerLaw = true

	vel := vrs.NewVelocityFrame(4, 2)
	req := &vrs.Request{
		Color:      vrs.NewColorFrame(20, 10),
		Velocity:   vel,
		Params:     p,
		Capability: vrs.Capability{Tier: vrs.Tier2, TileSize: 8, ExtendedRates: true},
	}
	job := newJob(req, 8)

	if job.Width != 20 || job.Height != 10 || job.Stride != 80 || job.TileSize != 8 {
		t.Errorf("frame layout = %dx%d stride %d tile %d", job.Width, job.Height, job.Stride, job.TileSize)
	}
	if job.VelWidth != 4 || job.VelHeight != 2 || len(job.Velocity) != 16 {
		t.Errorf("velocity = %dx%d (%d floats)", job.VelWidth, job.VelHeight, len(job.Velocity))
	}
	if !job.Params.Motion || !job.Params.WeberFechner || !job.Params.Quarter {
		t.Errorf("flags not carried: %+v", job.Params)
	}
	if job.Params.Threshold != float32(p.SensitivityThreshold) {
		t.Errorf("threshold = %v", job.Params.Threshold)
	}

	req.Velocity = nil
	req.Capability.ExtendedRates = false
	job = newJob(req, 8)
	if job.Params.Motion {
		t.Error("motion enabled without a velocity field")
	}
	if job.Params.Quarter {
		t.Error("quarter rate allowed without extended rates")
	}
}

// ===========================================================================
// Adapter selection and capability
// ===========================================================================

func testAdapters() (other, integrated, discrete hal.ExposedAdapter) {
	other.Info.Name = "other"
	integrated.Info.Name = "igpu"
	integrated.Info.DeviceType = gputypes.DeviceTypeIntegratedGPU
	discrete.Info.Name = "dgpu"
	discrete.Info.DeviceType = gputypes.DeviceTypeDiscreteGPU
	return other, integrated, discrete
}

func TestSelectAdapter(t *testing.T) {
	if selectAdapter(nil) != nil {
		t.Error("selectAdapter(nil) should be nil")
	}

	other, integrated, discrete := testAdapters()
	if other.Info.DeviceType == gputypes.DeviceTypeDiscreteGPU || other.Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
		t.Skip("zero device type is a GPU type")
	}

	adapters := []hal.ExposedAdapter{
		other, integrated, discrete,
	}
	if got := selectAdapter(adapters); got.Info.Name != "dgpu" {
		t.Errorf("selected %q, want dgpu", got.Info.Name)
	}
	if got := selectAdapter(adapters[:2]); got.Info.Name != "igpu" {
		t.Errorf("selected %q, want igpu", got.Info.Name)
	}
	if got := selectAdapter(adapters[:1]); got.Info.Name != "other" {
		t.Errorf("selected %q, want other", got.Info.Name)
	}
}

func TestSupportFor(t *testing.T) {
	if _, err := supportFor(nil, 0); !errors.Is(err, ErrNoGPU) {
		t.Errorf("err = %v, want ErrNoGPU", err)
	}

	_, _, discrete := testAdapters()
	adapters := []hal.ExposedAdapter{discrete}
	fs, err := supportFor(adapters, 0)
	if err != nil {
		t.Fatalf("supportFor: %v", err)
	}
	if fs.Tier != vrs.Tier2 || fs.TileSize != vrs.DefaultTileSize || !fs.ExtendedRates {
		t.Errorf("support = %+v", fs)
	}

	fs, _ = supportFor(adapters, 8)
	if fs.TileSize != 8 {
		t.Errorf("TileSize = %d, want 8", fs.TileSize)
	}
}

func TestQuerierProbeNeverFails(t *testing.T) {
	// Without Vulkan the query errors; Probe must still return a capability.
	c := vrs.Probe(Querier{})
	if c.Tier != vrs.TierNotSupported && c.Tier != vrs.Tier2 {
		t.Errorf("unexpected tier %v", c.Tier)
	}
}
