package vrs

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func halfCoarse() *RateImage {
	img := NewRateImage(64, 16, 16)
	img.Set(2, 0, Rate2x2)
	img.Set(3, 0, Rate2x2)
	return img
}

func TestCollectorCollect(t *testing.T) {
	rec := &recordingRecorder{}
	c := NewCollector(StaticReader{Image: halfCoarse()}, WithRecorder(rec))

	if c.Last() != DisabledPercentages() {
		t.Errorf("initial Last() = %v, want disabled", c.Last())
	}

	p, fresh, err := c.Collect(context.Background(), true)
	if err != nil || !fresh {
		t.Fatalf("Collect() fresh=%v err=%v", fresh, err)
	}
	if p.Of(Rate1x1) != 50 || p.Of(Rate2x2) != 50 {
		t.Errorf("Collect() = %v", p)
	}
	if rec.percentages != p {
		t.Error("recorder did not receive the percentages")
	}
}

func TestCollectorDisabled(t *testing.T) {
	reads := 0
	c := NewCollector(RateReaderFunc(func(context.Context) (*RateImage, error) {
		reads++
		return halfCoarse(), nil
	}))

	p, fresh, err := c.Collect(context.Background(), false)
	if err != nil || !fresh {
		t.Fatalf("fresh=%v err=%v", fresh, err)
	}
	if p != DisabledPercentages() {
		t.Errorf("disabled = %v, want 100%% 1x1", p)
	}
	if reads != 0 {
		t.Error("disabled collect read the rate image")
	}
}

func TestCollectorThrottled(t *testing.T) {
	reads := 0
	reader := RateReaderFunc(func(context.Context) (*RateImage, error) {
		reads++
		return halfCoarse(), nil
	})
	// One token, refilled hourly: only the first call reads.
	c := NewCollector(reader, WithLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))

	first, fresh, err := c.Collect(context.Background(), true)
	if err != nil || !fresh {
		t.Fatalf("first fresh=%v err=%v", fresh, err)
	}
	for range 5 {
		p, fresh, err := c.Collect(context.Background(), true)
		if err != nil {
			t.Fatal(err)
		}
		if fresh {
			t.Error("throttled call reported fresh")
		}
		if p != first {
			t.Errorf("throttled call = %v, want last %v", p, first)
		}
	}
	if reads != 1 {
		t.Errorf("reads = %d, want 1", reads)
	}
}

func TestCollectorErrors(t *testing.T) {
	c := NewCollector(nil)
	if _, _, err := c.Collect(context.Background(), true); !errors.Is(err, ErrNoReader) {
		t.Errorf("nil reader err = %v, want ErrNoReader", err)
	}

	boom := errors.New("readback failed")
	c = NewCollector(RateReaderFunc(func(context.Context) (*RateImage, error) { return nil, boom }))
	p, fresh, err := c.Collect(context.Background(), true)
	if !errors.Is(err, boom) || fresh {
		t.Errorf("fresh=%v err=%v", fresh, err)
	}
	if p != DisabledPercentages() {
		t.Errorf("failed read should return last result, got %v", p)
	}
}
