package vrs

import (
	"strings"
	"testing"
)

func TestComputePercentages(t *testing.T) {
	// Cells are filled row-major: 50% 1x1, then 30% 2x2, then 20% 4x4.
	tests := []struct {
		name  string
		w, h  int
		cells int
	}{
		{"10 tiles", 160, 16, 10},
		{"100 tiles", 160, 160, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := NewRateImage(tt.w, tt.h, 16)
			for i := range tt.cells {
				r := Rate1x1
				switch {
				case i >= tt.cells*8/10:
					r = Rate4x4
				case i >= tt.cells/2:
					r = Rate2x2
				}
				img.Set(i%img.Width, i/img.Width, r)
			}

			p := ComputePercentages(img)
			want := Percentages{50, 0, 0, 30, 0, 0, 20}
			if p != want {
				t.Errorf("ComputePercentages() = %v, want %v", p, want)
			}
			if p.Sum() != 100 {
				t.Errorf("Sum() = %v, want 100", p.Sum())
			}
			if p.Of(Rate2x2) != 30 || p.Of(ShadingRate(0x3)) != 0 {
				t.Errorf("Of() = %v, %v", p.Of(Rate2x2), p.Of(ShadingRate(0x3)))
			}
		})
	}
}

func TestComputePercentagesIgnoresPadding(t *testing.T) {
	img := &RateImage{Width: 2, Height: 2, Stride: 4, TileSize: 16, Pix: []uint8{
		uint8(Rate2x2), uint8(Rate2x2), 0xFF, 0xFF,
		uint8(Rate1x1), uint8(Rate1x1), 0xFF, 0xFF,
	}}
	p := ComputePercentages(img)
	if p.Of(Rate2x2) != 50 || p.Of(Rate1x1) != 50 {
		t.Errorf("ComputePercentages() = %v", p)
	}
}

func TestComputePercentagesEmpty(t *testing.T) {
	if p := ComputePercentages(nil); p != (Percentages{}) {
		t.Errorf("nil image = %v, want zeros", p)
	}
	if p := ComputePercentages(NewRateImage(0, 0, 16)); p != (Percentages{}) {
		t.Errorf("empty image = %v, want zeros", p)
	}
}

func TestDisabledPercentages(t *testing.T) {
	p := DisabledPercentages()
	if p.Of(Rate1x1) != 100 || p.Sum() != 100 {
		t.Errorf("DisabledPercentages() = %v", p)
	}
}

func TestPercentagesString(t *testing.T) {
	s := DisabledPercentages().String()
	if !strings.HasPrefix(s, "1x1=100.00% 1x2=0.00%") || !strings.HasSuffix(s, "4x4=0.00%") {
		t.Errorf("String() = %q", s)
	}
}
