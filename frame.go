package vrs

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/vrs/internal/contrast"
)

// ColorFrame is a rendered frame in packed RGBA8 sRGB layout.
type ColorFrame struct {
	Width, Height int

	// Stride is the distance in bytes between rows; at least Width*4.
	Stride int
	Pix    []uint8
}

// NewColorFrame allocates a zeroed frame.
func NewColorFrame(width, height int) *ColorFrame {
	return &ColorFrame{
		Width:  width,
		Height: height,
		Stride: width * 4,
		Pix:    make([]uint8, width*height*4),
	}
}

// ColorFrameFromImage converts any image to a ColorFrame. An *image.RGBA
// anchored at the origin is wrapped without copying; other images are
// converted with x/image/draw.
func ColorFrameFromImage(img image.Image) *ColorFrame {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return &ColorFrame{Width: b.Dx(), Height: b.Dy(), Stride: rgba.Stride, Pix: rgba.Pix}
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &ColorFrame{Width: b.Dx(), Height: b.Dy(), Stride: dst.Stride, Pix: dst.Pix}
}

// Image returns the frame as an *image.RGBA sharing its pixels.
func (f *ColorFrame) Image() *image.RGBA {
	return &image.RGBA{Pix: f.Pix, Stride: f.Stride, Rect: image.Rect(0, 0, f.Width, f.Height)}
}

// Validate checks that the frame describes a readable buffer.
func (f *ColorFrame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil color frame", ErrInvalidFrame)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: color frame %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if f.Stride < f.Width*4 {
		return fmt.Errorf("%w: stride %d < %d", ErrInvalidFrame, f.Stride, f.Width*4)
	}
	if need := (f.Height-1)*f.Stride + f.Width*4; len(f.Pix) < need {
		return fmt.Errorf("%w: %d bytes, need %d", ErrInvalidFrame, len(f.Pix), need)
	}
	return nil
}

func (f *ColorFrame) kernel() *contrast.Image {
	return &contrast.Image{Width: f.Width, Height: f.Height, Stride: f.Stride, Pix: f.Pix}
}

// VelocityFrame is a per-pixel motion field in pixels per frame, stored as
// interleaved x, y pairs. It may have a different resolution than the color
// frame it accompanies.
type VelocityFrame struct {
	Width, Height int
	Vec           []float32
}

// NewVelocityFrame allocates a zero motion field.
func NewVelocityFrame(width, height int) *VelocityFrame {
	return &VelocityFrame{Width: width, Height: height, Vec: make([]float32, width*height*2)}
}

// Set stores the motion vector at (x, y).
func (v *VelocityFrame) Set(x, y int, dx, dy float32) {
	i := (y*v.Width + x) * 2
	v.Vec[i], v.Vec[i+1] = dx, dy
}

// At returns the motion vector at (x, y).
func (v *VelocityFrame) At(x, y int) (dx, dy float32) {
	i := (y*v.Width + x) * 2
	return v.Vec[i], v.Vec[i+1]
}

// Validate checks that the field describes a readable buffer.
func (v *VelocityFrame) Validate() error {
	if v.Width <= 0 || v.Height <= 0 || len(v.Vec) < v.Width*v.Height*2 {
		return fmt.Errorf("%w: velocity %dx%d with %d components", ErrInvalidFrame, v.Width, v.Height, len(v.Vec))
	}
	return nil
}

func (v *VelocityFrame) kernel() *contrast.Velocity {
	if v == nil {
		return nil
	}
	return &contrast.Velocity{Width: v.Width, Height: v.Height, Vec: v.Vec}
}

// usableVelocity returns v when it may be used this frame, or nil. An
// invalid field is dropped with a warning instead of failing the frame.
func usableVelocity(v *VelocityFrame, p Params) *VelocityFrame {
	if !p.UseMotionVectors || v == nil {
		return nil
	}
	if err := v.Validate(); err != nil {
		Logger().Warn("vrs: ignoring velocity for this frame", "err", err)
		return nil
	}
	return v
}
