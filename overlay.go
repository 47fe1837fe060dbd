package vrs

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/draw"

	"github.com/gogpu/gg"
)

// Overlay draws a debug visualization of a rate image over a frame.
type Overlay struct {
	// BlendTint tints every tile coarser than 1x1 with its rate color.
	BlendTint bool

	// Grid outlines every tile.
	Grid bool

	// NativeWidth and NativeHeight are the resolution the rate image was
	// classified at. When the frame is upscaled, tiles are scaled to match.
	// Zero means the frame resolution.
	NativeWidth, NativeHeight int

	// Alpha is the tint opacity; zero means 0.4.
	Alpha float64
}

// RateColor returns the overlay tint of a rate. 1x1 is transparent.
func RateColor(r ShadingRate) color.NRGBA {
	switch r {
	case Rate1x2, Rate2x1:
		return color.NRGBA{R: 0x30, G: 0x60, B: 0xff, A: 0xff}
	case Rate2x2:
		return color.NRGBA{R: 0x20, G: 0xd0, B: 0x40, A: 0xff}
	case Rate2x4, Rate4x2:
		return color.NRGBA{R: 0xff, G: 0xd0, B: 0x20, A: 0xff}
	case Rate4x4:
		return color.NRGBA{R: 0xff, G: 0x30, B: 0x30, A: 0xff}
	default:
		return color.NRGBA{}
	}
}

// Draw returns a copy of frame with the overlay applied. The rate image
// is only read.
func (o Overlay) Draw(frame image.Image, rates *RateImage) (out *image.RGBA, err error) {
	b := frame.Bounds()
	base := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(base, base.Bounds(), frame, b.Min, draw.Src)
	if rates == nil || rates.Cells() == 0 || (!o.BlendTint && !o.Grid) {
		return base, nil
	}

	dc := gg.NewContextForImage(base)
	defer closeInto(dc, &err)

	nw, nh := o.NativeWidth, o.NativeHeight
	if nw <= 0 || nh <= 0 {
		nw, nh = b.Dx(), b.Dy()
	}
	tw := float64(rates.TileSize) * float64(b.Dx()) / float64(nw)
	th := float64(rates.TileSize) * float64(b.Dy()) / float64(nh)

	if o.BlendTint {
		if err := o.drawTint(dc, rates, tw, th); err != nil {
			return nil, err
		}
	}
	if o.Grid {
		if err := drawGrid(dc, rates, tw, th, float64(b.Dx()), float64(b.Dy())); err != nil {
			return nil, err
		}
	}

	if err := dc.FlushGPU(); err != nil {
		return nil, err
	}
	out, ok := dc.Image().(*image.RGBA)
	if !ok {
		img := dc.Image()
		out = image.NewRGBA(img.Bounds())
		draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	return out, nil
}

// drawTint fills horizontal runs of equal rate as single rectangles.
func (o Overlay) drawTint(dc *gg.Context, rates *RateImage, tw, th float64) error {
	alpha := o.Alpha
	if alpha <= 0 {
		alpha = 0.4
	}
	for y := range rates.Height {
		row := rates.Row(y)
		for x := 0; x < len(row); {
			r := ShadingRate(row[x])
			end := x + 1
			for end < len(row) && row[end] == row[x] {
				end++
			}
			if r != Rate1x1 {
				c := RateColor(r)
				dc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, alpha)
				dc.DrawRectangle(float64(x)*tw, float64(y)*th, float64(end-x)*tw, th)
				if err := dc.Fill(); err != nil {
					return err
				}
			}
			x = end
		}
	}
	return nil
}

func drawGrid(dc *gg.Context, rates *RateImage, tw, th, w, h float64) error {
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.SetLineWidth(1)
	for x := 1; x < rates.Width; x++ {
		dc.DrawLine(float64(x)*tw, 0, float64(x)*tw, h)
	}
	for y := 1; y < rates.Height; y++ {
		dc.DrawLine(0, float64(y)*th, w, float64(y)*th)
	}
	return dc.Stroke()
}

// closeInto closes c and reports its error through err unless err is
// already set.
func closeInto(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("vrs: close overlay context: %w", cerr)
	}
}
