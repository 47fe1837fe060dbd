package main

import (
	"image"
	"math"

	"github.com/gogpu/gg"
)

// renderScene draws a test frame with regions of very different contrast:
// a smooth gradient sky, flat shapes with hard edges and a high frequency
// checker strip. offset pans the scene horizontally.
func renderScene(w, h int, offset float64) image.Image {
	dc := gg.NewContext(w, h)
	defer dc.Close()

	drawGradientBackground(dc, w, h)

	dc.Push()
	dc.Translate(-math.Mod(offset, float64(w)), 0)
	drawShapes(dc, w, h)
	drawChecker(dc, w, h)
	dc.Pop()

	return dc.Image()
}

func drawGradientBackground(dc *gg.Context, w, h int) {
	steps := 100
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps)
		dc.SetColor(gg.RGB(0.1+t*0.4, 0.2+t*0.3, 0.4+t*0.2))
		y := float64(h) * t
		dc.DrawRectangle(0, y, float64(w), float64(h)/float64(steps)+1)
		_ = dc.Fill()
	}
}

func drawShapes(dc *gg.Context, w, h int) {
	fw, fh := float64(w), float64(h)

	dc.SetRGBA(1, 0.3, 0.3, 0.8)
	dc.DrawCircle(fw*0.15, fh*0.3, fh*0.1)
	_ = dc.Fill()

	dc.SetRGBA(0.3, 1, 0.3, 0.8)
	dc.DrawCircle(fw*0.2, fh*0.3, fh*0.1)
	_ = dc.Fill()

	dc.SetRGB(1, 0.8, 0)
	dc.DrawRoundedRectangle(fw*0.4, fh*0.2, fw*0.15, fh*0.15, 15)
	_ = dc.Fill()

	// Rotated squares
	for i := 0; i < 8; i++ {
		dc.Push()
		dc.Translate(fw*0.75, fh*0.3)
		dc.Rotate(float64(i) * math.Pi / 4)
		dc.SetColor(gg.HSL(float64(i)*45, 0.8, 0.6))
		dc.DrawRectangle(-30, -30, 60, 60)
		_ = dc.Fill()
		dc.Pop()
	}
}

// drawChecker fills the bottom quarter with 2 pixel black and white cells.
func drawChecker(dc *gg.Context, w, h int) {
	const cell = 2
	top := h * 3 / 4
	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(0, float64(top), float64(w), float64(h-top))
	_ = dc.Fill()

	dc.SetRGB(0, 0, 0)
	for y := top; y < h; y += cell {
		for x := ((y - top) / cell % 2) * cell; x < w; x += 2 * cell {
			dc.DrawRectangle(float64(x), float64(y), cell, cell)
		}
	}
	_ = dc.Fill()
}
