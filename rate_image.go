package vrs

import "fmt"

// RateImage holds one shading rate per screen tile, row-major, one byte
// per tile. A freshly allocated or cleared image is all 1x1.
type RateImage struct {
	// Width and Height are the grid dimensions in tiles.
	Width, Height int

	// Stride is the distance in bytes between tile rows; at least Width.
	// Readback buffers are usually padded.
	Stride int

	// TileSize is the tile edge length in pixels.
	TileSize int

	Pix []uint8
}

// TileCounts returns the grid dimensions for a frame:
// ceil(width/tileSize) x ceil(height/tileSize).
func TileCounts(width, height, tileSize int) (tx, ty int) {
	if width <= 0 || height <= 0 || tileSize <= 0 {
		return 0, 0
	}
	return (width + tileSize - 1) / tileSize, (height + tileSize - 1) / tileSize
}

// NewRateImage allocates a cleared rate image for a frame of the given
// pixel size.
func NewRateImage(frameWidth, frameHeight, tileSize int) *RateImage {
	w, h := TileCounts(frameWidth, frameHeight, tileSize)
	return &RateImage{
		Width:    w,
		Height:   h,
		Stride:   w,
		TileSize: tileSize,
		Pix:      make([]uint8, w*h),
	}
}

// Cells returns the number of tiles.
func (m *RateImage) Cells() int {
	return m.Width * m.Height
}

// FrameSize returns the largest frame size covered by the grid.
func (m *RateImage) FrameSize() (w, h int) {
	return m.Width * m.TileSize, m.Height * m.TileSize
}

// Fits reports whether the image matches a frame of the given pixel size.
func (m *RateImage) Fits(frameWidth, frameHeight int) bool {
	w, h := TileCounts(frameWidth, frameHeight, m.TileSize)
	return w == m.Width && h == m.Height
}

// At returns the rate of tile (x, y).
func (m *RateImage) At(x, y int) ShadingRate {
	return ShadingRate(m.Pix[y*m.Stride+x])
}

// Set stores the rate of tile (x, y).
func (m *RateImage) Set(x, y int, r ShadingRate) {
	m.Pix[y*m.Stride+x] = uint8(r)
}

// Row returns the rates of tile row y without padding.
func (m *RateImage) Row(y int) []uint8 {
	off := y * m.Stride
	return m.Pix[off : off+m.Width]
}

// Clear resets every tile to 1x1.
func (m *RateImage) Clear() {
	clear(m.Pix)
}

// Fill sets every tile to r.
func (m *RateImage) Fill(r ShadingRate) {
	for y := range m.Height {
		row := m.Row(y)
		for x := range row {
			row[x] = uint8(r)
		}
	}
}

// Clone returns a deep copy with a tight stride.
func (m *RateImage) Clone() *RateImage {
	c := &RateImage{Width: m.Width, Height: m.Height, Stride: m.Width, TileSize: m.TileSize}
	c.Pix = make([]uint8, m.Width*m.Height)
	for y := range m.Height {
		copy(c.Pix[y*m.Width:], m.Row(y))
	}
	return c
}

// Validate checks the layout and that every cell holds a legal rate for c.
func (m *RateImage) Validate(c Capability) error {
	if m.Width < 0 || m.Height < 0 || m.Stride < m.Width {
		return fmt.Errorf("%w: rate image %dx%d stride %d", ErrInvalidFrame, m.Width, m.Height, m.Stride)
	}
	if m.Height > 0 && len(m.Pix) < (m.Height-1)*m.Stride+m.Width {
		return fmt.Errorf("%w: rate image holds %d bytes", ErrInvalidFrame, len(m.Pix))
	}
	for y := range m.Height {
		for x, v := range m.Row(y) {
			if r := ShadingRate(v); !c.IsRateSupported(r) && r != Rate1x1 {
				return fmt.Errorf("vrs: tile (%d,%d) holds illegal rate %v", x, y, r)
			}
		}
	}
	return nil
}
