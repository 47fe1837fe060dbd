// Package parallel provides tile-based parallel execution for the CPU
// shading rate classifier.
//
// A frame is divided into square tiles of the rate image tile size
// (typically 8 or 16 pixels). Every tile is classified independently, so
// work is handed to the WorkerPool one tile row at a time and ExecuteAll
// acts as the frame barrier.
//
// Thread safety: TileGrid is immutable after construction and safe for
// concurrent reads.
package parallel

// Tile is one cell of a TileGrid.
//
// Edge tiles have smaller pixel dimensions when the frame is not evenly
// divisible by the tile size.
type Tile struct {
	// X is the tile column index (0-based).
	X int

	// Y is the tile row index (0-based).
	Y int

	// PX and PY are the top-left pixel of the tile in frame space.
	PX, PY int

	// Width is the actual width in pixels (may be < tile size for edge tiles).
	Width int

	// Height is the actual height in pixels (may be < tile size for edge tiles).
	Height int
}

// Pixels returns the number of pixels covered by the tile.
func (t Tile) Pixels() int {
	return t.Width * t.Height
}
