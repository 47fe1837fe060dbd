package parallel

// TileGrid divides a frame into fixed-size tiles.
//
// The grid holds ceil(width/size) x ceil(height/size) tiles. Right and
// bottom edge tiles are clipped to the frame, so iterating a tile never
// touches pixels outside the frame.
type TileGrid struct {
	tilesX int
	tilesY int
	width  int
	height int
	size   int
}

// NewTileGrid creates a grid covering a width x height frame with square
// tiles of the given edge length. Non-positive dimensions produce an
// empty grid.
func NewTileGrid(width, height, size int) *TileGrid {
	if width <= 0 || height <= 0 || size <= 0 {
		return &TileGrid{size: max(size, 0)}
	}
	return &TileGrid{
		tilesX: (width + size - 1) / size,
		tilesY: (height + size - 1) / size,
		width:  width,
		height: height,
		size:   size,
	}
}

// TilesX returns the number of tile columns.
func (g *TileGrid) TilesX() int { return g.tilesX }

// TilesY returns the number of tile rows.
func (g *TileGrid) TilesY() int { return g.tilesY }

// TileCount returns the total number of tiles.
func (g *TileGrid) TileCount() int { return g.tilesX * g.tilesY }

// Tile returns the tile at column tx and row ty.
// The second result is false if the coordinates are outside the grid.
func (g *TileGrid) Tile(tx, ty int) (Tile, bool) {
	if tx < 0 || tx >= g.tilesX || ty < 0 || ty >= g.tilesY {
		return Tile{}, false
	}
	px := tx * g.size
	py := ty * g.size
	return Tile{
		X:      tx,
		Y:      ty,
		PX:     px,
		PY:     py,
		Width:  min(g.size, g.width-px),
		Height: min(g.size, g.height-py),
	}, true
}

// ForEachInRow calls fn for every tile of row ty, left to right.
func (g *TileGrid) ForEachInRow(ty int, fn func(Tile)) {
	for tx := range g.tilesX {
		t, _ := g.Tile(tx, ty)
		fn(t)
	}
}

// RowWork returns one work item per tile row suitable for
// WorkerPool.ExecuteAll. Each item calls fn for the tiles of its row.
func (g *TileGrid) RowWork(fn func(Tile)) []func() {
	work := make([]func(), g.tilesY)
	for ty := range g.tilesY {
		work[ty] = func() {
			g.ForEachInRow(ty, fn)
		}
	}
	return work
}
