package parallel

import (
	"sync/atomic"
	"testing"
)

func TestTileGrid_Dimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h, size   int
		wantX, wantY int
		lastW, lastH int
	}{
		{"exact", 64, 32, 16, 4, 2, 16, 16},
		{"partial", 65, 33, 16, 5, 3, 1, 1},
		{"smaller than tile", 5, 7, 8, 1, 1, 5, 7},
		{"1080p 16", 1920, 1080, 16, 120, 68, 16, 8},
		{"1080p 8", 1920, 1080, 8, 240, 135, 8, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewTileGrid(tt.w, tt.h, tt.size)
			if g.TilesX() != tt.wantX || g.TilesY() != tt.wantY {
				t.Fatalf("grid = %dx%d, want %dx%d", g.TilesX(), g.TilesY(), tt.wantX, tt.wantY)
			}
			last, ok := g.Tile(tt.wantX-1, tt.wantY-1)
			if !ok {
				t.Fatal("last tile missing")
			}
			if last.Width != tt.lastW || last.Height != tt.lastH {
				t.Errorf("last tile = %dx%d, want %dx%d", last.Width, last.Height, tt.lastW, tt.lastH)
			}
		})
	}
}

func TestTileGrid_Empty(t *testing.T) {
	for _, dims := range [][3]int{{0, 10, 8}, {10, 0, 8}, {10, 10, 0}, {-1, -1, 8}} {
		g := NewTileGrid(dims[0], dims[1], dims[2])
		if g.TileCount() != 0 {
			t.Errorf("NewTileGrid(%v).TileCount() = %d, want 0", dims, g.TileCount())
		}
	}
}

func TestTileGrid_TileOutOfRange(t *testing.T) {
	g := NewTileGrid(32, 32, 16)
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if _, ok := g.Tile(c[0], c[1]); ok {
			t.Errorf("Tile(%d, %d) should be out of range", c[0], c[1])
		}
	}
}

func TestTileGrid_CoversFrameExactlyOnce(t *testing.T) {
	const w, h = 37, 21
	g := NewTileGrid(w, h, 8)

	hits := make([]int, w*h)
	for _, row := range g.RowWork(func(tile Tile) {
		for y := tile.PY; y < tile.PY+tile.Height; y++ {
			for x := tile.PX; x < tile.PX+tile.Width; x++ {
				if x >= w || y >= h {
					t.Fatalf("tile (%d,%d) reaches outside frame at (%d,%d)", tile.X, tile.Y, x, y)
				}
				hits[y*w+x]++
			}
		}
	}) {
		row()
	}

	for i, n := range hits {
		if n != 1 {
			t.Fatalf("pixel %d covered %d times, want 1", i, n)
		}
	}
}

func TestTileGrid_RowWork(t *testing.T) {
	g := NewTileGrid(100, 50, 16)
	pool := NewWorkerPool(3)
	defer pool.Close()

	var count atomic.Int32
	var pixels atomic.Int64
	work := g.RowWork(func(tile Tile) {
		count.Add(1)
		pixels.Add(int64(tile.Pixels()))
	})
	if len(work) != g.TilesY() {
		t.Fatalf("len(RowWork) = %d, want %d", len(work), g.TilesY())
	}

	pool.ExecuteAll(work)

	if int(count.Load()) != g.TileCount() {
		t.Errorf("visited %d tiles, want %d", count.Load(), g.TileCount())
	}
	if pixels.Load() != 100*50 {
		t.Errorf("visited %d pixels, want %d", pixels.Load(), 100*50)
	}
}
