package grid

import (
	"github.com/solvekit/captchaflow/types"
)

// Geometry of the 3x3 challenge image: a 300x300 canvas split into
// 100x100 cells.
const (
	selectionCells  = 3
	selectionCellPx = 100.0
)

// MapCentroid maps detections of the target class onto 3x3 tile indices by
// bounding-box centroid: row = floor(yc/100), col = floor(xc/100),
// tile = row*3 + col + 1. Detections landing in the same tile collapse to
// one entry.
func MapCentroid(detections []types.Detection, target types.TargetClass) types.TileSet {
	tiles := types.NewTileSet()
	for _, det := range detections {
		if det.Class != target {
			continue
		}
		xc, yc := det.Box.Center()
		row := clampCell(int(yc/selectionCellPx), selectionCells)
		col := clampCell(int(xc/selectionCellPx), selectionCells)
		tiles.Add(row*selectionCells + col + 1)
	}
	return tiles
}

// clampCell keeps a cell coordinate inside [0, cells-1]. A centroid sitting
// exactly on the far edge of the canvas belongs to the last cell.
func clampCell(c, cells int) int {
	if c < 0 {
		return 0
	}
	if c >= cells {
		return cells - 1
	}
	return c
}

// Solvable applies the per-variant confidence floor to a solver result.
// Selection and dynamic grids need at least 3 tiles; a squares grid needs
// between 1 and 15 — a full-grid match is treated as a detection failure.
func Solvable(variant types.Variant, tiles types.TileSet) bool {
	n := tiles.Len()
	if variant == types.VariantSquares {
		return n >= 1 && n < 16
	}
	return n >= 3
}
