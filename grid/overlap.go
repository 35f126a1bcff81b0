package grid

import (
	"github.com/solvekit/captchaflow/types"
)

// Geometry of the 4x4 squares challenge image: a 450x450 canvas split into
// 112.5x112.5 cells.
const (
	squaresCells  = 4
	squaresCellPx = 112.5
)

// MapOverlap maps detections of the target class onto 4x4 tile indices.
// For each bounding box it locates the cells touched by the four corners,
// then marks every cell inside the row/column span of that corner set as
// occupied. An object spanning a cell's interior without a corner landing
// in it still occupies the cells between its detected corners; the
// rectangle fill compensates for corner-only sampling. Results are the
// union over all matching detections.
func MapOverlap(detections []types.Detection, target types.TargetClass) types.TileSet {
	tiles := types.NewTileSet()
	for _, det := range detections {
		if det.Class != target {
			continue
		}
		for _, cell := range occupiedCells(det.Box) {
			tiles.Add(cell)
		}
	}
	return tiles
}

// occupiedCells computes the rectangle-filled cell set for one box.
func occupiedCells(box types.Box) []int {
	minRow, minCol := squaresCells, squaresCells
	maxRow, maxCol := 0, 0
	for _, corner := range box.Corners() {
		col := clampCell(int(corner[0]/squaresCellPx), squaresCells)
		row := clampCell(int(corner[1]/squaresCellPx), squaresCells)
		if row < minRow {
			minRow = row
		}
		if row > maxRow {
			maxRow = row
		}
		if col < minCol {
			minCol = col
		}
		if col > maxCol {
			maxCol = col
		}
	}

	var cells []int
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			cells = append(cells, squaresCells*row+col+1)
		}
	}
	return cells
}
