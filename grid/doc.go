// Package grid converts object-detector bounding boxes into sets of tile
// indices under the two geometric policies used by the challenge widget:
// centroid mapping for 3x3 grids and corner-span overlap mapping for the
// 4x4 squares grid.
package grid
