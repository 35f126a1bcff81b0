package types

// Box is an axis-aligned bounding box in the pixel space of the square
// challenge image, with (X1,Y1) the top-left and (X2,Y2) the bottom-right
// corner.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Center returns the centroid of the box.
func (b Box) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Corners returns the four corner points in top-left, top-right,
// bottom-left, bottom-right order.
func (b Box) Corners() [4][2]float64 {
	return [4][2]float64{
		{b.X1, b.Y1},
		{b.X2, b.Y1},
		{b.X1, b.Y2},
		{b.X2, b.Y2},
	}
}

// Detection is one classified bounding box produced by the object detector
// for a single input image. Detections are consumed immediately after each
// detector pass and never retained across passes.
type Detection struct {
	Class      TargetClass
	Box        Box
	Confidence float32
}
