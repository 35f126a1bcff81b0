package detector

import (
	"sort"

	"github.com/solvekit/captchaflow/types"
)

// decodePredictions converts raw YOLO output rows into detections in
// source-image pixel space. Each row is [cx, cy, w, h, objectness,
// class scores...]; stride is the row width. Rows below confThreshold are
// dropped; the row's class is the argmax of its class scores.
func decodePredictions(data []float32, stride int, confThreshold float32, scaleX, scaleY float64) []types.Detection {
	if stride < 6 {
		return nil
	}

	var dets []types.Detection
	for i := 0; i+stride <= len(data); i += stride {
		objectness := data[i+4]
		if objectness < confThreshold {
			continue
		}

		bestClass := 0
		bestScore := float32(0)
		for c, score := range data[i+5 : i+stride] {
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		confidence := objectness * bestScore
		if confidence < confThreshold {
			continue
		}

		cx := float64(data[i]) * scaleX
		cy := float64(data[i+1]) * scaleY
		hw := float64(data[i+2]) * scaleX / 2
		hh := float64(data[i+3]) * scaleY / 2

		dets = append(dets, types.Detection{
			Class:      types.TargetClass(bestClass),
			Confidence: confidence,
			Box: types.Box{
				X1: cx - hw,
				Y1: cy - hh,
				X2: cx + hw,
				Y2: cy + hh,
			},
		})
	}
	return dets
}

// nonMaxSuppression greedily keeps the highest-confidence detection and
// drops same-class overlaps above the IOU threshold.
func nonMaxSuppression(dets []types.Detection, iouThreshold float32) []types.Detection {
	if len(dets) <= 1 {
		return dets
	}

	sorted := make([]types.Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var kept []types.Detection
	suppressed := make([]bool, len(sorted))
	for i, det := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, det)
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].Class != det.Class {
				continue
			}
			if iou(det.Box, sorted[j].Box) > float64(iouThreshold) {
				suppressed[j] = true
			}
		}
	}
	return kept
}

// iou computes intersection-over-union for two boxes.
func iou(a, b types.Box) float64 {
	ix1 := max(a.X1, b.X1)
	iy1 := max(a.Y1, b.Y1)
	ix2 := min(a.X2, b.X2)
	iy2 := min(a.Y2, b.Y2)

	iw := ix2 - ix1
	ih := iy2 - iy1
	if iw <= 0 || ih <= 0 {
		return 0
	}
	inter := iw * ih
	areaA := (a.X2 - a.X1) * (a.Y2 - a.Y1)
	areaB := (b.X2 - b.X1) * (b.Y2 - b.Y1)
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
