package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvekit/captchaflow/types"
)

// row builds one raw output row: cx, cy, w, h, objectness, then class
// scores for an 11-class head.
func row(cx, cy, w, h, obj float32, class int, score float32) []float32 {
	r := make([]float32, 16)
	r[0], r[1], r[2], r[3], r[4] = cx, cy, w, h, obj
	r[5+class] = score
	return r
}

func TestDecodePredictions(t *testing.T) {
	data := append(
		row(100, 100, 40, 40, 0.9, 9, 0.95),
		row(300, 300, 20, 20, 0.1, 2, 0.9)..., // below objectness threshold
	)

	dets := decodePredictions(data, 16, 0.35, 1.0, 1.0)
	require.Len(t, dets, 1)
	assert.Equal(t, types.TargetClass(9), dets[0].Class)
	assert.InDelta(t, 80.0, dets[0].Box.X1, 1e-6)
	assert.InDelta(t, 120.0, dets[0].Box.X2, 1e-6)
	assert.InDelta(t, 0.9*0.95, float64(dets[0].Confidence), 1e-6)
}

func TestDecodePredictionsScalesToSource(t *testing.T) {
	data := row(320, 320, 64, 64, 0.9, 2, 0.9)

	// 640-input model mapped back onto a 300px challenge image.
	dets := decodePredictions(data, 16, 0.35, 300.0/640.0, 300.0/640.0)
	require.Len(t, dets, 1)
	xc, yc := dets[0].Box.Center()
	assert.InDelta(t, 150.0, xc, 1e-6)
	assert.InDelta(t, 150.0, yc, 1e-6)
}

func TestDecodePredictionsLowJointConfidence(t *testing.T) {
	// Objectness passes but objectness*classScore falls below threshold.
	data := row(100, 100, 40, 40, 0.5, 1, 0.4)
	dets := decodePredictions(data, 16, 0.35, 1.0, 1.0)
	assert.Empty(t, dets)
}

func TestNonMaxSuppressionDropsOverlaps(t *testing.T) {
	dets := []types.Detection{
		{Class: 9, Confidence: 0.9, Box: types.Box{X1: 0, Y1: 0, X2: 100, Y2: 100}},
		{Class: 9, Confidence: 0.8, Box: types.Box{X1: 10, Y1: 10, X2: 110, Y2: 110}},
		{Class: 9, Confidence: 0.7, Box: types.Box{X1: 200, Y1: 200, X2: 250, Y2: 250}},
	}

	kept := nonMaxSuppression(dets, 0.45)
	require.Len(t, kept, 2)
	assert.Equal(t, float32(0.9), kept[0].Confidence)
	assert.Equal(t, float32(0.7), kept[1].Confidence)
}

func TestNonMaxSuppressionKeepsDifferentClasses(t *testing.T) {
	dets := []types.Detection{
		{Class: 9, Confidence: 0.9, Box: types.Box{X1: 0, Y1: 0, X2: 100, Y2: 100}},
		{Class: 2, Confidence: 0.8, Box: types.Box{X1: 0, Y1: 0, X2: 100, Y2: 100}},
	}

	kept := nonMaxSuppression(dets, 0.45)
	assert.Len(t, kept, 2)
}

func TestIOU(t *testing.T) {
	a := types.Box{X1: 0, Y1: 0, X2: 100, Y2: 100}
	assert.InDelta(t, 1.0, iou(a, a), 1e-9)

	b := types.Box{X1: 100, Y1: 100, X2: 200, Y2: 200}
	assert.Equal(t, 0.0, iou(a, b))

	c := types.Box{X1: 50, Y1: 0, X2: 150, Y2: 100}
	assert.InDelta(t, 5000.0/15000.0, iou(a, c), 1e-9)
}
