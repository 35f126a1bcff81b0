// Package detector exposes the object-detection port the grid solver
// consumes, plus a YOLO/ONNX implementation backed by OpenCV's DNN module.
// The detector is constructed once by the caller and injected; nothing in
// the engine instantiates models lazily.
package detector

import (
	"context"
	"image"

	"github.com/solvekit/captchaflow/types"
)

// Detector produces classified bounding boxes for one input image. Given
// identical pixels and model weights the output is deterministic.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]types.Detection, error)
}
