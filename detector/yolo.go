package detector

import (
	"context"
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/solvekit/captchaflow/types"
)

// YOLOConfig configures the ONNX detection model.
type YOLOConfig struct {
	ModelPath  string
	InputSize  int
	Confidence float32
	IOU        float32
}

// DefaultYOLOConfig returns default model tuning.
func DefaultYOLOConfig(modelPath string) YOLOConfig {
	return YOLOConfig{
		ModelPath:  modelPath,
		InputSize:  640,
		Confidence: 0.35,
		IOU:        0.45,
	}
}

// YOLO runs a YOLO-family ONNX model through gocv's DNN module.
type YOLO struct {
	net    gocv.Net
	config YOLOConfig
	logger *zap.Logger
	mu     sync.Mutex
}

// NewYOLO loads the model from disk. The returned detector must be closed.
func NewYOLO(config YOLOConfig, logger *zap.Logger) (*YOLO, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.InputSize <= 0 {
		config.InputSize = 640
	}

	net := gocv.ReadNetFromONNX(config.ModelPath)
	if net.Empty() {
		return nil, types.NewError(types.ErrDetector,
			fmt.Sprintf("loading model %s", config.ModelPath))
	}

	logger.Info("detection model loaded",
		zap.String("model", config.ModelPath),
		zap.Int("input_size", config.InputSize))

	return &YOLO{
		net:    net,
		config: config,
		logger: logger.With(zap.String("component", "detector")),
	}, nil
}

// Detect runs one forward pass and returns post-processed detections in
// the pixel space of the input image.
func (d *YOLO) Detect(ctx context.Context, img image.Image) ([]types.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	mat := imageToMat(img)
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0,
		image.Pt(d.config.InputSize, d.config.InputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, types.NewError(types.ErrDetector, "reading model output").WithCause(err)
	}

	dims := output.Size()
	stride := dims[len(dims)-1]
	bounds := img.Bounds()
	scaleX := float64(bounds.Dx()) / float64(d.config.InputSize)
	scaleY := float64(bounds.Dy()) / float64(d.config.InputSize)

	raw := decodePredictions(data, stride, d.config.Confidence, scaleX, scaleY)
	dets := nonMaxSuppression(raw, d.config.IOU)

	d.logger.Debug("detection pass complete",
		zap.Int("raw", len(raw)),
		zap.Int("kept", len(dets)))
	return dets, nil
}

// Close releases the underlying network.
func (d *YOLO) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// imageToMat converts a Go image to a BGR gocv.Mat, the channel order the
// DNN module expects.
func imageToMat(img image.Image) gocv.Mat {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat
}
