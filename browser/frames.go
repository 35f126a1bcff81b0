package browser

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/solvekit/captchaflow/types"
)

// Surface names one of the widget's nested challenge surfaces.
type Surface string

const (
	// SurfaceCheckbox is the consent-checkbox frame.
	SurfaceCheckbox Surface = "checkbox"
	// SurfaceChallenge is the image-grid challenge frame.
	SurfaceChallenge Surface = "challenge"
)

// Frame URLs are stable identifiers for the widget's iframes; titles and
// DOM structure churn more often than these paths.
const (
	checkboxFrameURL  = "api2/anchor"
	challengeFrameURL = "api2/bframe"
)

// DefaultFrameTimeout bounds how long Enter waits for a surface to appear.
const DefaultFrameTimeout = 20 * time.Second

// FrameNavigator switches the driver's context between the widget's nested
// surfaces. It always resets to the top-level context before switching, so
// nested contexts never accumulate.
type FrameNavigator struct {
	driver  Driver
	timeout time.Duration
	logger  *zap.Logger
}

// NewFrameNavigator creates a navigator over the given driver. A
// non-positive timeout falls back to DefaultFrameTimeout.
func NewFrameNavigator(driver Driver, timeout time.Duration, logger *zap.Logger) *FrameNavigator {
	if timeout <= 0 {
		timeout = DefaultFrameTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FrameNavigator{
		driver:  driver,
		timeout: timeout,
		logger:  logger.With(zap.String("component", "frame_navigator")),
	}
}

// Enter switches the automation context into the named surface. A surface
// that never appears within the timeout is fatal for the current challenge
// instance; the error propagates instead of being retried here.
func (n *FrameNavigator) Enter(ctx context.Context, surface Surface) error {
	if err := n.driver.SwitchDefault(ctx); err != nil {
		return err
	}

	var urlPart string
	switch surface {
	case SurfaceCheckbox:
		urlPart = checkboxFrameURL
	case SurfaceChallenge:
		urlPart = challengeFrameURL
	default:
		return types.NewError(types.ErrFrameNotFound, "unknown surface "+string(surface))
	}

	if err := n.driver.SwitchFrame(ctx, urlPart, n.timeout); err != nil {
		return types.NewError(types.ErrFrameNotFound, "entering "+string(surface)+" frame").
			WithCause(err)
	}
	n.logger.Debug("entered frame", zap.String("surface", string(surface)))
	return nil
}
