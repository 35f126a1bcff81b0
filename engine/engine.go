package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/solvekit/captchaflow/browser"
	"github.com/solvekit/captchaflow/compositor"
	"github.com/solvekit/captchaflow/config"
	"github.com/solvekit/captchaflow/detector"
	"github.com/solvekit/captchaflow/grid"
	"github.com/solvekit/captchaflow/internal/metrics"
	"github.com/solvekit/captchaflow/pacing"
	"github.com/solvekit/captchaflow/types"
)

// Selectors for the widget's challenge surface. The widget's DOM ids have
// been stable for years; the iframe URLs live in the browser package.
const (
	checkboxSelector    = `//div[@class="recaptcha-checkbox-border"]`
	solvedSelector      = `//span[contains(@aria-checked, "true")]`
	instructionSelector = `//div[@id="rc-imageselect"]//strong`
	wrapperSelector     = `//div[@id="rc-imageselect"]`
	tileImagesSelector  = `//div[@id="rc-imageselect-target"]//img`
	tileSelectorFmt     = `(//div[@id="rc-imageselect-target"]//td)[%d]`
	reloadSelector      = `#recaptcha-reload-button`
	verifySelector      = `#recaptcha-verify-button`
)

// Engine runs the retry/verification loop for one widget instance.
type Engine struct {
	driver   browser.Driver
	frames   *browser.FrameNavigator
	detector detector.Detector
	fetcher  compositor.ImageFetcher
	comp     *compositor.Compositor
	pacer    pacing.Policy
	metrics  *metrics.Collector
	cfg      config.Engine
	logger   *zap.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithPacer substitutes the pacing policy.
func WithPacer(p pacing.Policy) Option {
	return func(e *Engine) { e.pacer = p }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// New assembles an engine from injected collaborators.
func New(driver browser.Driver, det detector.Detector, fetch compositor.ImageFetcher,
	cfg config.Engine, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		driver:   driver,
		frames:   browser.NewFrameNavigator(driver, cfg.FrameTimeout, logger),
		detector: det,
		fetcher:  fetch,
		comp:     compositor.New(fetch, logger),
		pacer:    pacing.New(0),
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "engine")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// fatal reports whether an error must abort the solve instead of
// re-entering the loop at classification.
func fatal(err error) bool {
	return types.IsErrorCode(err, types.ErrFrameNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Solve drives the state machine until the widget reports solved or a
// bound is hit. The page must already show the widget; navigation is the
// caller's job.
func (e *Engine) Solve(ctx context.Context) error {
	state := StateCheckbox
	attempts := 0

	var (
		challenge *types.Challenge
		tiles     []int
		tileURLs  []string
	)

	transition := func(next State) {
		e.metrics.RecordTransition(state.String(), next.String())
		e.logger.Debug("state transition",
			zap.Stringer("from", state), zap.Stringer("to", next))
		state = next
	}

	// Any non-fatal failure re-enters at classification; the attempt
	// counter there is the loop's only unbounded-spin guard.
	reclassify := func(err error) error {
		if fatal(err) {
			e.metrics.RecordOutcome("fatal")
			return err
		}
		e.logger.Warn("recovering via re-classification", zap.Error(err))
		transition(StateClassifying)
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch state {
		case StateCheckbox:
			if err := e.clickCheckbox(ctx); err != nil {
				e.metrics.RecordOutcome("fatal")
				return err
			}
			if e.solved(ctx, e.cfg.AutoSolveProbe) {
				e.logger.Info("solved automatically, no challenge shown")
				transition(StateSolved)
				continue
			}
			if err := e.frames.Enter(ctx, browser.SurfaceChallenge); err != nil {
				e.metrics.RecordOutcome("fatal")
				return err
			}
			transition(StateClassifying)

		case StateClassifying:
			attempts++
			if attempts > e.cfg.MaxAttempts {
				e.metrics.RecordOutcome("exhausted")
				return types.NewError(types.ErrRetryExhausted,
					fmt.Sprintf("no solve after %d attempts", e.cfg.MaxAttempts))
			}
			ch, err := e.classify(ctx)
			if err != nil {
				if err := reclassify(err); err != nil {
					return err
				}
				continue
			}
			if !ch.Recognized() {
				e.logger.Debug("unrecognized target, reloading",
					zap.String("challenge", ch.ID.String()))
				if err := e.reload(ctx); err != nil && fatal(err) {
					e.metrics.RecordOutcome("fatal")
					return err
				}
				continue
			}
			challenge = ch
			transition(StateSolving)

		case StateSolving:
			solvedTiles, urls, err := e.solveGrid(ctx, challenge)
			if err != nil {
				if types.IsErrorCode(err, types.ErrUnsolvableGrid) {
					if err := e.reload(ctx); err != nil && fatal(err) {
						e.metrics.RecordOutcome("fatal")
						return err
					}
					transition(StateClassifying)
					continue
				}
				if err := reclassify(err); err != nil {
					return err
				}
				continue
			}
			tiles, tileURLs = solvedTiles, urls
			transition(StateSelecting)

		case StateSelecting:
			if err := e.clickTiles(ctx, tiles, pacing.TileClick); err != nil {
				if err := reclassify(err); err != nil {
					return err
				}
				continue
			}
			if challenge.Variant == types.VariantDynamic {
				if err := e.dynamicRounds(ctx, challenge, tiles, tileURLs); err != nil {
					if err := reclassify(err); err != nil {
						return err
					}
					continue
				}
			}
			transition(StateVerifying)

		case StateVerifying:
			if err := e.pacer.Sleep(ctx, pacing.PreVerify); err != nil {
				return err
			}
			if err := e.driver.Click(ctx, verifySelector, e.cfg.ElementTimeout); err != nil {
				if err := reclassify(err); err != nil {
					return err
				}
				continue
			}
			if e.solved(ctx, e.cfg.VerifyProbe) {
				transition(StateSolved)
				continue
			}
			// No solved indicator: a fresh challenge replaced the old one.
			if err := e.frames.Enter(ctx, browser.SurfaceChallenge); err != nil {
				e.metrics.RecordOutcome("fatal")
				return err
			}
			transition(StateClassifying)

		case StateSolved:
			e.logger.Info("challenge solved", zap.Int("attempts", attempts))
			e.metrics.RecordOutcome("solved")
			if err := e.driver.SwitchDefault(ctx); err != nil {
				e.logger.Warn("resetting to top-level context", zap.Error(err))
			}
			return nil
		}
	}
}

// clickCheckbox enters the checkbox frame and clicks the consent control.
// Failures here are fatal: without the checkbox there is nothing to solve.
func (e *Engine) clickCheckbox(ctx context.Context) error {
	if err := e.frames.Enter(ctx, browser.SurfaceCheckbox); err != nil {
		return err
	}
	return e.driver.Click(ctx, checkboxSelector, e.cfg.ElementTimeout)
}

// solved probes the checkbox frame for the solved indicator within the
// given budget. A failed probe is a normal negative answer, not an error.
func (e *Engine) solved(ctx context.Context, probe time.Duration) bool {
	if err := e.frames.Enter(ctx, browser.SurfaceCheckbox); err != nil {
		return false
	}
	if _, err := e.driver.Find(ctx, solvedSelector, probe); err != nil {
		return false
	}
	return true
}

// reload discards the current challenge after a human-paced delay.
func (e *Engine) reload(ctx context.Context) error {
	if err := e.pacer.Sleep(ctx, pacing.Generic); err != nil {
		return err
	}
	e.metrics.RecordReload()
	return e.driver.Click(ctx, reloadSelector, e.cfg.ElementTimeout)
}

// solveGrid reads the tile image URLs, runs detection over the challenge
// image and maps the boxes onto tiles. An under-threshold result is an
// unsolvable-grid error; the caller reloads.
func (e *Engine) solveGrid(ctx context.Context, ch *types.Challenge) ([]int, []string, error) {
	urls, err := e.tileURLs(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(urls) == 0 {
		return nil, nil, types.NewError(types.ErrNotReady, "no tile images").WithRetryable(true)
	}

	// All tiles of a fresh grid share one full-canvas source image.
	img, err := e.fetcher.FetchImage(ctx, urls[0])
	if err != nil {
		return nil, nil, err
	}

	var input image.Image = img
	if ch.Variant == types.VariantDynamic {
		// The dynamic variant re-detects over the working canvas, so seed
		// it now and keep detecting against it.
		e.comp.Reset(img)
		input = e.comp.Canvas()
	}

	dets, err := e.detect(ctx, input)
	if err != nil {
		return nil, nil, err
	}

	var set types.TileSet
	if ch.Variant == types.VariantSquares {
		set = grid.MapOverlap(dets, ch.Target)
	} else {
		set = grid.MapCentroid(dets, ch.Target)
	}
	if !grid.Solvable(ch.Variant, set) {
		return nil, nil, types.NewError(types.ErrUnsolvableGrid,
			fmt.Sprintf("%s grid mapped %d tiles", ch.Variant, set.Len()))
	}

	tiles := set.Sorted()
	e.logger.Info("grid solved",
		zap.String("challenge", ch.ID.String()),
		zap.String("variant", string(ch.Variant)),
		zap.Ints("tiles", tiles))
	return tiles, urls, nil
}

// detect runs the detector and records its latency.
func (e *Engine) detect(ctx context.Context, img image.Image) ([]types.Detection, error) {
	start := time.Now()
	dets, err := e.detector.Detect(ctx, img)
	e.metrics.ObserveDetection(time.Since(start))
	if err != nil {
		return nil, types.NewError(types.ErrDetector, "detection pass").WithCause(err)
	}
	return dets, nil
}

// tileURLs reads the per-tile source identifiers from the live grid.
func (e *Engine) tileURLs(ctx context.Context) ([]string, error) {
	els, err := e.driver.FindAll(ctx, tileImagesSelector, e.cfg.ElementTimeout)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(els))
	for i, el := range els {
		src, err := el.Attribute(ctx, "src")
		if err != nil {
			// A detached node mid-read means the grid is re-rendering.
			return nil, err
		}
		urls[i] = src
	}
	return urls, nil
}

// clickTiles clicks each tile index in ascending order with human pacing.
func (e *Engine) clickTiles(ctx context.Context, tiles []int, profile pacing.Profile) error {
	for _, tile := range tiles {
		selector := fmt.Sprintf(tileSelectorFmt, tile)
		if err := e.driver.Click(ctx, selector, e.cfg.ElementTimeout); err != nil {
			return err
		}
		if err := e.pacer.Sleep(ctx, profile); err != nil {
			return err
		}
	}
	return nil
}
