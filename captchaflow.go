// Copyright (c) Captchaflow Authors.
// Licensed under the MIT License.

// Package captchaflow provides a top-level convenience entry point for
// solving grid image challenges with minimal boilerplate.
//
// Usage:
//
//	import "github.com/solvekit/captchaflow"
//
//	s, err := captchaflow.New(captchaflow.WithModel("./model.onnx"))
//	defer s.Close()
//	err = s.Solve(ctx, "https://example.test/signup")
//
// This is a thin assembly over the browser, detector, fetcher and engine
// packages; use those directly when you need to substitute a component.
package captchaflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/solvekit/captchaflow/browser"
	"github.com/solvekit/captchaflow/config"
	"github.com/solvekit/captchaflow/detector"
	"github.com/solvekit/captchaflow/engine"
	"github.com/solvekit/captchaflow/fetcher"
	"github.com/solvekit/captchaflow/internal/metrics"
	"github.com/solvekit/captchaflow/pacing"
)

// Solver owns a browser session and solves one challenge per Solve call.
type Solver struct {
	cfg      *config.Config
	driver   browser.Driver
	detector detector.Detector
	closers  []func() error
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// Option configures the solver built by [New].
type Option func(*options)

type options struct {
	cfg       *config.Config
	cfgPath   string
	modelPath string
	logger    *zap.Logger
	driver    browser.Driver
	detector  detector.Detector
	metrics   *metrics.Collector
}

// WithConfig supplies a complete configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithConfigFile loads configuration from a YAML file over the defaults.
func WithConfigFile(path string) Option {
	return func(o *options) { o.cfgPath = path }
}

// WithModel overrides the detection model path.
func WithModel(path string) Option {
	return func(o *options) { o.modelPath = path }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDriver substitutes a pre-built browser driver. The solver will not
// close a substituted driver.
func WithDriver(d browser.Driver) Option {
	return func(o *options) { o.driver = d }
}

// WithDetector substitutes a pre-built object detector.
func WithDetector(d detector.Detector) Option {
	return func(o *options) { o.detector = d }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// New assembles a Solver. Components not substituted by options are built
// from configuration: a headless browser and an ONNX detector.
func New(opts ...Option) (*Solver, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if cfg == nil {
		loaded, err := config.Load(o.cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.modelPath != "" {
		cfg.Detector.ModelPath = o.modelPath
	}

	logger := o.logger
	if logger == nil {
		built, err := cfg.Log.BuildLogger()
		if err != nil {
			return nil, err
		}
		logger = built
	}

	s := &Solver{cfg: cfg, logger: logger, metrics: o.metrics}

	s.driver = o.driver
	if s.driver == nil {
		d, err := browser.NewChromeDriver(cfg.Browser, logger)
		if err != nil {
			return nil, err
		}
		s.driver = d
		s.closers = append(s.closers, d.Close)
	}

	s.detector = o.detector
	if s.detector == nil {
		y, err := detector.NewYOLO(detector.YOLOConfig{
			ModelPath:  cfg.Detector.ModelPath,
			InputSize:  cfg.Detector.InputSize,
			Confidence: cfg.Detector.Confidence,
			IOU:        cfg.Detector.IOU,
		}, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.detector = y
		s.closers = append(s.closers, y.Close)
	}

	return s, nil
}

// Solve navigates to url and resolves the challenge widget on it.
func (s *Solver) Solve(ctx context.Context, url string) error {
	if err := s.driver.Navigate(ctx, url); err != nil {
		return err
	}
	eng := engine.New(s.driver, s.detector,
		fetcher.New(s.cfg.Fetcher.Timeout, s.cfg.Fetcher.MaxTries, s.logger),
		s.cfg.Engine, s.logger,
		engine.WithPacer(pacing.New(s.cfg.Pacing.Floor)),
		engine.WithMetrics(s.metrics))
	return eng.Solve(ctx)
}

// Close releases the components the solver built itself.
func (s *Solver) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
