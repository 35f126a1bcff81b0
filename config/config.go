package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/solvekit/captchaflow/browser"
	"github.com/solvekit/captchaflow/types"
)

// Config is the complete solver configuration.
type Config struct {
	Browser  browser.Config `yaml:"browser"`
	Engine   Engine         `yaml:"engine"`
	Detector Detector       `yaml:"detector"`
	Fetcher  Fetcher        `yaml:"fetcher"`
	Pacing   Pacing         `yaml:"pacing"`
	Log      Log            `yaml:"log"`
}

// Engine bounds the retry/verification loop. Both loop ceilings are
// explicit and configurable; the engine never relies on an external kill
// to terminate.
type Engine struct {
	// MaxAttempts bounds classify/solve passes for one Solve call.
	MaxAttempts int `yaml:"max_attempts"`
	// MaxRefreshRounds bounds select/refresh/composite cycles for one
	// dynamic challenge.
	MaxRefreshRounds int `yaml:"max_refresh_rounds"`
	// MaxRefreshPolls bounds identifier re-reads while waiting for
	// replacement tiles to load.
	MaxRefreshPolls int           `yaml:"max_refresh_polls"`
	RefreshPoll     time.Duration `yaml:"refresh_poll"`
	ElementTimeout  time.Duration `yaml:"element_timeout"`
	FrameTimeout    time.Duration `yaml:"frame_timeout"`
	// AutoSolveProbe is the short wait for the widget self-reporting
	// solved right after the checkbox click.
	AutoSolveProbe time.Duration `yaml:"auto_solve_probe"`
	// VerifyProbe is the wait for the solved indicator after verify.
	VerifyProbe time.Duration `yaml:"verify_probe"`
}

// Detector configures the object-detection model.
type Detector struct {
	ModelPath  string  `yaml:"model_path"`
	InputSize  int     `yaml:"input_size"`
	Confidence float32 `yaml:"confidence"`
	IOU        float32 `yaml:"iou"`
}

// Fetcher configures image retrieval.
type Fetcher struct {
	Timeout  time.Duration `yaml:"timeout"`
	MaxTries uint          `yaml:"max_tries"`
}

// Pacing configures the human-pacing delay floor.
type Pacing struct {
	Floor time.Duration `yaml:"floor"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Browser: browser.DefaultConfig(),
		Engine: Engine{
			MaxAttempts:      8,
			MaxRefreshRounds: 12,
			MaxRefreshPolls:  40,
			RefreshPoll:      250 * time.Millisecond,
			ElementTimeout:   10 * time.Second,
			FrameTimeout:     20 * time.Second,
			AutoSolveProbe:   3 * time.Second,
			VerifyProbe:      4 * time.Second,
		},
		Detector: Detector{
			ModelPath:  "./model.onnx",
			InputSize:  640,
			Confidence: 0.35,
			IOU:        0.45,
		},
		Fetcher: Fetcher{
			Timeout:  10 * time.Second,
			MaxTries: 4,
		},
		Pacing: Pacing{
			Floor: 100 * time.Millisecond,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads YAML from path over the defaults and validates the result.
// An empty path returns validated defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	invalid := func(msg string) error {
		return types.NewError(types.ErrInvalidConfig, msg)
	}
	if c.Engine.MaxAttempts <= 0 {
		return invalid("engine.max_attempts must be positive")
	}
	if c.Engine.MaxRefreshRounds <= 0 {
		return invalid("engine.max_refresh_rounds must be positive")
	}
	if c.Engine.MaxRefreshPolls <= 0 {
		return invalid("engine.max_refresh_polls must be positive")
	}
	if c.Engine.RefreshPoll <= 0 {
		return invalid("engine.refresh_poll must be positive")
	}
	if c.Engine.ElementTimeout <= 0 || c.Engine.FrameTimeout <= 0 {
		return invalid("engine timeouts must be positive")
	}
	if c.Detector.ModelPath == "" {
		return invalid("detector.model_path must be set")
	}
	if c.Detector.Confidence <= 0 || c.Detector.Confidence >= 1 {
		return invalid("detector.confidence must be in (0, 1)")
	}
	if c.Detector.IOU <= 0 || c.Detector.IOU >= 1 {
		return invalid("detector.iou must be in (0, 1)")
	}
	return nil
}

// BuildLogger constructs a zap logger for the configured level.
func (l Log) BuildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", l.Level, err)
	}
	zcfg := zap.NewProductionConfig()
	if l.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}
