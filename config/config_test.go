package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvekit/captchaflow/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8, cfg.Engine.MaxAttempts)
	assert.Equal(t, 20*time.Second, cfg.Engine.FrameTimeout)
	assert.True(t, cfg.Browser.Headless)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
engine:
  max_attempts: 3
  refresh_poll: 500ms
detector:
  model_path: /models/grid.onnx
browser:
  headless: false
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Engine.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.RefreshPoll)
	assert.Equal(t, "/models/grid.onnx", cfg.Detector.ModelPath)
	assert.False(t, cfg.Browser.Headless)
	// Untouched values keep defaults.
	assert.Equal(t, 12, cfg.Engine.MaxRefreshRounds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero attempts", func(c *Config) { c.Engine.MaxAttempts = 0 }},
		{"zero refresh rounds", func(c *Config) { c.Engine.MaxRefreshRounds = 0 }},
		{"zero refresh polls", func(c *Config) { c.Engine.MaxRefreshPolls = 0 }},
		{"empty model path", func(c *Config) { c.Detector.ModelPath = "" }},
		{"confidence out of range", func(c *Config) { c.Detector.Confidence = 1.5 }},
		{"iou out of range", func(c *Config) { c.Detector.IOU = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, types.IsErrorCode(err, types.ErrInvalidConfig))
		})
	}
}

func TestBuildLogger(t *testing.T) {
	logger, err := Log{Level: "debug", Development: true}.BuildLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = Log{Level: "nope"}.BuildLogger()
	require.Error(t, err)
}
