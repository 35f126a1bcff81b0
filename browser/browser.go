package browser

import (
	"context"
	"time"
)

// Element is a handle to a located DOM node. Attribute reads fail with a
// stale-element error once the node detaches, which is how the engine
// notices mid-challenge re-renders.
type Element interface {
	// Click dispatches a click on the node.
	Click(ctx context.Context) error
	// Attribute returns the named attribute's value, or "" when absent.
	Attribute(ctx context.Context, name string) (string, error)
}

// Driver is the browser automation port. Selectors are opaque: XPath when
// they start with "/" or "(", CSS otherwise. Every operation is a blocking
// wait bounded by its timeout; exceeding it yields a retryable
// transient-not-ready error, never a process-fatal one.
type Driver interface {
	// Navigate loads the given URL in the top-level page.
	Navigate(ctx context.Context, url string) error
	// Find waits for the first element matching selector.
	Find(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// FindAll waits for at least one match and returns all of them.
	FindAll(ctx context.Context, selector string, timeout time.Duration) ([]Element, error)
	// Click waits for selector and clicks it.
	Click(ctx context.Context, selector string, timeout time.Duration) error
	// Text waits for selector and returns its visible text.
	Text(ctx context.Context, selector string, timeout time.Duration) (string, error)
	// SwitchFrame moves the driver's context into the iframe whose URL
	// contains urlPart, waiting up to timeout for the frame to exist.
	SwitchFrame(ctx context.Context, urlPart string, timeout time.Duration) error
	// SwitchDefault resets the driver's context to the top-level page.
	SwitchDefault(ctx context.Context) error
	// Close shuts the browser down.
	Close() error
}

// Config configures the browser driver.
type Config struct {
	Headless       bool          `yaml:"headless"`
	Timeout        time.Duration `yaml:"timeout"`
	ViewportWidth  int           `yaml:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height"`
	UserAgent      string        `yaml:"user_agent,omitempty"`
	ProxyURL       string        `yaml:"proxy_url,omitempty"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:       true,
		Timeout:        60 * time.Second,
		ViewportWidth:  1280,
		ViewportHeight: 900,
	}
}
