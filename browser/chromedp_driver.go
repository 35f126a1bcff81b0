package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/solvekit/captchaflow/types"
)

// framePollInterval is how often SwitchFrame re-lists browser targets
// while waiting for an iframe to attach.
const framePollInterval = 100 * time.Millisecond

// ChromeDriver implements Driver on top of chromedp. The driver keeps one
// top-level tab context and, when switched into a frame, a child context
// attached to that iframe's target.
type ChromeDriver struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	pageCtx     context.Context
	pageCancel  context.CancelFunc

	frameCtx    context.Context
	frameCancel context.CancelFunc

	config Config
	logger *zap.Logger
	mu     sync.Mutex
}

// NewChromeDriver launches a browser and returns a driver bound to it.
func NewChromeDriver(config Config, logger *zap.Logger) (*ChromeDriver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.WindowSize(config.ViewportWidth, config.ViewportHeight),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(config.ProxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	pageCtx, pageCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	d := &ChromeDriver{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		pageCtx:     pageCtx,
		pageCancel:  pageCancel,
		config:      config,
		logger:      logger.With(zap.String("component", "chromedp_driver")),
	}

	if err := chromedp.Run(pageCtx); err != nil {
		pageCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	d.logger.Info("browser started",
		zap.Bool("headless", config.Headless),
		zap.Int("viewport_w", config.ViewportWidth),
		zap.Int("viewport_h", config.ViewportHeight))

	return d, nil
}

// current returns the context queries run against: the attached frame when
// one is active, the top-level tab otherwise.
func (d *ChromeDriver) current() context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frameCtx != nil {
		return d.frameCtx
	}
	return d.pageCtx
}

// by picks the chromedp query strategy for a selector.
func by(selector string) chromedp.QueryOption {
	if strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(") {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// notReady wraps a wait timeout as a retryable transient condition.
func notReady(selector string, cause error) error {
	return types.NewError(types.ErrNotReady, fmt.Sprintf("waiting for %q", selector)).
		WithRetryable(true).
		WithCause(cause)
}

// run executes actions against the current context, bounded by timeout.
func (d *ChromeDriver) run(timeout time.Duration, selector string, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(d.current(), timeout)
	defer cancel()
	if err := chromedp.Run(ctx, actions...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return notReady(selector, err)
		}
		return err
	}
	return nil
}

// Navigate loads the URL in the top-level page.
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	d.logger.Debug("navigating", zap.String("url", url))
	return chromedp.Run(d.pageCtx, chromedp.Navigate(url))
}

// Find waits for the first match of selector.
func (d *ChromeDriver) Find(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	els, err := d.FindAll(ctx, selector, timeout)
	if err != nil {
		return nil, err
	}
	return els[0], nil
}

// FindAll waits for at least one match and returns all matched nodes.
func (d *ChromeDriver) FindAll(ctx context.Context, selector string, timeout time.Duration) ([]Element, error) {
	var nodes []*cdp.Node
	runCtx := d.current()
	if err := d.run(timeout, selector, chromedp.Nodes(selector, &nodes, by(selector))); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, notReady(selector, nil)
	}
	els := make([]Element, len(nodes))
	for i, n := range nodes {
		els[i] = &chromeElement{node: n, runCtx: runCtx}
	}
	return els, nil
}

// Click waits for selector and clicks it.
func (d *ChromeDriver) Click(ctx context.Context, selector string, timeout time.Duration) error {
	d.logger.Debug("clicking", zap.String("selector", selector))
	return d.run(timeout, selector, chromedp.Click(selector, by(selector)))
}

// Text waits for selector and returns its visible text.
func (d *ChromeDriver) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	var text string
	if err := d.run(timeout, selector, chromedp.Text(selector, &text, by(selector))); err != nil {
		return "", err
	}
	return text, nil
}

// SwitchFrame attaches to the iframe target whose URL contains urlPart.
func (d *ChromeDriver) SwitchFrame(ctx context.Context, urlPart string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		infos, err := chromedp.Targets(d.pageCtx)
		if err != nil {
			return fmt.Errorf("listing targets: %w", err)
		}
		for _, info := range infos {
			if info.Type == "iframe" && strings.Contains(info.URL, urlPart) {
				frameCtx, frameCancel := chromedp.NewContext(d.pageCtx,
					chromedp.WithTargetID(info.TargetID))

				d.mu.Lock()
				if d.frameCancel != nil {
					d.frameCancel()
				}
				d.frameCtx = frameCtx
				d.frameCancel = frameCancel
				d.mu.Unlock()

				d.logger.Debug("attached to frame",
					zap.String("url_part", urlPart),
					zap.String("target", string(info.TargetID)))
				return nil
			}
		}
		if time.Now().After(deadline) {
			return notReady(urlPart, context.DeadlineExceeded)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(framePollInterval):
		}
	}
}

// SwitchDefault detaches from any frame and returns to the top-level page.
func (d *ChromeDriver) SwitchDefault(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frameCancel != nil {
		d.frameCancel()
		d.frameCtx = nil
		d.frameCancel = nil
	}
	return nil
}

// Close shuts the browser down.
func (d *ChromeDriver) Close() error {
	d.logger.Info("closing browser")
	_ = d.SwitchDefault(context.Background())
	d.pageCancel()
	d.allocCancel()
	return nil
}

// chromeElement is a node handle bound to the context it was found in.
type chromeElement struct {
	node   *cdp.Node
	runCtx context.Context
}

// Click dispatches a mouse click on the node.
func (e *chromeElement) Click(ctx context.Context) error {
	if err := chromedp.Run(e.runCtx, chromedp.MouseClickNode(e.node)); err != nil {
		return staleOr(err, "clicking node")
	}
	return nil
}

// Attribute reads the named attribute from the live node. A read against a
// detached node fails, which callers treat as the stale-reference signal.
func (e *chromeElement) Attribute(ctx context.Context, name string) (string, error) {
	var value string
	err := chromedp.Run(e.runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		attrs, err := dom.GetAttributes(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		for i := 0; i+1 < len(attrs); i += 2 {
			if attrs[i] == name {
				value = attrs[i+1]
				return nil
			}
		}
		return nil
	}))
	if err != nil {
		return "", staleOr(err, fmt.Sprintf("reading attribute %q", name))
	}
	return value, nil
}

// staleOr maps node-level CDP failures to the stale-element taxonomy.
func staleOr(err error, action string) error {
	return types.NewError(types.ErrStaleElement, action).
		WithRetryable(true).
		WithCause(err)
}
