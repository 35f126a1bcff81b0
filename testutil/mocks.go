package testutil

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/solvekit/captchaflow/browser"
	"github.com/solvekit/captchaflow/types"
)

// ErrNotFound builds the transient not-ready error a real driver returns
// when a selector never appears.
func ErrNotFound(selector string) error {
	return types.NewError(types.ErrNotReady, "waiting for "+selector).WithRetryable(true)
}

// FakeElement is a scriptable browser.Element.
type FakeElement struct {
	mu       sync.Mutex
	Attrs    map[string]string
	AttrErr  error
	ClickErr error
	Clicks   int
}

// Click records the click.
func (e *FakeElement) Click(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	return nil
}

// Attribute returns the scripted attribute value.
func (e *FakeElement) Attribute(_ context.Context, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.AttrErr != nil {
		return "", e.AttrErr
	}
	return e.Attrs[name], nil
}

// FakeDriver is a scriptable browser.Driver. Fixed responses go in the
// maps; dynamic behavior goes in the hooks, which win when set.
type FakeDriver struct {
	mu sync.Mutex

	TextValues map[string]string
	TextErrs   map[string]error
	ClickErrs  map[string]error
	FrameErrs  map[string]error

	// FindFunc and FindAllFunc, when set, script element lookups.
	FindFunc    func(selector string) (browser.Element, error)
	FindAllFunc func(selector string) ([]browser.Element, error)
	// OnClick observes every successful click.
	OnClick func(selector string)

	NavigatedURLs []string
	Clicked       []string
	EnteredFrames []string
	CurrentFrame  string
	Closed        bool
}

// NewFakeDriver returns an empty scriptable driver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		TextValues: make(map[string]string),
		TextErrs:   make(map[string]error),
		ClickErrs:  make(map[string]error),
		FrameErrs:  make(map[string]error),
	}
}

// Navigate records the URL.
func (d *FakeDriver) Navigate(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.NavigatedURLs = append(d.NavigatedURLs, url)
	return nil
}

// Find returns the scripted element for selector.
func (d *FakeDriver) Find(_ context.Context, selector string, _ time.Duration) (browser.Element, error) {
	d.mu.Lock()
	find := d.FindFunc
	d.mu.Unlock()
	if find != nil {
		return find(selector)
	}
	return &FakeElement{}, nil
}

// FindAll returns the scripted elements for selector.
func (d *FakeDriver) FindAll(_ context.Context, selector string, _ time.Duration) ([]browser.Element, error) {
	d.mu.Lock()
	findAll := d.FindAllFunc
	d.mu.Unlock()
	if findAll != nil {
		return findAll(selector)
	}
	return []browser.Element{&FakeElement{}}, nil
}

// Click records the click unless scripted to fail.
func (d *FakeDriver) Click(_ context.Context, selector string, _ time.Duration) error {
	d.mu.Lock()
	err := d.ClickErrs[selector]
	onClick := d.OnClick
	if err == nil {
		d.Clicked = append(d.Clicked, selector)
	}
	d.mu.Unlock()
	if err != nil {
		return err
	}
	if onClick != nil {
		onClick(selector)
	}
	return nil
}

// Text returns the scripted text for selector.
func (d *FakeDriver) Text(_ context.Context, selector string, _ time.Duration) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.TextErrs[selector]; err != nil {
		return "", err
	}
	text, ok := d.TextValues[selector]
	if !ok {
		return "", ErrNotFound(selector)
	}
	return text, nil
}

// SwitchFrame records the frame switch unless scripted to fail.
func (d *FakeDriver) SwitchFrame(_ context.Context, urlPart string, _ time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.FrameErrs[urlPart]; err != nil {
		return err
	}
	d.EnteredFrames = append(d.EnteredFrames, urlPart)
	d.CurrentFrame = urlPart
	return nil
}

// SwitchDefault resets the recorded frame.
func (d *FakeDriver) SwitchDefault(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CurrentFrame = ""
	return nil
}

// Close marks the driver closed.
func (d *FakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed = true
	return nil
}

// ClickedCount returns how many recorded clicks match the selector.
func (d *FakeDriver) ClickedCount(selector string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.Clicked {
		if s == selector {
			n++
		}
	}
	return n
}

// FakeDetector returns queued detection passes in order, repeating the
// last entry once the queue is exhausted.
type FakeDetector struct {
	mu    sync.Mutex
	Queue [][]types.Detection
	Err   error
	Calls int
}

// Detect pops the next scripted pass.
func (f *FakeDetector) Detect(context.Context, image.Image) ([]types.Detection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Queue) == 0 {
		return nil, nil
	}
	head := f.Queue[0]
	if len(f.Queue) > 1 {
		f.Queue = f.Queue[1:]
	}
	return head, nil
}

// FakeFetcher serves scripted images by URL, falling back to a blank
// 300x300 canvas for unknown URLs.
type FakeFetcher struct {
	mu      sync.Mutex
	Images  map[string]image.Image
	Err     error
	Fetched []string
}

// FetchImage returns the scripted image for url.
func (f *FakeFetcher) FetchImage(_ context.Context, url string) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fetched = append(f.Fetched, url)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Images != nil {
		if img, ok := f.Images[url]; ok {
			return img, nil
		}
	}
	return image.NewRGBA(image.Rect(0, 0, 300, 300)), nil
}
