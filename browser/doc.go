// Package browser provides the automation port the engine drives: a Driver
// abstraction over a live DOM tree with bounded waits, plus the frame
// navigator that switches context between the widget's nested surfaces.
// The chromedp-backed implementation attaches to iframe targets directly,
// so cross-origin challenge frames behave like any other page.
package browser
