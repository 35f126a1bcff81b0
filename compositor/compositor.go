// Package compositor owns the working canvas for dynamic challenges. It
// detects which just-selected tiles were replaced with fresh imagery,
// fetches the replacements and pastes them onto an in-memory canvas that
// the detector re-reads on every pass.
package compositor

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"github.com/solvekit/captchaflow/types"
)

// Canvas geometry for the dynamic 3x3 grid.
const (
	CanvasSize = 300
	TileSize   = 100
	gridCells  = 3
)

// ImageFetcher retrieves and decodes a tile image by URL.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) (image.Image, error)
}

// Compositor holds the scratch canvas for one challenge instance. It is
// exclusively owned by that instance: no locking, no concurrent access.
type Compositor struct {
	canvas  *image.RGBA
	fetcher ImageFetcher
	logger  *zap.Logger
}

// New creates a Compositor using the given fetcher for replacement tiles.
func New(fetcher ImageFetcher, logger *zap.Logger) *Compositor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compositor{
		fetcher: fetcher,
		logger:  logger.With(zap.String("component", "compositor")),
	}
}

// Reset discards any previous canvas and initializes a fresh one from the
// full challenge image. Sources that are not already CanvasSize square are
// scaled to fit.
func (c *Compositor) Reset(src image.Image) {
	c.canvas = image.NewRGBA(image.Rect(0, 0, CanvasSize, CanvasSize))
	b := src.Bounds()
	if b.Dx() == CanvasSize && b.Dy() == CanvasSize {
		xdraw.Draw(c.canvas, c.canvas.Bounds(), src, b.Min, xdraw.Src)
		return
	}
	xdraw.ApproxBiLinear.Scale(c.canvas, c.canvas.Bounds(), src, b, xdraw.Src, nil)
}

// Canvas returns the current working image, or nil before the first Reset.
func (c *Compositor) Canvas() *image.RGBA {
	return c.canvas
}

// Refreshed reports whether every selected tile's source identifier differs
// between the previous and current reads. A single unchanged identifier
// means the widget is still loading replacements and the read must be
// retried. Identity is URL equality, never pixel comparison.
func Refreshed(selected []int, prev, curr []string) bool {
	if len(curr) < gridCells*gridCells || len(prev) < gridCells*gridCells {
		return false
	}
	for _, tile := range selected {
		if tile < 1 || tile > len(curr) || tile > len(prev) {
			return false
		}
		if curr[tile-1] == prev[tile-1] {
			return false
		}
	}
	return true
}

// Composite fetches the replacement image for each selected tile and pastes
// it at the tile's grid position. A fetch or decode failure aborts the pass
// with a recoverable error; the caller re-checks the refresh state and
// retries the whole pass.
func (c *Compositor) Composite(ctx context.Context, selected []int, urls []string) error {
	if c.canvas == nil {
		return types.NewError(types.ErrFetchFailed, "compositor has no canvas; Reset first")
	}
	for _, tile := range selected {
		if tile < 1 || tile > len(urls) {
			return types.NewError(types.ErrFetchFailed,
				fmt.Sprintf("tile %d out of range for %d urls", tile, len(urls)))
		}
		img, err := c.fetcher.FetchImage(ctx, urls[tile-1])
		if err != nil {
			return types.NewError(types.ErrFetchFailed,
				fmt.Sprintf("fetching replacement tile %d", tile)).
				WithRetryable(true).
				WithCause(err)
		}
		c.paste(img, tile)
		c.logger.Debug("pasted replacement tile", zap.Int("tile", tile))
	}
	return nil
}

// paste draws a tile image into the canvas region for the 1-based,
// row-major tile index, scaling when the source is not TileSize square.
func (c *Compositor) paste(tile image.Image, index int) {
	row := (index - 1) / gridCells
	col := (index - 1) % gridCells
	dst := image.Rect(col*TileSize, row*TileSize, (col+1)*TileSize, (row+1)*TileSize)

	b := tile.Bounds()
	if b.Dx() == TileSize && b.Dy() == TileSize {
		xdraw.Draw(c.canvas, dst, tile, b.Min, xdraw.Src)
		return
	}
	xdraw.ApproxBiLinear.Scale(c.canvas, dst, tile, b, xdraw.Src, nil)
}
