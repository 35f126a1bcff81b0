package compositor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvekit/captchaflow/types"
)

type mapFetcher struct {
	images map[string]image.Image
}

func (f *mapFetcher) FetchImage(_ context.Context, url string) (image.Image, error) {
	img, ok := f.images[url]
	if !ok {
		return nil, errors.New("no such image")
	}
	return img, nil
}

// solidTile builds a TileSize square of one color.
func solidTile(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func urls(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a' + i))
	}
	return out
}

func TestRefreshed(t *testing.T) {
	prev := urls(9)
	curr := urls(9)

	// Nothing changed: any selected tile with an identical URL blocks.
	assert.False(t, Refreshed([]int{1, 5}, prev, curr))

	// All selected tiles changed.
	curr = urls(9)
	curr[0] = "x"
	curr[4] = "y"
	assert.True(t, Refreshed([]int{1, 5}, prev, curr))

	// One of two selected tiles unchanged.
	curr[4] = prev[4]
	assert.False(t, Refreshed([]int{1, 5}, prev, curr))

	// Unselected tiles changing is irrelevant.
	curr = urls(9)
	curr[8] = "z"
	assert.False(t, Refreshed([]int{1}, prev, curr))
}

func TestRefreshedIdempotent(t *testing.T) {
	prev := urls(9)
	curr := urls(9)
	curr[2] = "fresh"

	first := Refreshed([]int{3}, prev, curr)
	second := Refreshed([]int{3}, prev, curr)
	assert.Equal(t, first, second)
	assert.True(t, first)
}

func TestRefreshedShortRead(t *testing.T) {
	// A partial element read means the grid is mid-rerender.
	assert.False(t, Refreshed([]int{1}, urls(9), urls(4)))
	assert.False(t, Refreshed([]int{12}, urls(9), urls(9)))
}

func TestCompositeRoundTrip(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}

	fetcher := &mapFetcher{images: map[string]image.Image{
		"tile5": solidTile(red),
		"tile9": solidTile(green),
	}}

	c := New(fetcher, nil)
	c.Reset(image.NewRGBA(image.Rect(0, 0, CanvasSize, CanvasSize)))

	tileURLs := urls(9)
	tileURLs[4] = "tile5"
	tileURLs[8] = "tile9"

	require.NoError(t, c.Composite(context.Background(), []int{5, 9}, tileURLs))

	canvas := c.Canvas()
	// Tile 5 occupies rows 100-199, cols 100-199; tile 9 rows 200-299, cols 200-299.
	assert.Equal(t, red, canvas.RGBAAt(150, 150))
	assert.Equal(t, green, canvas.RGBAAt(250, 250))
	// Untouched region stays zero.
	assert.Equal(t, color.RGBA{}, canvas.RGBAAt(50, 50))
}

func TestCompositePixelIdentical(t *testing.T) {
	// A patterned tile must read back pixel-for-pixel at its region.
	tile := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			tile.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	fetcher := &mapFetcher{images: map[string]image.Image{"t": tile}}

	c := New(fetcher, nil)
	c.Reset(image.NewRGBA(image.Rect(0, 0, CanvasSize, CanvasSize)))

	tileURLs := urls(9)
	tileURLs[0] = "t"
	require.NoError(t, c.Composite(context.Background(), []int{1}, tileURLs))

	canvas := c.Canvas()
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			require.Equal(t, tile.RGBAAt(x, y), canvas.RGBAAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestCompositeFetchFailureIsRetryable(t *testing.T) {
	c := New(&mapFetcher{images: map[string]image.Image{}}, nil)
	c.Reset(image.NewRGBA(image.Rect(0, 0, CanvasSize, CanvasSize)))

	err := c.Composite(context.Background(), []int{1}, urls(9))
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrFetchFailed))
	assert.True(t, types.IsRetryable(err))
}

func TestCompositeWithoutReset(t *testing.T) {
	c := New(&mapFetcher{}, nil)
	err := c.Composite(context.Background(), []int{1}, urls(9))
	require.Error(t, err)
}

func TestResetScalesOversizedSource(t *testing.T) {
	c := New(&mapFetcher{}, nil)
	c.Reset(image.NewRGBA(image.Rect(0, 0, 600, 600)))
	require.NotNil(t, c.Canvas())
	assert.Equal(t, CanvasSize, c.Canvas().Bounds().Dx())
	assert.Equal(t, CanvasSize, c.Canvas().Bounds().Dy())
}
