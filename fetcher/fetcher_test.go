package fetcher

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvekit/captchaflow/types"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFetchOK(t *testing.T) {
	payload := []byte("tile-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	c := New(time.Second, 2, nil)
	got, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(time.Second, 4, nil)
	got, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchPermanentFailureDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(time.Second, 4, nil)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrFetchFailed))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchImageDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngBytes(t))
	}))
	defer srv.Close()

	c := New(time.Second, 2, nil)
	img, err := c.FetchImage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestFetchImageBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not an image"))
	}))
	defer srv.Close()

	c := New(time.Second, 2, nil)
	_, err := c.FetchImage(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrFetchFailed))
}
