package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayClampedToFloor(t *testing.T) {
	p := New(200 * time.Millisecond)

	// A distribution centered far below the floor must always clamp.
	profile := Profile{Mu: -5.0, Sigma: 0.01}
	for i := 0; i < 50; i++ {
		assert.Equal(t, 200*time.Millisecond, p.Delay(profile))
	}
}

func TestDelayNeverBelowFloor(t *testing.T) {
	p := New(0) // falls back to DefaultFloor

	for i := 0; i < 200; i++ {
		assert.GreaterOrEqual(t, p.Delay(Generic), DefaultFloor)
	}
}

func TestSleepHonorsCancellation(t *testing.T) {
	p := New(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Sleep(ctx, PreVerify)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNopReturnsImmediately(t *testing.T) {
	start := time.Now()
	err := Nop{}.Sleep(context.Background(), PreVerify)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
