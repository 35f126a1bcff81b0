// Package pacing inserts randomized human-like delays between user-visible
// browser actions. Delays are drawn from a normal distribution and clamped
// to a floor; they are timing camouflage, not correctness-critical.
package pacing

import (
	"context"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Profile selects the delay distribution for one action category.
type Profile struct {
	Mu    float64 // mean, seconds
	Sigma float64 // standard deviation, seconds
}

// Delay profiles matching observed human interaction cadence.
var (
	// Generic paces reloads and other incidental actions.
	Generic = Profile{Mu: 0.3, Sigma: 0.1}
	// TileClick paces consecutive tile selections.
	TileClick = Profile{Mu: 0.5, Sigma: 0.2}
	// PreVerify is the longer pause before pressing verify.
	PreVerify = Profile{Mu: 2.0, Sigma: 0.2}
)

// Policy is a pluggable pacing strategy. Tests substitute a no-op.
type Policy interface {
	// Sleep blocks for one sampled delay or until the context is done.
	Sleep(ctx context.Context, p Profile) error
}

// DefaultFloor is the minimum delay regardless of what the distribution
// sampled; instant actions read as automation.
const DefaultFloor = 100 * time.Millisecond

// Pacer samples normally distributed delays with a floor clamp.
type Pacer struct {
	floor time.Duration
}

// New creates a Pacer with the given floor. A non-positive floor falls
// back to DefaultFloor.
func New(floor time.Duration) *Pacer {
	if floor <= 0 {
		floor = DefaultFloor
	}
	return &Pacer{floor: floor}
}

// Delay samples one delay for the profile.
func (p *Pacer) Delay(profile Profile) time.Duration {
	dist := distuv.Normal{Mu: profile.Mu, Sigma: profile.Sigma}
	d := time.Duration(dist.Rand() * float64(time.Second))
	if d < p.floor {
		d = p.floor
	}
	return d
}

// Sleep blocks for one sampled delay, honoring context cancellation.
func (p *Pacer) Sleep(ctx context.Context, profile Profile) error {
	timer := time.NewTimer(p.Delay(profile))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Nop is a Policy that never waits. Intended for tests.
type Nop struct{}

// Sleep returns immediately.
func (Nop) Sleep(ctx context.Context, _ Profile) error {
	return ctx.Err()
}
