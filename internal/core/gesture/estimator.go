package gesture

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// sampleNoiseFloor drops samples closer together than 5ms; per-frame
	// deltas below that are dominated by input jitter.
	sampleNoiseFloor = 5 * time.Millisecond

	// StaleRelease is the hold-and-release heuristic: if more than 100ms
	// pass between the last drag sample and the release, the throw velocity
	// is zero.
	StaleRelease = 100 * time.Millisecond

	// The 60/40 blend between the prior smoothed value and the newest
	// finite difference is a deliberate responsiveness/noise tradeoff; the
	// throw feel depends on these exact weights.
	emaCarry = 0.6
	emaBlend = 0.4
)

// VelocityEstimator derives a throw velocity from drag position samples via
// an exponentially smoothed finite difference. One estimator lives inside
// each drag session and is discarded with it.
type VelocityEstimator struct {
	smoothed mgl32.Vec3
	lastPos  mgl32.Vec3
	lastAt   time.Time
	primed   bool
}

// Reset re-arms the estimator at a session start: smoothed velocity back to
// zero, reference sample at the start transform.
func (e *VelocityEstimator) Reset(pos mgl32.Vec3, at time.Time) {
	e.smoothed = mgl32.Vec3{}
	e.lastPos = pos
	e.lastAt = at
	e.primed = true
}

// Sample feeds one drag position. Samples inside the noise floor are
// ignored; otherwise smoothed = smoothed*0.6 + (Δpos/Δt)*0.4.
func (e *VelocityEstimator) Sample(pos mgl32.Vec3, at time.Time) {
	if !e.primed {
		e.Reset(pos, at)
		return
	}
	dt := at.Sub(e.lastAt)
	if dt < sampleNoiseFloor {
		return
	}
	instantaneous := pos.Sub(e.lastPos).Mul(1 / float32(dt.Seconds()))
	e.smoothed = e.smoothed.Mul(emaCarry).Add(instantaneous.Mul(emaBlend))
	e.lastPos = pos
	e.lastAt = at
}

// Value returns the current smoothed velocity.
func (e *VelocityEstimator) Value() mgl32.Vec3 { return e.smoothed }

// ReleaseVelocity returns the velocity to impart at the given release time:
// the smoothed value, or zero when the last sample is stale.
func (e *VelocityEstimator) ReleaseVelocity(at time.Time) mgl32.Vec3 {
	if !e.primed || at.Sub(e.lastAt) > StaleRelease {
		return mgl32.Vec3{}
	}
	return e.smoothed
}
