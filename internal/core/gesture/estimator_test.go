package gesture

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestVelocityEstimator(t *testing.T) {
	t0 := time.Now()

	t.Run("Exact Blend Recurrence", func(t *testing.T) {
		var e VelocityEstimator
		e.Reset(mgl32.Vec3{}, t0)

		// 0.1m in 10ms along X: instantaneous 10 m/s.
		e.Sample(mgl32.Vec3{0.1, 0, 0}, t0.Add(10*time.Millisecond))
		require.InDelta(t, 0.4*10, float64(e.Value().X()), 1e-4)

		// Another 0.05m in 10ms: instantaneous 5 m/s.
		e.Sample(mgl32.Vec3{0.15, 0, 0}, t0.Add(20*time.Millisecond))
		want := 0.6*(0.4*10) + 0.4*5
		require.InDelta(t, want, float64(e.Value().X()), 1e-4)
	})

	t.Run("Noise Floor Drops Tight Samples", func(t *testing.T) {
		var e VelocityEstimator
		e.Reset(mgl32.Vec3{}, t0)
		e.Sample(mgl32.Vec3{1, 0, 0}, t0.Add(2*time.Millisecond))
		require.Equal(t, mgl32.Vec3{}, e.Value())

		// The dropped sample does not advance the reference either.
		e.Sample(mgl32.Vec3{0.1, 0, 0}, t0.Add(10*time.Millisecond))
		require.InDelta(t, 0.4*10, float64(e.Value().X()), 1e-4)
	})

	t.Run("Stale Release Is Zero", func(t *testing.T) {
		var e VelocityEstimator
		e.Reset(mgl32.Vec3{}, t0)
		e.Sample(mgl32.Vec3{0.1, 0, 0}, t0.Add(10*time.Millisecond))
		require.NotEqual(t, mgl32.Vec3{}, e.Value())

		stale := t0.Add(10*time.Millisecond).Add(StaleRelease + time.Millisecond)
		require.Equal(t, mgl32.Vec3{}, e.ReleaseVelocity(stale))

		fresh := t0.Add(10*time.Millisecond).Add(50 * time.Millisecond)
		require.Equal(t, e.Value(), e.ReleaseVelocity(fresh))
	})

	t.Run("Unprimed Releases Zero", func(t *testing.T) {
		var e VelocityEstimator
		require.Equal(t, mgl32.Vec3{}, e.ReleaseVelocity(t0))
	})

	t.Run("Reset Clears Smoothed Value", func(t *testing.T) {
		var e VelocityEstimator
		e.Reset(mgl32.Vec3{}, t0)
		e.Sample(mgl32.Vec3{1, 0, 0}, t0.Add(20*time.Millisecond))
		require.NotEqual(t, mgl32.Vec3{}, e.Value())

		e.Reset(mgl32.Vec3{5, 0, 0}, t0.Add(time.Second))
		require.Equal(t, mgl32.Vec3{}, e.Value())
	})
}
