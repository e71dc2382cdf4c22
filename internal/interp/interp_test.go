package interp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestFirstDeltaSnapsWithoutInterpolation(t *testing.T) {
	tr := NewTracker(50 * time.Millisecond)
	tr.Observe("A", 300, 400, 1, t0)

	x, y, ok := tr.At("A", t0)
	require.True(t, ok)
	assert.Equal(t, 300.0, x)
	assert.Equal(t, 400.0, y)

	// Still at the snap position mid-window: prior == target.
	x, _, _ = tr.At("A", t0.Add(25*time.Millisecond))
	assert.Equal(t, 300.0, x)
}

func TestMidWindowAndCompletion(t *testing.T) {
	tr := NewTracker(50 * time.Millisecond)
	tr.Observe("A", 100, 100, 1, t0)
	tr.Observe("A", 150, 100, 2, t0)

	x, y, ok := tr.At("A", t0.Add(25*time.Millisecond))
	require.True(t, ok)
	assert.InDelta(t, 125.0, x, 1e-9)
	assert.Equal(t, 100.0, y)

	x, _, _ = tr.At("A", t0.Add(50*time.Millisecond))
	assert.Equal(t, 150.0, x)

	// Past the window the cursor holds the target, no overshoot.
	x, _, _ = tr.At("A", t0.Add(500*time.Millisecond))
	assert.Equal(t, 150.0, x)
}

func TestOutputStaysBetweenPriorAndTarget(t *testing.T) {
	tr := NewTracker(50 * time.Millisecond)
	tr.Observe("A", 0, 0, 1, t0)
	tr.Observe("A", 1000, 500, 2, t0)

	for _, elapsed := range []time.Duration{
		-10 * time.Millisecond, 0, time.Millisecond, 10 * time.Millisecond,
		49 * time.Millisecond, 50 * time.Millisecond, time.Second,
	} {
		x, y, ok := tr.At("A", t0.Add(elapsed))
		require.True(t, ok)
		assert.GreaterOrEqual(t, x, 0.0)
		assert.LessOrEqual(t, x, 1000.0)
		assert.GreaterOrEqual(t, y, 0.0)
		assert.LessOrEqual(t, y, 500.0)
	}
}

func TestFastUpdateRetargetsFromDisplayedPosition(t *testing.T) {
	tr := NewTracker(50 * time.Millisecond)
	tr.Observe("A", 0, 0, 1, t0)
	tr.Observe("A", 100, 0, 2, t0)

	// A new target lands halfway through the window. The prior must be the
	// position drawn at that instant (50), not the previous raw target (100),
	// or the cursor would teleport.
	mid := t0.Add(25 * time.Millisecond)
	tr.Observe("A", 200, 0, 3, mid)

	x, _, _ := tr.At("A", mid)
	assert.InDelta(t, 50.0, x, 1e-9)

	x, _, _ = tr.At("A", mid.Add(25*time.Millisecond))
	assert.InDelta(t, 125.0, x, 1e-9)

	x, _, _ = tr.At("A", mid.Add(50*time.Millisecond))
	assert.Equal(t, 200.0, x)
}

func TestStaleSequenceDiscarded(t *testing.T) {
	tr := NewTracker(50 * time.Millisecond)
	tr.Observe("A", 100, 100, 5, t0)
	tr.Observe("A", 999, 999, 4, t0.Add(time.Millisecond))
	tr.Observe("A", 888, 888, 5, t0.Add(2*time.Millisecond))

	x, y, _ := tr.At("A", t0.Add(time.Hour))
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 100.0, y)
}

func TestForget(t *testing.T) {
	tr := NewTracker(0) // zero window falls back to the default
	tr.Observe("A", 1, 1, 1, t0)
	tr.Observe("B", 2, 2, 1, t0)
	require.Equal(t, 2, tr.Len())

	tr.Forget("A")
	assert.Equal(t, 1, tr.Len())
	_, _, ok := tr.At("A", t0)
	assert.False(t, ok)
}
