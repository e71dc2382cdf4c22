// Package interp is the client-side contract for smoothing sparse remote
// cursor updates. It consumes the broadcast stream and produces a displayed
// position per render tick; it holds no authoritative state and never writes
// back to the network.
package interp

import "time"

// DefaultWindow should match or slightly exceed the server's throttle
// interval so motion reaches the target at or just before the next update.
const DefaultWindow = 50 * time.Millisecond

// RemoteCursor tracks one remote connection's interpolation state. Prior is
// the displayed position at the moment Target was received, not the previous
// raw target; that is what prevents a visible teleport when updates arrive
// faster than the window closes.
type RemoteCursor struct {
	PriorX, PriorY   float64
	TargetX, TargetY float64
	ReceivedAt       time.Time
	lastSeq          uint64
}

// Tracker maintains interpolation state for every visible remote cursor.
// Not safe for concurrent use; callers drive it from a single render loop.
type Tracker struct {
	window  time.Duration
	cursors map[string]*RemoteCursor
}

func NewTracker(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{
		window:  window,
		cursors: make(map[string]*RemoteCursor),
	}
}

// Observe feeds one cursor_update delta into the tracker. The first delta
// for a connection snaps both prior and target to the delivered position.
// Deltas with a sequence number at or below the last seen one are
// out-of-order deliveries and are discarded.
func (t *Tracker) Observe(id string, x, y float64, seq uint64, now time.Time) {
	rc, ok := t.cursors[id]
	if !ok {
		t.cursors[id] = &RemoteCursor{
			PriorX: x, PriorY: y,
			TargetX: x, TargetY: y,
			ReceivedAt: now,
			lastSeq:    seq,
		}
		return
	}
	if seq <= rc.lastSeq {
		return
	}
	// Capture where the cursor is drawn right now before retargeting.
	curX, curY := t.at(rc, now)
	rc.PriorX, rc.PriorY = curX, curY
	rc.TargetX, rc.TargetY = x, y
	rc.ReceivedAt = now
	rc.lastSeq = seq
}

// At returns the position to draw for a connection at the given render time.
// Unknown connections report ok=false.
func (t *Tracker) At(id string, now time.Time) (x, y float64, ok bool) {
	rc, found := t.cursors[id]
	if !found {
		return 0, 0, false
	}
	x, y = t.at(rc, now)
	return x, y, true
}

func (t *Tracker) at(rc *RemoteCursor, now time.Time) (float64, float64) {
	progress := float64(now.Sub(rc.ReceivedAt)) / float64(t.window)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	x := rc.PriorX + (rc.TargetX-rc.PriorX)*progress
	y := rc.PriorY + (rc.TargetY-rc.PriorY)*progress
	return x, y
}

// Forget drops a connection's state, typically on user_left.
func (t *Tracker) Forget(id string) { delete(t.cursors, id) }

// Len reports how many remote cursors are being tracked.
func (t *Tracker) Len() int { return len(t.cursors) }
