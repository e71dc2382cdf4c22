// Package validate holds the pure accept/reject checks applied to client
// payloads before any state is touched. Rejection here is silent: the
// functions report pass/fail only, logging is the caller's concern.
package validate

import (
	"math"

	"github.com/canvas-sync/backend/internal/protocol"
)

// CoordMax bounds both axes of the shared canvas. Coordinates outside
// [0, CoordMax] are rejected, never clamped.
const CoordMax = 10000

// ValidCoord reports whether a single coordinate is a real number inside the
// canvas rectangle.
func ValidCoord(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= 0 && v <= CoordMax
}

// ValidPoint checks both axes at once. Used for cursor positions and for
// object move/drop targets.
func ValidPoint(x, y float64) bool {
	return ValidCoord(x) && ValidCoord(y)
}

// ValidatePositionUpdate accepts a cursor_move payload only when both
// coordinates are in bounds and the sequence number and origin timestamp are
// present. Zero values for seq/timestamp count as missing: JSON omits them
// identically to sending them as zero, and a correct client starts seq at 1.
func ValidatePositionUpdate(p protocol.CursorMovePayload) bool {
	if !ValidPoint(p.X, p.Y) {
		return false
	}
	if p.Seq == 0 {
		return false
	}
	if p.Timestamp == 0 {
		return false
	}
	return true
}
