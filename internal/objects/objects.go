// Package objects owns the shared movable objects and the exclusive-lock
// arbitration over them. The Store is the only writer of OwnerID.
package objects

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("object not found")
var ErrOwnedByAnother = errors.New("owned by another user")
var ErrNotOwner = errors.New("does not own object")

// Object is a server-authoritative movable entity. OwnerID is empty when the
// object is unowned.
type Object struct {
	ID      string
	X       float64
	Y       float64
	Width   float64
	Height  float64
	Color   string
	OwnerID string
}

// Store holds every shared object for the process lifetime. It is not
// internally locked: all mutation must come from the single room loop
// goroutine, which is what makes each pickup's check-then-set atomic.
type Store struct {
	objects map[string]*Object
	order   []string // stable snapshot ordering
}

// Seed creates the fixed initial object set. Objects are laid out on a
// diagonal so freshly connected clients see them apart from each other.
func Seed(count int, palette []string) *Store {
	s := &Store{objects: make(map[string]*Object, count)}
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("obj-%d", i+1)
		s.objects[id] = &Object{
			ID:     id,
			X:      float64(200 + i*180),
			Y:      float64(200 + i*120),
			Width:  120,
			Height: 80,
			Color:  palette[i%len(palette)],
		}
		s.order = append(s.order, id)
	}
	return s
}

// Pickup grants exclusive ownership when the object is unowned or already
// held by the requester. Re-pickup by the current owner succeeds and the
// caller re-broadcasts the (identical) state, so clients that missed the
// original grant still converge.
func (s *Store) Pickup(id, requester string) (Object, error) {
	obj, ok := s.objects[id]
	if !ok {
		return Object{}, ErrNotFound
	}
	if obj.OwnerID != "" && obj.OwnerID != requester {
		return Object{}, ErrOwnedByAnother
	}
	obj.OwnerID = requester
	return *obj, nil
}

// Move repositions an object the requester currently owns. Non-owner moves
// are rejected without mutating position; the caller treats that as a stale
// racing message, not a reportable error.
func (s *Store) Move(id, requester string, x, y float64) (Object, error) {
	obj, ok := s.objects[id]
	if !ok {
		return Object{}, ErrNotFound
	}
	if obj.OwnerID != requester {
		return Object{}, ErrNotOwner
	}
	obj.X, obj.Y = x, y
	return *obj, nil
}

// Drop sets the final position and returns the object to the unowned state.
func (s *Store) Drop(id, requester string, x, y float64) (Object, error) {
	obj, ok := s.objects[id]
	if !ok {
		return Object{}, ErrNotFound
	}
	if obj.OwnerID != requester {
		return Object{}, ErrNotOwner
	}
	obj.X, obj.Y = x, y
	obj.OwnerID = ""
	return *obj, nil
}

// ReleaseAllOwnedBy clears ownership of every object the given connection
// holds and returns the released objects for broadcasting. It checks current
// ownership per object rather than blindly nulling, so a grant that raced in
// ahead of disconnect cleanup is never overwritten.
func (s *Store) ReleaseAllOwnedBy(requester string) []Object {
	var released []Object
	for _, id := range s.order {
		obj := s.objects[id]
		if obj.OwnerID == requester {
			obj.OwnerID = ""
			released = append(released, *obj)
		}
	}
	return released
}

// ResetOwnership clears every lock and returns the full snapshot. Admin
// surface only.
func (s *Store) ResetOwnership() []Object {
	for _, obj := range s.objects {
		obj.OwnerID = ""
	}
	return s.Snapshot()
}

// Snapshot returns all objects in seed order.
func (s *Store) Snapshot() []Object {
	out := make([]Object, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.objects[id])
	}
	return out
}

func (s *Store) Count() int { return len(s.objects) }
