// Package room runs the authoritative state loop for one shared canvas: the
// connection registry, presence lifecycle, the throttled cursor pipeline and
// ownership arbitration all execute on a single goroutine, so every
// check-then-set on an object lock is atomic by construction.
package room

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/canvas-sync/backend/internal/objects"
	"github.com/canvas-sync/backend/internal/protocol"
	"github.com/canvas-sync/backend/internal/validate"
)

// DefaultThrottle is the minimum interval between accepted cursor updates
// from one connection. Bursts inside the interval are dropped, not queued.
const DefaultThrottle = 50 * time.Millisecond

var cursorPalette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#008080",
}

type Msg interface{ isRoomMsg() }

// Join registers a connection and delivers the init snapshot to its outbox.
type Join struct {
	ConnID string
	Outbox chan protocol.Envelope
}

// SetName applies a display name to an existing record in place.
type SetName struct {
	ConnID string
	Name   string
}

// Leave removes the record, releasing any objects the connection owned.
type Leave struct{ ConnID string }

// CursorMove is one throttled position report from a client.
type CursorMove struct {
	ConnID  string
	Payload protocol.CursorMovePayload
}

// Pickup requests exclusive ownership of an object.
type Pickup struct {
	ConnID   string
	ObjectID string
}

// ObjectMove repositions an object while owning it.
type ObjectMove struct {
	ConnID   string
	ObjectID string
	X, Y     float64
}

// ObjectDrop releases ownership at a final position.
type ObjectDrop struct {
	ConnID   string
	ObjectID string
	X, Y     float64
}

// GetView asks for a read-only operational summary.
type GetView struct{ Reply chan View }

// Reset clears all ownership and re-broadcasts the object snapshot.
type Reset struct{}

type Shutdown struct{}

func (Join) isRoomMsg()       {}
func (SetName) isRoomMsg()    {}
func (Leave) isRoomMsg()      {}
func (CursorMove) isRoomMsg() {}
func (Pickup) isRoomMsg()     {}
func (ObjectMove) isRoomMsg() {}
func (ObjectDrop) isRoomMsg() {}
func (GetView) isRoomMsg()    {}
func (Reset) isRoomMsg()      {}
func (Shutdown) isRoomMsg()   {}

// View is the introspection projection returned by GetView.
type View struct {
	Connections int                    `json:"connections"`
	Objects     int                    `json:"objects"`
	Users       []protocol.UserSummary `json:"users"`
	ObjectList  []protocol.ObjectState `json:"object_list"`
}

// user is one live connection's record. Owned exclusively by the room loop
// from Join until Leave.
type user struct {
	id           string
	name         string
	color        string
	x, y         float64
	lastSeq      uint64
	lastCursorAt time.Time
	outbox       chan protocol.Envelope
}

type Room struct {
	inbox    chan Msg
	users    map[string]*user
	store    *objects.Store
	throttle time.Duration
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, store *objects.Store, throttle time.Duration, log *zap.Logger) *Room {
	if throttle <= 0 {
		throttle = DefaultThrottle
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		inbox:    make(chan Msg, 64),
		users:    make(map[string]*user),
		store:    store,
		throttle: throttle,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)
			case SetName:
				r.handleSetName(msg)
			case Leave:
				r.handleLeave(msg)
			case CursorMove:
				r.handleCursorMove(msg)
			case Pickup:
				r.handlePickup(msg)
			case ObjectMove:
				r.handleObjectMove(msg)
			case ObjectDrop:
				r.handleObjectDrop(msg)
			case GetView:
				msg.Reply <- r.view()
			case Reset:
				r.handleReset()
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	u := &user{
		id:     msg.ConnID,
		color:  cursorPalette[rand.Intn(len(cursorPalette))],
		outbox: msg.Outbox,
	}
	r.users[u.id] = u

	// Full snapshot to the joiner only; everything after this is deltas.
	init := protocol.InitPayload{
		SelfID:  u.id,
		Users:   r.userSummaries(u.id),
		Objects: objectStates(r.store.Snapshot()),
	}
	r.send(u, protocol.Event(protocol.KindInit, init))

	// The joiner may already have been dropped while receiving the snapshot;
	// announcing it would leave peers with a presence entry nothing retracts.
	if _, ok := r.users[u.id]; !ok {
		return
	}

	r.broadcast(protocol.Event(protocol.KindUserJoined, protocol.UserJoinedPayload{
		ConnectionID: u.id,
		DisplayName:  u.name,
		Color:        u.color,
	}), u.id)

	r.log.Info("user joined", zap.String("conn", u.id), zap.Int("connections", len(r.users)))
}

func (r *Room) handleSetName(msg SetName) {
	u, ok := r.users[msg.ConnID]
	if !ok {
		return
	}
	u.name = msg.Name
	// Presence refresh so peers learn the name without waiting for the next
	// cursor update. Same record, same id.
	r.broadcast(protocol.Event(protocol.KindUserJoined, protocol.UserJoinedPayload{
		ConnectionID: u.id,
		DisplayName:  u.name,
		Color:        u.color,
	}), u.id)
}

func (r *Room) handleLeave(msg Leave) {
	u, ok := r.users[msg.ConnID]
	if !ok {
		return
	}
	r.disconnect(u)
}

// disconnect runs the full departure sequence for a connection: remove the
// record, release every lock it held (each release broadcast before the
// presence delta), then announce user_left. Voluntary Leave and the
// slow-client drop both funnel through here; a leaked lock is sticky for the
// process lifetime, so no removal path may skip the release pass.
func (r *Room) disconnect(u *user) {
	if _, ok := r.users[u.id]; !ok {
		return
	}
	delete(r.users, u.id)
	close(u.outbox)

	for _, obj := range r.store.ReleaseAllOwnedBy(u.id) {
		r.broadcast(protocol.Event(protocol.KindObjectUpdate, objectState(obj)))
	}
	r.broadcast(protocol.Event(protocol.KindUserLeft, protocol.UserLeftPayload{ConnectionID: u.id}))

	r.log.Info("user left", zap.String("conn", u.id), zap.Int("connections", len(r.users)))
}

func (r *Room) handleCursorMove(msg CursorMove) {
	u, ok := r.users[msg.ConnID]
	if !ok {
		return
	}

	// Leaky bucket of depth 1: anything inside the interval is discarded at
	// the source, never queued.
	now := time.Now()
	if !u.lastCursorAt.IsZero() && now.Sub(u.lastCursorAt) < r.throttle {
		return
	}

	if !validate.ValidatePositionUpdate(msg.Payload) {
		r.log.Debug("dropped invalid cursor update", zap.String("conn", u.id))
		return
	}

	u.lastCursorAt = now
	u.x, u.y = msg.Payload.X, msg.Payload.Y
	u.lastSeq = msg.Payload.Seq

	// Relay verbatim to everyone except the sender; the sender already knows
	// its own position.
	r.broadcast(protocol.Event(protocol.KindCursorUpdate, protocol.CursorUpdatePayload{
		ConnectionID: u.id,
		X:            msg.Payload.X,
		Y:            msg.Payload.Y,
		DisplayName:  u.name,
		Color:        u.color,
		Timestamp:    msg.Payload.Timestamp,
		Seq:          msg.Payload.Seq,
	}), u.id)
}

func (r *Room) handlePickup(msg Pickup) {
	u, ok := r.users[msg.ConnID]
	if !ok {
		return
	}
	obj, err := r.store.Pickup(msg.ObjectID, u.id)
	if err != nil {
		r.reject(u, msg.ObjectID, err)
		return
	}
	r.broadcast(protocol.Event(protocol.KindObjectUpdate, objectState(obj)))
}

func (r *Room) handleObjectMove(msg ObjectMove) {
	u, ok := r.users[msg.ConnID]
	if !ok {
		return
	}
	if !validate.ValidPoint(msg.X, msg.Y) {
		r.log.Debug("dropped out-of-bounds object move", zap.String("conn", u.id))
		return
	}
	obj, err := r.store.Move(msg.ObjectID, u.id, msg.X, msg.Y)
	if err != nil {
		// A non-owner move is a stale racing message, not an error; only an
		// unknown object earns a reject.
		if errors.Is(err, objects.ErrNotFound) {
			r.reject(u, msg.ObjectID, err)
		}
		return
	}
	// Deliberately unthrottled: continuous ownership already serializes
	// writes to this object.
	r.broadcast(protocol.Event(protocol.KindObjectUpdate, objectState(obj)))
}

func (r *Room) handleObjectDrop(msg ObjectDrop) {
	u, ok := r.users[msg.ConnID]
	if !ok {
		return
	}
	if !validate.ValidPoint(msg.X, msg.Y) {
		r.log.Debug("dropped out-of-bounds object drop", zap.String("conn", u.id))
		return
	}
	obj, err := r.store.Drop(msg.ObjectID, u.id, msg.X, msg.Y)
	if err != nil {
		if errors.Is(err, objects.ErrNotFound) {
			r.reject(u, msg.ObjectID, err)
		}
		return
	}
	r.broadcast(protocol.Event(protocol.KindObjectUpdate, objectState(obj)))
}

func (r *Room) handleReset() {
	for _, obj := range r.store.ResetOwnership() {
		r.broadcast(protocol.Event(protocol.KindObjectUpdate, objectState(obj)))
	}
	r.log.Info("ownership reset", zap.Int("objects", r.store.Count()))
}

// reject unicasts an arbitration denial to the requester only.
func (r *Room) reject(u *user, objectID string, err error) {
	r.send(u, protocol.Event(protocol.KindObjectReject, protocol.ObjectRejectPayload{
		ObjectID: objectID,
		Reason:   err.Error(),
	}))
}

// broadcast fans an envelope out to every connection not in the exclusion
// set. Sends never block: a client with a full outbox is dropped. Drops are
// collected and processed after the fan-out loop, so the release/user_left
// deltas a drop triggers are never interleaved ahead of the envelope that
// exposed the slow client.
func (r *Room) broadcast(env protocol.Envelope, exclude ...string) {
	var dropped []*user
	for id, u := range r.users {
		if slices.Contains(exclude, id) {
			continue
		}
		if !r.trySend(u, env) {
			dropped = append(dropped, u)
		}
	}
	for _, u := range dropped {
		r.log.Warn("dropped slow client", zap.String("conn", u.id))
		r.disconnect(u)
	}
}

func (r *Room) send(u *user, env protocol.Envelope) {
	if !r.trySend(u, env) {
		// Slow or stuck client; cut it loose rather than stall the loop.
		r.log.Warn("dropped slow client", zap.String("conn", u.id))
		r.disconnect(u)
	}
}

func (r *Room) trySend(u *user, env protocol.Envelope) bool {
	select {
	case u.outbox <- env:
		return true
	default:
		return false
	}
}

func (r *Room) view() View {
	return View{
		Connections: len(r.users),
		Objects:     r.store.Count(),
		Users:       r.userSummaries(""),
		ObjectList:  objectStates(r.store.Snapshot()),
	}
}

func (r *Room) userSummaries(except string) []protocol.UserSummary {
	out := make([]protocol.UserSummary, 0, len(r.users))
	for id, u := range r.users {
		if id == except {
			continue
		}
		out = append(out, protocol.UserSummary{
			ConnectionID: u.id,
			DisplayName:  u.name,
			Color:        u.color,
			X:            u.x,
			Y:            u.y,
		})
	}
	return out
}

func (r *Room) shutdown() {
	for id, u := range r.users {
		close(u.outbox)
		delete(r.users, id)
	}
	r.cancel()
}

func objectState(obj objects.Object) protocol.ObjectState {
	st := protocol.ObjectState{
		ObjectID: obj.ID,
		X:        obj.X,
		Y:        obj.Y,
		Width:    obj.Width,
		Height:   obj.Height,
		Color:    obj.Color,
	}
	if obj.OwnerID != "" {
		owner := obj.OwnerID
		st.OwnerID = &owner
	}
	return st
}

func objectStates(objs []objects.Object) []protocol.ObjectState {
	out := make([]protocol.ObjectState, 0, len(objs))
	for _, obj := range objs {
		out = append(out, objectState(obj))
	}
	return out
}
