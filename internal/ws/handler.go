package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canvas-sync/backend/internal/protocol"
	"github.com/canvas-sync/backend/internal/room"
)

const writeTimeout = 3 * time.Second

// Handler upgrades the connection, registers it with the room and shuttles
// frames both ways until the socket dies. Malformed frames are dropped
// without a reply; the disconnect path is the one thing that must always
// run, so Leave rides a defer.
func Handler(r *room.Room, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		conn, err := websocket.Accept(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		out := make(chan protocol.Envelope, 32)

		r.Inbox() <- room.Join{ConnID: connID, Outbox: out}
		defer func() { r.Inbox() <- room.Leave{ConnID: connID} }()

		// Writer goroutine: drains the outbox until the room closes it.
		writeCtx, writeCancel := context.WithCancel(req.Context())
		defer writeCancel()
		go func() {
			for env := range out {
				payload, _ := json.Marshal(env)
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop.
		for {
			_, data, err := conn.Read(req.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Any other read failure is a disconnect too; Leave runs in
				// the defer either way.
				return
			}

			msg, ok := toRoomMsg(connID, data, log)
			if !ok {
				continue
			}
			r.Inbox() <- msg
		}
	}
}

// toRoomMsg translates one inbound frame into a room message. Unknown kinds
// and undecodable payloads report false; nothing is sent back to the client.
func toRoomMsg(connID string, data []byte, log *zap.Logger) (room.Msg, bool) {
	kind, payload, err := protocol.Decode(data)
	if err != nil {
		log.Debug("dropped undecodable frame",
			zap.String("conn", connID), zap.String("kind", string(kind)), zap.Error(err))
		return nil, false
	}

	switch p := payload.(type) {
	case protocol.JoinPayload:
		return room.SetName{ConnID: connID, Name: p.DisplayName}, true
	case protocol.CursorMovePayload:
		return room.CursorMove{ConnID: connID, Payload: p}, true
	case protocol.PickupPayload:
		return room.Pickup{ConnID: connID, ObjectID: p.ObjectID}, true
	case protocol.ObjectMovePayload:
		return room.ObjectMove{ConnID: connID, ObjectID: p.ObjectID, X: p.X, Y: p.Y}, true
	case protocol.DropPayload:
		return room.ObjectDrop{ConnID: connID, ObjectID: p.ObjectID, X: p.X, Y: p.Y}, true
	default:
		return nil, false
	}
}
