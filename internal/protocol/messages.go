package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownKind = errors.New("unknown message kind")

// Kind is the closed set of wire message tags. Client and server kinds share
// one namespace; Decode only accepts client kinds.
type Kind string

const (
	// Client -> Server
	KindJoin       Kind = "join"
	KindCursorMove Kind = "cursor_move"
	KindPickup     Kind = "pickup"
	KindObjectMove Kind = "object_move"
	KindDrop       Kind = "drop"

	// Server -> Client
	KindInit         Kind = "init"
	KindCursorUpdate Kind = "cursor_update"
	KindUserJoined   Kind = "user_joined"
	KindUserLeft     Kind = "user_left"
	KindObjectUpdate Kind = "object_update"
	KindObjectReject Kind = "object_reject"
)

// Envelope is the outer frame on both directions of the wire.
type Envelope struct {
	Kind    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> Server payloads.

type JoinPayload struct {
	DisplayName string `json:"display_name"`
}

type CursorMovePayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
	Seq       uint64  `json:"seq"`
}

type PickupPayload struct {
	ObjectID string `json:"object_id"`
}

type ObjectMovePayload struct {
	ObjectID string  `json:"object_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type DropPayload struct {
	ObjectID string  `json:"object_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Server -> Client payloads.

type UserSummary struct {
	ConnectionID string  `json:"connection_id"`
	DisplayName  string  `json:"display_name"`
	Color        string  `json:"color"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}

type ObjectState struct {
	ObjectID string  `json:"object_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Color    string  `json:"color"`
	OwnerID  *string `json:"owner_id"`
}

type InitPayload struct {
	SelfID  string        `json:"self_id"`
	Users   []UserSummary `json:"users"`
	Objects []ObjectState `json:"objects"`
}

type CursorUpdatePayload struct {
	ConnectionID string  `json:"connection_id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	DisplayName  string  `json:"display_name"`
	Color        string  `json:"color"`
	Timestamp    int64   `json:"timestamp"`
	Seq          uint64  `json:"seq"`
}

type UserJoinedPayload struct {
	ConnectionID string `json:"connection_id"`
	DisplayName  string `json:"display_name"`
	Color        string `json:"color"`
}

type UserLeftPayload struct {
	ConnectionID string `json:"connection_id"`
}

type ObjectRejectPayload struct {
	ObjectID string `json:"object_id"`
	Reason   string `json:"reason"`
}

// Decode parses a raw inbound frame into its typed payload. The returned
// value is one of the client payload structs; unknown kinds and kinds the
// server never accepts fail with ErrUnknownKind.
func Decode(data []byte) (Kind, any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Kind {
	case KindJoin:
		var p JoinPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return env.Kind, nil, fmt.Errorf("decode join: %w", err)
		}
		return env.Kind, p, nil
	case KindCursorMove:
		var p CursorMovePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return env.Kind, nil, fmt.Errorf("decode cursor_move: %w", err)
		}
		return env.Kind, p, nil
	case KindPickup:
		var p PickupPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return env.Kind, nil, fmt.Errorf("decode pickup: %w", err)
		}
		return env.Kind, p, nil
	case KindObjectMove:
		var p ObjectMovePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return env.Kind, nil, fmt.Errorf("decode object_move: %w", err)
		}
		return env.Kind, p, nil
	case KindDrop:
		var p DropPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return env.Kind, nil, fmt.Errorf("decode drop: %w", err)
		}
		return env.Kind, p, nil
	default:
		return env.Kind, nil, ErrUnknownKind
	}
}

// Event builds an outbound envelope around an already-typed payload.
// Marshal failures cannot happen for our payload types, so they panic.
func Event(kind Kind, payload any) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("protocol: marshal %s payload: %v", kind, err))
	}
	return Envelope{Kind: kind, Payload: raw}
}
