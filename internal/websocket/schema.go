package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing  Action = "ping"
	ActionState Action = "state"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventState   Event = "state"
	EventSession Event = "session"
	EventPong    Event = "pong"
)

// StateResponse carries the owner's current session state; Data is null
// when no session is active.
type StateResponse struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data"`
}

// SessionResponse wraps a published session event. Data is the raw JSON
// exactly as it came off the pub/sub channel.
type SessionResponse struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
