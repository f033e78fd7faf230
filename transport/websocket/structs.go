package websocket

import "github.com/gptgames/tictactoe-backend/internal/entity"

const (
	messageTypeMove  = "move"
	messageTypeReset = "reset"
	messageTypeState = "state"
	messageTypeError = "error"
)

const (
	errInvalidFormat = "Invalid message format"
	errInvalidMove   = "Invalid move"
)

// inboundMessage is a client request frame.
type inboundMessage struct {
	Type     string `json:"type"`
	Position *int   `json:"position,omitempty"`
}

// outboundMessage is a server push frame: either a state snapshot or an
// error descriptor.
type outboundMessage struct {
	Type    string            `json:"type"`
	State   *entity.GameState `json:"state,omitempty"`
	Message string            `json:"message,omitempty"`
}
