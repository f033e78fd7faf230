package websocket

import (
	"context"
	"encoding/json"
)

// handleMessage decodes one inbound frame and dispatches it. Malformed
// payloads are reported to the sender and change nothing.
func (that *Server) handleMessage(ctx context.Context, client *Client, data []byte) {
	log := that.logger.With("method", "handleMessage", "client", client.id)

	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn("failed to unmarshal message", "error", err)
		client.sendError(errInvalidFormat)
		return
	}

	handler, ok := that.handlers[msg.Type]
	if !ok {
		log.Warn("unknown message type", "type", msg.Type)
		client.sendError(errInvalidFormat)
		return
	}

	handler(ctx, client, &msg)
}

func (that *Server) handleMove(ctx context.Context, client *Client, msg *inboundMessage) {
	log := that.logger.With("method", "handleMove", "client", client.id)

	if msg.Position == nil {
		client.sendError(errInvalidFormat)
		return
	}

	if err := that.session.SubmitMove(ctx, *msg.Position); err != nil {
		log.Info("move rejected", "position", *msg.Position, "error", err)
		client.sendError(errInvalidMove)
	}
}

func (that *Server) handleReset(ctx context.Context, client *Client, _ *inboundMessage) {
	log := that.logger.With("method", "handleReset", "client", client.id)

	that.session.Reset(ctx)

	log.Info("game reset requested")
}
