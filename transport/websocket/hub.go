package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gptgames/tictactoe-backend/internal/entity"
)

type snapshotter interface {
	Snapshot() *entity.GameState
}

// Hub maintains the set of attached observers and fans events out to them.
// A single run loop serializes registration and delivery, so every observer
// receives state events in the order the session produced them.
type Hub struct {
	logger   *slog.Logger
	game     snapshotter
	register chan *Client

	unregister chan *Client
	broadcast  chan []byte

	clients map[*Client]bool
}

func NewHub(logger *slog.Logger, game snapshotter) *Hub {
	return &Hub{
		logger:     logger.With("component", "hub"),
		game:       game,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		clients:    make(map[*Client]bool),
	}
}

// Run drives the hub event loop until the context is canceled.
func (that *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-that.register:
			that.registerClient(client)
		case client := <-that.unregister:
			that.unregisterClient(client)
		case data := <-that.broadcast:
			that.broadcastData(data)
		case <-ctx.Done():
			for client := range that.clients {
				that.unregisterClient(client)
			}
			return
		}
	}
}

// BroadcastState implements the session's Broadcaster: the snapshot is
// serialized once and queued for every attached observer.
func (that *Hub) BroadcastState(state *entity.GameState) {
	data, err := json.Marshal(outboundMessage{Type: messageTypeState, State: state})
	if err != nil {
		that.logger.Error("failed to marshal state message", "error", err)
		return
	}

	that.broadcast <- data
}

// registerClient attaches an observer and immediately sends it the current
// state, so late joiners are never stale.
func (that *Hub) registerClient(client *Client) {
	snapshot, err := json.Marshal(outboundMessage{Type: messageTypeState, State: that.game.Snapshot()})
	if err != nil {
		that.logger.Error("failed to marshal state snapshot", "error", err)
	} else {
		client.send <- snapshot
	}

	that.clients[client] = true

	that.logger.Info("observer attached", "client", client.id, "observers", len(that.clients))
}

func (that *Hub) unregisterClient(client *Client) {
	if _, ok := that.clients[client]; !ok {
		return
	}

	delete(that.clients, client)
	close(client.send)

	that.logger.Info("observer detached", "client", client.id, "observers", len(that.clients))
}

func (that *Hub) broadcastData(data []byte) {
	for client := range that.clients {
		select {
		case client.send <- data:
		default:
			// The observer is not draining its queue; drop it.
			that.unregisterClient(client)
		}
	}
}
