package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type gameSession interface {
	SubmitMove(ctx context.Context, position int) error
	Reset(ctx context.Context)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Observers connect from anywhere; there is no client authentication.
		return true
	},
}

type Server struct {
	logger  *slog.Logger
	session gameSession
	hub     *Hub

	handlers map[string]func(ctx context.Context, client *Client, msg *inboundMessage)
}

func New(logger *slog.Logger, session gameSession, hub *Hub) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		session: session,
		hub:     hub,

		handlers: make(map[string]func(context.Context, *Client, *inboundMessage)),
	}

	server.handlers[messageTypeMove] = server.handleMove
	server.handlers[messageTypeReset] = server.handleReset

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	go that.hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection and attaches the observer.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  that.hub,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}

	that.hub.register <- client

	go client.writePump()
	go client.readPump(ctx, that)

	log.Info("WebSocket connection established", "client", client.id)
}
