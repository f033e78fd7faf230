package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gptgames/tictactoe-backend/internal/entity"
)

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)
	GameHandler(w http.ResponseWriter, _ *http.Request)
}

type gameSession interface {
	Snapshot() *entity.GameState
}

type handlers struct {
	session gameSession
}

func NewHandlers(session gameSession) Handlers {
	return &handlers{
		session: session,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// GameHandler returns the current game state as JSON; read-only, mutation
// goes through the WebSocket protocol.
func (that *handlers) GameHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(that.session.Snapshot()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
