package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gptgames/tictactoe-backend/internal/apperror"
	"github.com/gptgames/tictactoe-backend/internal/config"
	"github.com/gptgames/tictactoe-backend/internal/oracle"
	"github.com/gptgames/tictactoe-backend/internal/repository"
	"github.com/gptgames/tictactoe-backend/internal/repository/storage"
	"github.com/gptgames/tictactoe-backend/internal/session"
	"github.com/gptgames/tictactoe-backend/transport/rest"
	"github.com/gptgames/tictactoe-backend/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	stateRepo, closeStore, err := newStateRepository(ctx, logger, conf)
	if err != nil {
		return fmt.Errorf("could not set up state store: %w", err)
	}
	defer closeStore()

	completionClient, err := newCompletionClient(ctx, logger, conf)
	if err != nil {
		return fmt.Errorf("could not set up oracle client: %w", err)
	}

	moveResolver := oracle.NewMoveResolver(logger, completionClient, time.Duration(conf.Oracle.TimeoutSeconds)*time.Second)

	gameSession := session.New(logger, moveResolver, stateRepo)
	restoreGameState(ctx, log, gameSession, stateRepo)

	hub := websocket.NewHub(logger, gameSession)
	gameSession.AttachBroadcaster(hub)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(conf.HTTPPort, rest.NewHandlers(gameSession)); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameSession, hub)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newStateRepository picks Redis when configured, in-memory otherwise.
func newStateRepository(ctx context.Context, logger *slog.Logger, conf *config.Config) (repository.StateRepository, func(), error) {
	log := logger.With("component", "app")

	redisAddr := conf.Redis.GetRedisAddr()
	if redisAddr == "" {
		log.Info("Redis not configured, using in-memory state store")
		return repository.NewMemoryStateRepository(), func() {}, nil
	}

	redisStorage, err := storage.New(ctx, redisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStore := func() {
		if closeErr := redisStorage.Close(); closeErr != nil {
			log.Error("could not close redis storage", "error", closeErr)
		}
	}

	return repository.NewStateRepository(redisStorage.Connection), closeStore, nil
}

// newCompletionClient builds the configured oracle backend. A nil client is
// valid: the resolver then always plays the random fallback.
func newCompletionClient(ctx context.Context, logger *slog.Logger, conf *config.Config) (oracle.CompletionClient, error) {
	log := logger.With("component", "app")

	if conf.Oracle.Disabled {
		log.Info("Oracle disabled, AI plays random moves")
		return nil, nil
	}

	timeout := time.Duration(conf.Oracle.TimeoutSeconds) * time.Second

	switch conf.Oracle.Provider {
	case "openai":
		return oracle.NewOpenAIClient(conf.Oracle.APIKey, conf.Oracle.Model, conf.Oracle.BaseURL, timeout), nil
	case "gemini":
		client, err := oracle.NewGeminiClient(ctx, conf.Oracle.APIKey, conf.Oracle.Model)
		if err != nil {
			return nil, fmt.Errorf("could not create gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: %s", oracle.ErrUnknownProvider, conf.Oracle.Provider)
	}
}

// restoreGameState resumes a stored snapshot if one exists.
func restoreGameState(ctx context.Context, log *slog.Logger, gameSession *session.Session, stateRepo repository.StateRepository) {
	state, err := stateRepo.Load(ctx)
	if errors.Is(err, apperror.ErrStateNotFound) {
		return
	}

	if err != nil {
		log.Error("could not load stored game state, starting fresh", "error", err)
		return
	}

	gameSession.Restore(state)
	log.Info("restored stored game state")
}
