package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realchat/internal/api"
	"realchat/internal/config"
	"realchat/internal/hub"
	"realchat/internal/registry"
	"realchat/internal/session"
	"realchat/internal/store"
	"realchat/internal/websocket"
)

// Application wires all components together. Initialization order follows
// the dependency chain: store, then registry, broadcaster, session handler,
// transport, API.
type Application struct {
	config      *config.Config
	store       *store.SQLiteStore
	registry    *registry.Registry
	broadcaster *hub.Broadcaster
	sessions    *session.Handler
	wsHandler   *websocket.Handler
	apiServer   *api.Server
	httpServer  *http.Server
}

// NewApplication builds the component graph from cfg. A nil cfg uses the
// defaults.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	messageStore, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open message store: %w", err)
	}

	reg := registry.New()
	broadcaster := hub.NewBroadcaster(reg)
	sessions := session.NewHandler(reg, messageStore, broadcaster, cfg.HistoryLimit)
	wsHandler := websocket.NewHandler(sessions, cfg.SendBufferSize, cfg.WriteTimeout)
	apiServer := api.NewServer(messageStore, reg, cfg.HistoryLimit, cfg.AllowedOrigins)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)
	mux.Handle("/", apiServer)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return &Application{
		config:      cfg,
		store:       messageStore,
		registry:    reg,
		broadcaster: broadcaster,
		sessions:    sessions,
		wsHandler:   wsHandler,
		apiServer:   apiServer,
		httpServer:  httpServer,
	}, nil
}

// Start brings up the HTTP server and verifies it is accepting connections
// before returning.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("starting chat server on %s", app.httpServer.Addr)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("chat server started")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts components down in reverse order: stop accepting connections,
// then close the store.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("shutting down chat server")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := app.store.Close(); err != nil {
		log.Printf("message store shutdown error: %v", err)
	}

	log.Printf("chat server shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run wires configuration, signal handling and the application lifecycle.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	appErrCh := make(chan error, 1)
	go func() {
		if err := app.Start(ctx); err != nil {
			appErrCh <- err
		}
	}()

	select {
	case err := <-appErrCh:
		return fmt.Errorf("application error: %w", err)
	case sig := <-signalCh:
		log.Printf("received signal %v, shutting down gracefully", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		return app.Stop(shutdownCtx)
	}
}
