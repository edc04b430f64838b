package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chat-server/internal/auth"
	"chat-server/internal/chat"
	"chat-server/internal/config"
	"chat-server/internal/handlers"
	"chat-server/internal/store"
	"chat-server/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Pick the store backend: postgres when configured, memory otherwise.
	var st store.Store
	if cfg.Database.URL != "" {
		pg, err := store.NewPostgresStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database: %v", err)
		}
		st = pg
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory store (state is lost on restart)")
		st = store.NewMemoryStore()
	}
	defer st.Close()

	// Initialize services
	authService := auth.NewService(st, cfg)
	if !authService.Enabled() {
		logger.Warn("JWT_SECRET not set; account endpoints disabled, all sessions are anonymous")
	}

	// Initialize the connection supervisor and start its event loop
	supervisor := chat.NewSupervisor(st, cfg.Chat)
	go supervisor.Run()

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(authService)
	wsHandlers := handlers.NewWebSocketHandlers(authService, supervisor, cfg)
	healthHandlers := handlers.NewHealthHandlers(supervisor)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, authHandlers, wsHandlers, healthHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")

	if err := supervisor.Shutdown(cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("Supervisor shutdown: %v", err)
	}
}

func setupRoutes(mux *http.ServeMux, authHandlers *handlers.AuthHandlers, wsHandlers *handlers.WebSocketHandlers, healthHandlers *handlers.HealthHandlers) {
	// Account routes (optional durable identity)
	mux.HandleFunc("/login", authHandlers.Login)
	mux.HandleFunc("/register", authHandlers.Register)

	// Read-only status routes
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/rooms", healthHandlers.Rooms)

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
