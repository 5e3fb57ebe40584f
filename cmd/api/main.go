package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/pinkchat/backend/internal/config"
	"github.com/zhouzirui/pinkchat/backend/internal/handler"
	"github.com/zhouzirui/pinkchat/backend/internal/handler/widget"
	"github.com/zhouzirui/pinkchat/backend/internal/middleware"
	"github.com/zhouzirui/pinkchat/backend/internal/model/persona"
	"github.com/zhouzirui/pinkchat/backend/internal/service/chat"
	"github.com/zhouzirui/pinkchat/backend/internal/service/endpoint"
	"github.com/zhouzirui/pinkchat/backend/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logger.Warnf("failed to load .env file: %v; continuing with system environment variables only", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		logger.Fatalf("failed to configure logging: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.WithAliases(persona.Seed(), cfg.Widget.Aliases))

	texts := chat.LocalizedTexts(cfg.Widget.Locale, cfg.ChatAPI.URL)
	if cfg.Widget.Welcome != "" {
		texts.Welcome = cfg.Widget.Welcome
	}

	client := endpoint.NewClient(cfg.ChatAPI.URL, cfg.ChatAPI.Timeout)
	chatService := chat.NewService(client, personaStore, texts)
	go chatService.RunSweeper(ctx, cfg.Session.TTL, cfg.Session.SweepInterval)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	router := handler.NewRouter(personaStore, chatService, handler.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    limiter,
		Widget: widget.Settings{
			Title:    cfg.Widget.Title,
			Position: cfg.Widget.Position,
			Locale:   cfg.Widget.Locale,
			Welcome:  texts.Welcome,
		},
		ChatAPIURL: cfg.ChatAPI.URL,
	})

	logger.Infof("chat api endpoint: %s (timeout %s)", cfg.ChatAPI.URL, cfg.ChatAPI.Timeout)
	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Infof("Pink chat backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
