package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/pinkchat/backend/internal/handler/chat"
	"github.com/zhouzirui/pinkchat/backend/internal/handler/persona"
	"github.com/zhouzirui/pinkchat/backend/internal/handler/stream"
	"github.com/zhouzirui/pinkchat/backend/internal/handler/widget"
	"github.com/zhouzirui/pinkchat/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/pinkchat/backend/internal/middleware"
	personaModel "github.com/zhouzirui/pinkchat/backend/internal/model/persona"
	chatService "github.com/zhouzirui/pinkchat/backend/internal/service/chat"
)

// Options carries the cross-cutting settings of the router.
type Options struct {
	AllowedOrigins []string
	// RateLimiter is optional; nil disables throttling.
	RateLimiter *middlewarePkg.RateLimiter
	Widget      widget.Settings
	ChatAPIURL  string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, chatSvc *chatService.Service, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(opts.AllowedOrigins))

	widgetHandler := widget.New(opts.Widget, opts.ChatAPIURL)
	r.Get("/healthz", widgetHandler.HandleHealth)

	r.Route("/api", func(api chi.Router) {
		if opts.RateLimiter != nil {
			api.Use(opts.RateLimiter.Handler)
		}

		widgetHandler.RegisterRoutes(api)
		persona.New(personas).RegisterRoutes(api)
		chat.New(chatSvc).RegisterRoutes(api)
		stream.New(chatSvc).RegisterRoutes(api)
		ws.New(chatSvc).RegisterRoutes(api)
	})

	return r
}
