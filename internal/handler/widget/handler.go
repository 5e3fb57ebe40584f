package widget

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/pinkchat/backend/pkg/utils"
)

// Settings is what the embedding page needs to draw the floating button.
type Settings struct {
	Title    string `json:"title"`
	Position string `json:"position"`
	Locale   string `json:"locale"`
	Welcome  string `json:"welcome"`
}

// Handler serves widget settings and the health probe.
type Handler struct {
	settings Settings
	chatAPI  string
}

// New 创建挂件配置处理器
func New(settings Settings, chatAPI string) *Handler {
	return &Handler{settings: settings, chatAPI: chatAPI}
}

// RegisterRoutes 注册挂件配置路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/widget", h.handleSettings)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.settings)
}

// HandleHealth reports liveness; the chat API itself is not probed.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"chatApi": h.chatAPI,
	})
}
