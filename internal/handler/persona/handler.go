package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/pinkchat/backend/internal/model/chat"
	"github.com/zhouzirui/pinkchat/backend/internal/model/persona"
	"github.com/zhouzirui/pinkchat/backend/pkg/utils"
)

// Handler 角色目录的HTTP处理器
type Handler struct {
	personas persona.Store
}

// New 创建角色处理器
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes 注册角色相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/characters", h.handleListCharacters)
	r.Get("/characters/{characterID}", h.handleGetCharacter)
}

// handleListCharacters 列出所有角色
func (h *Handler) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"default":    h.personas.Default(),
		"characters": h.personas.List(),
	})
}

func (h *Handler) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "characterID")
	item, ok := h.personas.FindByID(chat.Character(id))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "character not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}
