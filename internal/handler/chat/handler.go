package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/pinkchat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/pinkchat/backend/internal/service/chat"
	"github.com/zhouzirui/pinkchat/backend/pkg/utils"
)

// maxBodyBytes 限制单条消息请求体大小
const maxBodyBytes = 16 << 10

// Handler 聊天会话的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/conversations", h.handleOpen)
	r.Get("/conversations/{conversationID}", h.handleSnapshot)
	r.Delete("/conversations/{conversationID}", h.handleClose)
	r.Post("/conversations/{conversationID}/messages", h.handleSubmit)
	r.Post("/conversations/{conversationID}/reset", h.handleReset)
}

// SubmitResponse is returned once an exchange has completed.
type SubmitResponse struct {
	Reply        chat.Message  `json:"reply"`
	Conversation chat.Snapshot `json:"conversation"`
}

// handleOpen 创建会话
func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	conv := h.chatSvc.Open(r.Context())
	utils.RespondJSON(w, http.StatusCreated, conv.Snapshot())
}

// handleSnapshot 返回会话当前状态
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, conv.Snapshot())
}

// handleClose 关闭会话
func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	if err := h.chatSvc.Close(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmit 发送用户消息并等待回复
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	// 请求一旦发出就等待结果，客户端断开不会中止本轮对话。
	reply, accepted := conv.Submit(context.WithoutCancel(r.Context()), payload.Text)
	if !accepted {
		utils.RespondError(w, http.StatusConflict, "a reply is already being generated")
		return
	}

	utils.RespondJSON(w, http.StatusOK, SubmitResponse{Reply: reply, Conversation: conv.Snapshot()})
}

// handleReset 重置会话
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookup(w, r)
	if !ok {
		return
	}
	conv.Reset()
	utils.RespondJSON(w, http.StatusOK, conv.Snapshot())
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*chatService.Conversation, bool) {
	conv, err := h.chatSvc.Get(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		respondServiceError(w, err)
		return nil, false
	}
	return conv, true
}

func respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatService.ErrConversationNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
