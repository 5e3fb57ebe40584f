package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/pinkchat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/pinkchat/backend/internal/service/chat"
	"github.com/zhouzirui/pinkchat/backend/pkg/logger"
	"github.com/zhouzirui/pinkchat/backend/pkg/utils"
)

// Handler pushes conversation events to the widget via Server-Sent Events.
type Handler struct {
	chatSvc   *chatService.Service
	heartbeat time.Duration
}

// New creates a new stream handler
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc, heartbeat: 15 * time.Second}
}

// RegisterRoutes 注册事件流路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations/{conversationID}/events", h.handleEvents)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	conv, err := h.chatSvc.Get(r.Context(), conversationID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if err := h.stream(r.Context(), w, flusher, conv); err != nil {
		logger.Warnf("[sse] stream for conversation=%s ended: %v", conversationID, err)
	}
}

// stream writes a snapshot followed by every event until the client leaves.
func (h *Handler) stream(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, conv *chatService.Conversation) error {
	events, cancel := conv.Subscribe()
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := utils.SendSSEEvent(w, flusher, string(chat.EventSnapshot), chatService.SnapshotEvent(conv)); err != nil {
		return err
	}

	logger.Debugf("[sse] opened event stream for conversation=%s", conv.ID())

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debugf("[sse] closing event stream for conversation=%s", conv.ID())
			return nil
		case event, ok := <-events:
			if !ok {
				logger.Debugf("[sse] conversation=%s closed, ending stream", conv.ID())
				return nil
			}
			if err := utils.SendSSEEvent(w, flusher, string(event.Type), event); err != nil {
				return err
			}
		case t := <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat "+t.UTC().Format(time.RFC3339)); err != nil {
				return err
			}
		}
	}
}
