package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/pinkchat/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/pinkchat/backend/internal/service/chat"
	"github.com/zhouzirui/pinkchat/backend/pkg/logger"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
	maxFrameSize = 16 << 10
)

// Handler WebSocket会话处理器
type Handler struct {
	chatSvc  *chatservice.Service
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(chatSvc *chatservice.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations/{conversationID}/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	conv, err := h.chatSvc.Get(r.Context(), conversationID)
	if err != nil {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	logger.Infof("[websocket] new connection for conversation: %s", conversationID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := conv.Subscribe()
	defer unsubscribe()

	outbox := make(chan outgoingMessage, 16)
	go h.writeLoop(ctx, cancel, conn, events, outbox)

	h.enqueue(ctx, outbox, string(chat.EventSnapshot), chatservice.SnapshotEvent(conv))

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("[websocket] read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		h.handleMessage(ctx, outbox, conv, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, outbox chan<- outgoingMessage, conv *chatservice.Conversation, msg inboundMessage) {
	switch msg.Type {
	case "message":
		if strings.TrimSpace(msg.Text) == "" {
			h.sendError(ctx, outbox, "text is required")
			return
		}
		if conv.Loading() {
			h.sendError(ctx, outbox, "a reply is already being generated")
			return
		}
		// 回复通过订阅事件推送；连接断开也不会中止本轮对话。
		go func() {
			if _, ok := conv.Submit(context.WithoutCancel(ctx), msg.Text); !ok {
				h.sendError(ctx, outbox, "a reply is already being generated")
			}
		}()
	case "reset":
		conv.Reset()
	case "snapshot":
		h.enqueue(ctx, outbox, string(chat.EventSnapshot), chatservice.SnapshotEvent(conv))
	default:
		h.sendError(ctx, outbox, "unsupported message type: "+msg.Type)
	}
}

// writeLoop is the only goroutine writing to conn.
func (h *Handler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, events <-chan chat.Event, outbox <-chan outgoingMessage) {
	defer cancel()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				// 会话已关闭：通知对端并断开，读循环随之退出。
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "conversation closed"))
				conn.Close()
				return
			}
			err = h.write(conn, outgoingMessage{Type: string(event.Type), Data: event, Timestamp: time.Now().Unix()})
		case msg := <-outbox:
			err = h.write(conn, msg)
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err = conn.WriteMessage(websocket.PingMessage, nil)
		}
		if err != nil {
			logger.Warnf("[websocket] write failed: %v", err)
			conn.Close()
			return
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, msg outgoingMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}

func (h *Handler) enqueue(ctx context.Context, outbox chan<- outgoingMessage, kind string, data interface{}) {
	select {
	case outbox <- outgoingMessage{Type: kind, Data: data, Timestamp: time.Now().Unix()}:
	case <-ctx.Done():
	}
}

func (h *Handler) sendError(ctx context.Context, outbox chan<- outgoingMessage, message string) {
	h.enqueue(ctx, outbox, "error", map[string]string{"message": message})
}
