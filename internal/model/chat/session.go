package chat

// Snapshot is the read-only view of a conversation handed to the host UI.
type Snapshot struct {
	ConversationID string    `json:"conversationId"`
	SessionID      *string   `json:"sessionId"`
	Loading        bool      `json:"loading"`
	Messages       []Message `json:"messages"`
}

// EventType 描述会话推送给订阅者的事件类别。
type EventType string

const (
	EventMessage  EventType = "message"
	EventLoading  EventType = "loading"
	EventReset    EventType = "reset"
	// EventSnapshot 仅在订阅建立时发送一次。
	EventSnapshot EventType = "snapshot"
	// EventClosed 是会话被关闭或回收后的最后一个事件，随后订阅通道关闭。
	EventClosed EventType = "closed"
)

// Event is published to conversation subscribers whenever state changes.
type Event struct {
	Type           EventType `json:"event"`
	ConversationID string    `json:"conversationId"`
	Message        *Message  `json:"message,omitempty"`
	Loading        bool      `json:"loading"`
	Snapshot       *Snapshot `json:"snapshot,omitempty"`
}
