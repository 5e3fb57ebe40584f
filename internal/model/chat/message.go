package chat

import "time"

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Character is the presentation-only persona tag carried by assistant messages.
type Character string

const (
	CharacterInitial   Character = "initial"
	CharacterPanther   Character = "panther"
	CharacterInspector Character = "inspector"
)

// Message is one immutable entry of a conversation transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Character Character `json:"character,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
