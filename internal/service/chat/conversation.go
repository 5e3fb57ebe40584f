package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	model "github.com/zhouzirui/pinkchat/backend/internal/model/chat"
	"github.com/zhouzirui/pinkchat/backend/internal/model/persona"
	"github.com/zhouzirui/pinkchat/backend/internal/service/endpoint"
	"github.com/zhouzirui/pinkchat/backend/pkg/logger"
)

// WelcomeMessageID is shared by every welcome message; it is recreated on reset.
const WelcomeMessageID = "initial_welcome"

// subscriberBuffer bounds how far a slow subscriber may lag before events are dropped.
const subscriberBuffer = 32

// Endpoint is the remote chat API a conversation talks to.
type Endpoint interface {
	Send(ctx context.Context, req endpoint.Request) (*endpoint.Response, error)
}

// Conversation owns one widget transcript, its remote session id and the
// loading flag. At most one exchange is in flight at a time.
type Conversation struct {
	id       string
	endpoint Endpoint
	personas persona.Store
	texts    Texts
	now      func() time.Time

	mu          sync.Mutex
	transcript  []model.Message
	sessionID   *string
	loading     bool
	touchedAt   time.Time
	subscribers map[int]chan model.Event
	nextSubID   int
	closed      bool
}

// NewConversation starts a conversation holding only the welcome message.
func NewConversation(id string, ep Endpoint, personas persona.Store, texts Texts) *Conversation {
	c := &Conversation{
		id:          id,
		endpoint:    ep,
		personas:    personas,
		texts:       texts,
		now:         time.Now,
		subscribers: make(map[int]chan model.Event),
	}
	c.transcript = []model.Message{c.welcome()}
	c.touchedAt = c.now()
	return c
}

// ID returns the conversation identifier used by the host UI.
func (c *Conversation) ID() string {
	return c.id
}

// Submit sends userText to the chat API and appends the reply, or a
// synthesized error message, to the transcript. It reports false without
// touching anything when userText is blank or another exchange is running.
// Failures never escape: they end up in the transcript.
func (c *Conversation) Submit(ctx context.Context, userText string) (model.Message, bool) {
	if strings.TrimSpace(userText) == "" {
		return model.Message{}, false
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return model.Message{}, false
	}
	userMsg := c.newMessage(model.RoleUser, userText, "")
	c.appendMessageLocked(userMsg)
	c.setLoadingLocked(true)
	req := endpoint.Request{Message: userText, SessionID: copyString(c.sessionID)}
	c.mu.Unlock()

	defer c.setLoading(false)

	reply := c.exchange(ctx, req)
	c.appendMessage(reply)
	return reply, true
}

// exchange performs the single request of a turn and builds the assistant message.
func (c *Conversation) exchange(ctx context.Context, req endpoint.Request) model.Message {
	resp, err := c.endpoint.Send(ctx, req)
	if err != nil {
		logger.WithField("conversation", c.id).Errorf("chat exchange failed: %v", err)
		return c.newMessage(model.RoleAssistant, c.texts.describeFailure(err), c.personas.Default())
	}

	if resp.SessionID != "" {
		c.setSessionID(resp.SessionID)
	}

	text, character := interpretReply(resp.Response, c.personas)
	return c.newMessage(model.RoleAssistant, text, character)
}

// Reset restores the welcome-only transcript and forgets the remote session.
// The loading flag is left as is.
func (c *Conversation) Reset() {
	c.mu.Lock()
	c.transcript = []model.Message{c.welcome()}
	c.sessionID = nil
	c.touchedAt = c.now()
	snapshot := c.snapshotLocked()
	c.publishLocked(model.Event{Type: model.EventReset, Snapshot: &snapshot, Loading: c.loading})
	c.mu.Unlock()
}

// Snapshot returns a copy of the conversation state.
func (c *Conversation) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SnapshotEvent wraps the current state as the first event of a subscription.
func SnapshotEvent(c *Conversation) model.Event {
	snapshot := c.Snapshot()
	return model.Event{
		Type:           model.EventSnapshot,
		ConversationID: c.id,
		Loading:        snapshot.Loading,
		Snapshot:       &snapshot,
	}
}

// Messages returns a copy of the transcript in order.
func (c *Conversation) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Message(nil), c.transcript...)
}

// SessionID returns the remote session id and whether one is set.
func (c *Conversation) SessionID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID == nil {
		return "", false
	}
	return *c.sessionID, true
}

// Loading reports whether an exchange is in flight.
func (c *Conversation) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Subscribe registers for state change events. The returned cancel function
// must be called to release the channel. Once the conversation is closed the
// channel delivers EventClosed and is then closed.
func (c *Conversation) Subscribe() (<-chan model.Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan model.Event, subscriberBuffer)
	if c.closed {
		ch <- model.Event{Type: model.EventClosed, ConversationID: c.id}
		close(ch)
		return ch, func() {}
	}

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}

// close ends every subscription with EventClosed. Later subscribers get a
// closed channel right away.
func (c *Conversation) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.publishLocked(model.Event{Type: model.EventClosed, Loading: c.loading})
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
}

func (c *Conversation) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touchedAt
}

func (c *Conversation) appendMessage(msg model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendMessageLocked(msg)
}

func (c *Conversation) appendMessageLocked(msg model.Message) {
	c.transcript = append(c.transcript, msg)
	c.touchedAt = c.now()
	c.publishLocked(model.Event{Type: model.EventMessage, Message: &msg, Loading: c.loading})
}

func (c *Conversation) setSessionID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = &id
}

func (c *Conversation) setLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLoadingLocked(loading)
}

func (c *Conversation) setLoadingLocked(loading bool) {
	if c.loading == loading {
		return
	}
	c.loading = loading
	c.publishLocked(model.Event{Type: model.EventLoading, Loading: loading})
}

func (c *Conversation) publishLocked(event model.Event) {
	event.ConversationID = c.id
	for id, ch := range c.subscribers {
		select {
		case ch <- event:
		default:
			logger.Warnf("[chat] dropping %s event for slow subscriber %d on %s", event.Type, id, c.id)
		}
	}
}

func (c *Conversation) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		ConversationID: c.id,
		SessionID:      copyString(c.sessionID),
		Loading:        c.loading,
		Messages:       append([]model.Message(nil), c.transcript...),
	}
}

func (c *Conversation) newMessage(role model.Role, text string, character model.Character) model.Message {
	return model.Message{
		ID:        "msg_" + uuid.NewString(),
		Role:      role,
		Text:      text,
		Character: character,
		CreatedAt: c.now().UTC(),
	}
}

func (c *Conversation) welcome() model.Message {
	return model.Message{
		ID:        WelcomeMessageID,
		Role:      model.RoleAssistant,
		Text:      c.texts.Welcome,
		Character: model.CharacterInitial,
		CreatedAt: c.now().UTC(),
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
