package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/pinkchat/backend/internal/model/persona"
	"github.com/zhouzirui/pinkchat/backend/pkg/logger"
)

var ErrConversationNotFound = errors.New("conversation not found")

// Service hosts the widget conversations of every connected visitor.
type Service struct {
	endpoint Endpoint
	personas persona.Store
	texts    Texts
	now      func() time.Time

	mu            sync.RWMutex
	conversations map[string]*Conversation
}

// NewService bootstraps an in-memory conversation registry.
func NewService(ep Endpoint, personas persona.Store, texts Texts) *Service {
	return &Service{
		endpoint:      ep,
		personas:      personas,
		texts:         texts,
		now:           time.Now,
		conversations: make(map[string]*Conversation),
	}
}

// Texts exposes the localized strings conversations are created with.
func (s *Service) Texts() Texts {
	return s.texts
}

// Open creates a fresh conversation holding only the welcome message.
func (s *Service) Open(_ context.Context) *Conversation {
	conv := NewConversation(uuid.NewString(), s.endpoint, s.personas, s.texts)
	conv.now = s.now
	conv.touchedAt = s.now()

	s.mu.Lock()
	s.conversations[conv.ID()] = conv
	s.mu.Unlock()

	logger.Debugf("[chat] opened conversation %s", conv.ID())
	return conv
}

// Get retrieves a conversation by identifier.
func (s *Service) Get(_ context.Context, id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// Close forgets a conversation and ends its event subscriptions.
func (s *Service) Close(_ context.Context, id string) error {
	s.mu.Lock()
	conv, ok := s.conversations[id]
	if ok {
		delete(s.conversations, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrConversationNotFound
	}
	conv.close()
	return nil
}

// Len reports how many conversations are open.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// Sweep closes conversations idle for longer than ttl that have no exchange
// in flight, and returns how many were removed.
func (s *Service) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-ttl)

	var expired []*Conversation
	s.mu.Lock()
	for id, conv := range s.conversations {
		if conv.Loading() || conv.idleSince().After(cutoff) {
			continue
		}
		delete(s.conversations, id)
		expired = append(expired, conv)
	}
	s.mu.Unlock()

	for _, conv := range expired {
		conv.close()
	}
	if len(expired) > 0 {
		logger.Infof("[chat] swept %d idle conversations", len(expired))
	}
	return len(expired)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ttl)
		}
	}
}
