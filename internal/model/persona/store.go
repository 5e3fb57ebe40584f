package persona

import (
	"strings"

	"github.com/zhouzirui/pinkchat/backend/internal/model/chat"
)

// Store exposes the character catalogue to handlers and the session manager.
type Store interface {
	List() []Persona
	FindByID(id chat.Character) (Persona, bool)
	Resolve(name string) (chat.Character, bool)
	Default() chat.Character
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items    []Persona
	fallback chat.Character
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
// Replies without a recognised character fall back to the panther.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{
		items:    append([]Persona(nil), items...),
		fallback: chat.CharacterPanther,
	}
}

// List returns the catalogue in matching order.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by character tag.
func (s *MemoryStore) FindByID(id chat.Character) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Resolve maps a free-form character name onto the catalogue by lower-cased
// substring match against each persona's aliases, in catalogue order.
func (s *MemoryStore) Resolve(name string) (chat.Character, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "", false
	}

	for _, item := range s.items {
		for _, alias := range item.Aliases {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias != "" && strings.Contains(normalized, alias) {
				return item.ID, true
			}
		}
	}
	return "", false
}

// Default is the character assigned to replies that name no known persona.
func (s *MemoryStore) Default() chat.Character {
	return s.fallback
}
