package persona

import "github.com/zhouzirui/pinkchat/backend/internal/model/chat"

// Persona describes one character the widget can render replies as.
type Persona struct {
	ID          chat.Character `json:"id"`
	Name        string         `json:"name"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Aliases     []string       `json:"aliases,omitempty"` // 小写子串，用于匹配回复中的角色名
}

// Seed provides the default cast. Order matters: earlier personas win when a
// character name matches several alias lists.
func Seed() []Persona {
	return []Persona{
		{
			ID:          chat.CharacterInitial,
			Name:        "Assistant",
			Title:       "Accueil",
			Description: "Persona used for the synthetic welcome message only.",
		},
		{
			ID:          chat.CharacterInspector,
			Name:        "Inspecteur Dreyfus",
			Title:       "Chef de la Sûreté",
			Description: "Nervous, exasperated superintendent.",
			Aliases:     []string{"inspector", "dreyfus"},
		},
		{
			ID:          chat.CharacterPanther,
			Name:        "La Panthère Rose",
			Title:       "Diamant légendaire",
			Description: "Default persona for every reply without an explicit character.",
			Aliases:     []string{"panther", "pink"},
		},
	}
}

// WithAliases returns a copy of items where the alias lists named in overrides
// replace the seeded ones. Unknown characters in overrides are ignored.
func WithAliases(items []Persona, overrides map[chat.Character][]string) []Persona {
	out := make([]Persona, len(items))
	for i, item := range items {
		if aliases, ok := overrides[item.ID]; ok {
			item.Aliases = append([]string(nil), aliases...)
		}
		out[i] = item
	}
	return out
}
