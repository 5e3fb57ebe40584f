package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zhouzirui/pinkchat/backend/internal/service/endpoint"
)

// Texts holds the user-facing strings a conversation writes on its own behalf.
type Texts struct {
	Welcome     string
	Unreachable string
	Generic     string
	ErrorPrefix string
}

// LocalizedTexts returns the strings for locale ("fr" or "en"); anything else
// falls back to French. apiURL is quoted in the unreachable message.
func LocalizedTexts(locale, apiURL string) Texts {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "en", "en-us", "en-gb":
		return Texts{
			Welcome:     "Hello! I'm your assistant. How can I help you today?",
			Unreachable: fmt.Sprintf("Unable to connect to the server. Check that the API is running at %s", apiURL),
			Generic:     "Oops! Something went wrong. Please try again.",
			ErrorPrefix: "Error: ",
		}
	default:
		return Texts{
			Welcome:     "Bonjour ! Je suis votre assistant. Comment puis-je vous aider aujourd'hui ?",
			Unreachable: fmt.Sprintf("Impossible de se connecter au serveur. Vérifiez que l'API est démarrée sur %s", apiURL),
			Generic:     "Oups ! Une erreur s'est produite. Veuillez réessayer.",
			ErrorPrefix: "Erreur: ",
		}
	}
}

// describeFailure turns an exchange failure into the text shown in the transcript.
func (t Texts) describeFailure(err error) string {
	if endpoint.IsTransport(err) {
		return t.Unreachable
	}

	var statusErr *endpoint.StatusError
	if errors.As(err, &statusErr) {
		return t.ErrorPrefix + statusErr.Error()
	}

	if err == nil || strings.TrimSpace(err.Error()) == "" {
		return t.Generic
	}
	return t.ErrorPrefix + err.Error()
}
