package chat

import (
	"encoding/json"

	model "github.com/zhouzirui/pinkchat/backend/internal/model/chat"
	"github.com/zhouzirui/pinkchat/backend/internal/model/persona"
)

// interpretReply extracts display text and character from a raw reply. The
// reply may embed a JSON object with exact lower-case keys "response" and
// "character"; anything else is plain text, which is not an error.
func interpretReply(reply string, personas persona.Store) (string, model.Character) {
	text := reply
	character := personas.Default()

	response, name, ok := parseEnvelope(reply)
	if !ok {
		return text, character
	}

	if response != "" {
		text = response
	}
	if name != "" {
		if resolved, found := personas.Resolve(name); found {
			character = resolved
		}
	}
	return text, character
}

// parseEnvelope 按原样大小写匹配字段，struct 解码会忽略大小写，这里不用。
func parseEnvelope(reply string) (response, character string, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(reply), &fields); err != nil || fields == nil {
		return "", "", false
	}

	if raw, found := fields["response"]; found {
		if err := json.Unmarshal(raw, &response); err != nil {
			return "", "", false
		}
	}
	if raw, found := fields["character"]; found {
		if err := json.Unmarshal(raw, &character); err != nil {
			return "", "", false
		}
	}
	return response, character, true
}
