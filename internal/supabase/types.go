package supabase

import (
	"encoding/json"

	"github.com/clinicalopez/dashboard-api/internal/conversation"
)

// messagesTable is the chat history table written by the upstream n8n workflow.
const messagesTable = "n8n_chat_histories"

// row mirrors one n8n_chat_histories record. The message column is jsonb and
// occasionally malformed, so it is decoded leniently.
type row struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

type messagePayload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// toMessage maps a provider row into the domain message shape. A missing or
// malformed payload degrades to empty text; a missing role defaults to human.
func (r row) toMessage() conversation.Message {
	var payload messagePayload
	if len(r.Message) > 0 {
		// decode errors leave the zero payload, which is the documented default
		_ = json.Unmarshal(r.Message, &payload)
	}
	role := payload.Type
	if role != conversation.RoleHuman && role != conversation.RoleAI {
		role = conversation.RoleHuman
	}
	return conversation.Message{
		ID:        r.ID,
		SessionID: r.SessionID,
		Role:      role,
		Text:      payload.Content,
	}
}

func mapRows(rows []row) []conversation.Message {
	messages := make([]conversation.Message, 0, len(rows))
	for _, r := range rows {
		messages = append(messages, r.toMessage())
	}
	return messages
}
