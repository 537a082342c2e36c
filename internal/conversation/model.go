package conversation

// Message roles as stored by the upstream chat workflow.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// Message is one chat message from the conversation log, already mapped out of
// the provider's row shape. ID is the store-assigned monotonic id.
type Message struct {
	ID        int64  `json:"id"`
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	Text      string `json:"text"`
}

// Conversation is the per-session aggregate derived from the raw message log.
// It is recomputed on every request and never persisted.
type Conversation struct {
	SessionID         string   `json:"sessionId"`
	PhoneNumber       string   `json:"phoneNumber"`
	DisplayName       string   `json:"displayName"`
	MessageCount      int      `json:"messageCount"`
	ServicesConsulted []string `json:"servicesConsulted"`
	LinkSent          bool     `json:"linkSent"`
	LastMessage       string   `json:"lastMessage"`
}
