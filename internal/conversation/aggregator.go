package conversation

const (
	lastMessageMinLen = 10
	lastMessageMaxLen = 100
)

// Aggregate folds an ordered message stream into one Conversation per
// session. Human messages feed name extraction and service detection; AI
// messages feed the scheduling-link flag; every message counts toward
// messageCount. The fold is a pure function of its input.
func Aggregate(messages []Message) map[string]*Conversation {
	conversations := make(map[string]*Conversation)

	for _, msg := range messages {
		conv, ok := conversations[msg.SessionID]
		if !ok {
			conv = &Conversation{
				SessionID:   msg.SessionID,
				PhoneNumber: ExtractPhoneNumber(msg.SessionID),
				DisplayName: UnknownName,
			}
			conversations[msg.SessionID] = conv
		}

		conv.MessageCount++

		role := msg.Role
		if role == "" {
			role = RoleHuman
		}

		switch role {
		case RoleAI:
			if HasSchedulingLink(msg.Text) {
				conv.LinkSent = true
			}
		default:
			if name := ExtractDisplayName(msg.Text); name != UnknownName {
				conv.DisplayName = name
			}
			for _, svc := range DetectServices(msg.Text) {
				if !containsString(conv.ServicesConsulted, svc) {
					conv.ServicesConsulted = append(conv.ServicesConsulted, svc)
				}
			}
			if len(msg.Text) > lastMessageMinLen {
				conv.LastMessage = previewText(msg.Text)
			}
		}
	}

	return conversations
}

// FilterTestAccounts drops the known test identity from an aggregated map.
func FilterTestAccounts(conversations map[string]*Conversation) []*Conversation {
	filtered := make([]*Conversation, 0, len(conversations))
	for _, conv := range conversations {
		if IsExcludedTestAccount(conv.DisplayName, conv.SessionID) {
			continue
		}
		filtered = append(filtered, conv)
	}
	return filtered
}

func previewText(text string) string {
	r := []rune(text)
	if len(r) <= lastMessageMaxLen {
		return text
	}
	return string(r[:lastMessageMaxLen]) + "..."
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
