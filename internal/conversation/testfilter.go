package conversation

import "strings"

// Known internal test account. Its traffic is indistinguishable from real
// client chats upstream, so it is excluded here, as the last step before any
// conversation leaves an endpoint.
const (
	testAccountFirst = "eric"
	testAccountLast  = "henoc"
	testAccountPhone = "14078729969"
)

// IsExcludedTestAccount reports whether a conversation belongs to the
// internal test identity and must be dropped from every aggregate, table and
// export.
func IsExcludedTestAccount(displayName, sessionID string) bool {
	lower := strings.ToLower(displayName)
	if strings.Contains(lower, testAccountFirst+" "+testAccountLast) {
		return true
	}
	if strings.Contains(lower, testAccountFirst) && strings.Contains(lower, testAccountLast) {
		return true
	}
	return strings.HasPrefix(sessionID, testAccountPhone)
}
