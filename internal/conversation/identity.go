package conversation

import (
	"regexp"
	"strings"
)

// UnknownName is the sentinel returned when no usable display name can be
// extracted from a message body.
const UnknownName = "Unknown"

var (
	phonePrefixPattern = regexp.MustCompile(`^(\d+)@`)

	// Current intake format: "Nombre: Ana Lopez" followed by a newline or a
	// "Teléfono:" label on the same line.
	namePattern = regexp.MustCompile(`(?i)nombre:\s*(.+?)(?:\s*\n|\s*teléfono:|$)`)

	// Older intake format used by the first workflow revision.
	legacyNamePattern = regexp.MustCompile(`(?i)nombre de usuario:\s*(.+?)(?:\n|$)`)

	bareSessionPattern = regexp.MustCompile(`^\d+@`)
	longDigitPattern   = regexp.MustCompile(`^\d{10,}`)
)

// ExtractPhoneNumber returns the digit run before the first "@" in a session
// id, or the session id unchanged when no "@" prefix is present.
func ExtractPhoneNumber(sessionID string) string {
	if m := phonePrefixPattern.FindStringSubmatch(sessionID); m != nil {
		return m[1]
	}
	return sessionID
}

// ExtractDisplayName pulls a client name out of a human message body. The
// upstream workflow occasionally embeds the phone number where the name
// belongs, so candidates that look like a session id or a long digit run are
// rejected and UnknownName is returned.
func ExtractDisplayName(text string) string {
	for _, pattern := range []*regexp.Regexp{namePattern, legacyNamePattern} {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" || bareSessionPattern.MatchString(name) || longDigitPattern.MatchString(name) {
			continue
		}
		return name
	}
	return UnknownName
}
