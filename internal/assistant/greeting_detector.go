package assistant

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// greetingMaxLen bounds how long a message can be and still count as a pure
// greeting. Tunable: long messages that merely open with "ciao" carry real
// content and must go through the full pipeline.
const greetingMaxLen = 25

var greetingRE = regexp.MustCompile(`(?i)^(ciao|salve|buongiorno|buonasera|buonanotte|buondì|hey|ehi|hello|hi)([\s!,.?]*(ciao|salve|buongiorno|buonasera|a tutti))?[\s!,.?]*$`)

// IsGreeting reports whether the message is a short standalone greeting.
func IsGreeting(message string) bool {
	message = strings.TrimSpace(message)
	if message == "" || utf8.RuneCountInString(message) > greetingMaxLen {
		return false
	}
	return greetingRE.MatchString(message)
}
