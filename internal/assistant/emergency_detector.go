package assistant

import (
	"regexp"
	"strings"
)

// EmergencyType discriminates public-safety emergencies the assistant must
// never try to handle itself.
type EmergencyType string

const (
	EmergencyNone    EmergencyType = ""
	EmergencyFire    EmergencyType = "fire"
	EmergencyGas     EmergencyType = "gas"
	EmergencyMedical EmergencyType = "medical"
	EmergencyCrime   EmergencyType = "crime"
)

// emergencyPatterns are checked in order; the first category that fires wins.
var emergencyPatterns = []struct {
	kind EmergencyType
	re   *regexp.Regexp
}{
	{EmergencyFire, regexp.MustCompile(`(?i)\b(incendio|fiamme|sta bruciando|a fuoco|fumo (in casa|dal quadro|dalla presa)|principio di incendio)\b`)},
	{EmergencyGas, regexp.MustCompile(`(?i)\b((odore|puzza|fuga|perdita) di gas|gas in casa|sento gas)\b`)},
	{EmergencyMedical, regexp.MustCompile(`(?i)\b(ambulanza|infarto|malore|non respira|svenut\w*|ha perso i sensi|emorragia|ferit[oa] grave)\b`)},
	{EmergencyCrime, regexp.MustCompile(`(?i)\b(ladri in casa|furto in corso|rapina|effrazione in corso|intrusione|aggredit\w*|mi minaccia\w*)\b`)},
}

// DetectEmergency returns the emergency category for the message, or
// EmergencyNone. Referentially transparent; the safety gate in the
// orchestrator acts on the result before anything else runs.
func DetectEmergency(message string) EmergencyType {
	message = strings.TrimSpace(message)
	if message == "" {
		return EmergencyNone
	}
	for _, p := range emergencyPatterns {
		if p.re.MatchString(message) {
			return p.kind
		}
	}
	return EmergencyNone
}
