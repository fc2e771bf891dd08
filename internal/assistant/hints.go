package assistant

import "github.com/prontocasa/assistant/internal/geo"

// DetectHints runs the slot heuristics over the latest user message. The
// result is ephemeral, derived fresh every turn.
func DetectHints(message string, gazetteer *geo.Matcher) Hints {
	h := Hints{
		Service: DetectService(message),
		Urgency: DetectUrgency(message),
	}
	if gazetteer != nil {
		h.Zone = gazetteer.FindMention(message)
	}
	return h
}
