package assistant

import (
	"time"

	"github.com/prontocasa/assistant/internal/leads"
)

// Role values for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation session. Image URLs attached by the
// user travel alongside the text.
type Turn struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// TurnRequest is the input for processing one conversation turn. History is
// the ordered prior transcript; Message is the latest user text.
type TurnRequest struct {
	ConversationID string
	History        []Turn
	Message        string
	Images         []string
	SessionLead    *leads.Lead
}

// TurnResponse is the pair the assistant hands back to the caller.
type TurnResponse struct {
	ConversationID string      `json:"conversation_id"`
	Text           string      `json:"text"`
	Lead           *leads.Lead `json:"lead,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Hints are the slot values detected heuristically from the latest user
// message. They are ephemeral: derived fresh each turn, never persisted,
// used only to seed the prompt and backfill fields the model omitted.
type Hints struct {
	Service leads.Service
	Urgency string
	Zone    string
}

// IsZero reports whether nothing was detected.
func (h Hints) IsZero() bool {
	return h == Hints{}
}
