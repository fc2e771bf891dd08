package leads

import "errors"

var (
	// ErrMissingConversation is returned when the conversation id is absent
	ErrMissingConversation = errors.New("conversation_id is required")

	// ErrNotActionable is returned when the lead fails the confirmation gate
	ErrNotActionable = errors.New("lead is not actionable")

	// ErrRecordNotFound is returned when a lead record is not found
	ErrRecordNotFound = errors.New("lead record not found")
)
