package assistant

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ImagePart is an inlined image attached to a chat message.
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// ChatMessage is the internal message representation sent to the model.
// Images only ever appear on user messages.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Images  []ImagePart
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// StreamChunk is one piece of a streamed completion. A non-nil Err terminates
// the stream; Text is empty in that case.
type StreamChunk struct {
	Text string
	Err  error
}

// LLMClient is the opaque text-completion boundary: role-tagged messages in,
// one completion out. Nothing vendor-specific leaks past it.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// StreamingLLMClient is implemented by clients that can deliver the
// completion incrementally. The returned channel is finite and closed by the
// producer; the consumer may stop reading early by cancelling ctx.
type StreamingLLMClient interface {
	LLMClient
	CompleteStream(ctx context.Context, req LLMRequest) (<-chan StreamChunk, error)
}
