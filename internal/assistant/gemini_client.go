package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiLLMClient implements LLMClient using Google's Gemini API.
type GeminiLLMClient struct {
	client  *genai.Client
	modelID string
}

var _ StreamingLLMClient = (*GeminiLLMClient)(nil)

// NewGeminiLLMClient creates a new Gemini LLM client.
func NewGeminiLLMClient(ctx context.Context, apiKey, modelID string) (*GeminiLLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("assistant: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("assistant: failed to create gemini client: %w", err)
	}

	return &GeminiLLMClient{
		client:  client,
		modelID: modelID,
	}, nil
}

// prepare configures the model and chat session from the request, returning
// the session and the parts for the final message to send.
func (c *GeminiLLMClient) prepare(req LLMRequest) (*genai.ChatSession, []genai.Part, error) {
	model := c.client.GenerativeModel(c.modelID)
	if req.Model != "" {
		model = c.client.GenerativeModel(req.Model)
	}

	if req.Temperature > 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.TopP > 0 {
		model.SetTopP(req.TopP)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}

	if len(req.System) > 0 {
		systemText := strings.Join(req.System, "\n\n")
		if strings.TrimSpace(systemText) != "" {
			model.SystemInstruction = genai.NewUserContent(genai.Text(systemText))
		}
	}

	if len(req.Messages) == 0 {
		return nil, nil, errors.New("assistant: gemini requires at least one message")
	}

	cs := model.StartChat()
	for _, msg := range req.Messages[:len(req.Messages)-1] {
		if msg.Role == ChatRoleSystem {
			continue
		}
		parts := messageParts(msg)
		if len(parts) == 0 {
			continue
		}
		role := "user"
		if msg.Role == ChatRoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{Role: role, Parts: parts})
	}

	last := messageParts(req.Messages[len(req.Messages)-1])
	if len(last) == 0 {
		return nil, nil, errors.New("assistant: gemini final message is empty")
	}
	return cs, last, nil
}

func messageParts(msg ChatMessage) []genai.Part {
	var parts []genai.Part
	if content := strings.TrimSpace(msg.Content); content != "" {
		parts = append(parts, genai.Text(content))
	}
	for _, img := range msg.Images {
		if len(img.Data) == 0 {
			continue
		}
		format := strings.TrimPrefix(img.MIMEType, "image/")
		if format == "" {
			format = "jpeg"
		}
		parts = append(parts, genai.ImageData(format, img.Data))
	}
	return parts
}

// Complete sends a completion request to Gemini and returns the response.
func (c *GeminiLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	cs, last, err := c.prepare(req)
	if err != nil {
		return LLMResponse{}, err
	}

	resp, err := cs.SendMessage(ctx, last...)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("assistant: gemini completion failed: %w", err)
	}

	text, finish, err := candidateText(resp)
	if err != nil {
		return LLMResponse{}, err
	}

	result := LLMResponse{Text: strings.TrimSpace(text), StopReason: finish}
	if resp.UsageMetadata != nil {
		result.Usage = TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}
	return result, nil
}

// CompleteStream sends the request and forwards the completion chunk by
// chunk. The channel is closed when the model finishes or errors out.
func (c *GeminiLLMClient) CompleteStream(ctx context.Context, req LLMRequest) (<-chan StreamChunk, error) {
	cs, last, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	iter := cs.SendMessageStream(ctx, last...)
	out := make(chan StreamChunk)

	go func() {
		defer close(out)
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				select {
				case out <- StreamChunk{Err: fmt.Errorf("assistant: gemini stream failed: %w", err)}:
				case <-ctx.Done():
				}
				return
			}
			text, _, err := candidateText(resp)
			if err != nil || text == "" {
				continue
			}
			select {
			case out <- StreamChunk{Text: text}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func candidateText(resp *genai.GenerateContentResponse) (string, string, error) {
	if len(resp.Candidates) == 0 {
		return "", "", errors.New("assistant: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", "", errors.New("assistant: gemini returned empty content")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), candidate.FinishReason.String(), nil
}

// Close releases resources held by the Gemini client.
func (c *GeminiLLMClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
