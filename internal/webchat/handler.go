package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/prontocasa/assistant/internal/assistant"
	"github.com/prontocasa/assistant/internal/leads"
	"github.com/prontocasa/assistant/pkg/logging"
)

// TurnStreamer is the slice of the orchestrator the widget needs: a turn
// whose prose arrives chunk by chunk, with the lead delivered at the end.
type TurnStreamer interface {
	ProcessTurnStream(ctx context.Context, req assistant.TurnRequest, onChunk func(text string)) (*assistant.TurnResponse, error)
}

// Handler serves the embeddable chat widget's websocket endpoint.
type Handler struct {
	streamer TurnStreamer
	store    assistant.HistoryStore
	logger   *logging.Logger
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type   string   `json:"type"` // "message", "ping"
	Text   string   `json:"text"`
	Images []string `json:"images,omitempty"`
}

// OutboundMessage is what we send to the widget. "chunk" carries streamed
// prose; "message" is the authoritative final text once the turn completes,
// together with the lead state the widget uses to show the confirm button.
type OutboundMessage struct {
	Type       string           `json:"type"` // "session", "history", "chunk", "message", "error", "pong"
	Text       string           `json:"text,omitempty"`
	Role       string           `json:"role,omitempty"`
	SessionID  string           `json:"session_id,omitempty"`
	Timestamp  string           `json:"timestamp,omitempty"`
	Lead       *leads.Lead      `json:"lead,omitempty"`
	Actionable bool             `json:"actionable,omitempty"`
	Messages   []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a simplified turn for history replay.
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// NewHandler creates a webchat handler.
func NewHandler(streamer TurnStreamer, store assistant.HistoryStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		streamer: streamer,
		store:    store,
		logger:   logger.WithComponent("webchat"),
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

// ServeHTTP upgrades to WebSocket and handles real-time messaging.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}
	conversationID := "webchat:" + sessionID

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})
	h.sendHistory(r.Context(), conn, conversationID)

	h.logger.Info("connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		h.processMessage(r.Context(), conn, conversationID, msg)
	}
}

func (h *Handler) sendHistory(ctx context.Context, conn *websocket.Conn, conversationID string) {
	turns, err := h.store.LoadTurns(ctx, conversationID)
	if err != nil || len(turns) == 0 {
		return
	}
	history := make([]HistoryMessage, 0, len(turns))
	for _, t := range turns {
		history = append(history, HistoryMessage{Role: t.Role, Text: t.Content})
	}
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: history})
}

// processMessage runs one streamed turn: chunks go out as they arrive, the
// final message carries the post-processed text and the lead.
func (h *Handler) processMessage(ctx context.Context, conn *websocket.Conn, conversationID string, msg InboundMessage) {
	history, err := h.store.LoadTurns(ctx, conversationID)
	if err != nil {
		h.logger.Error("failed to load history", "conversation_id", conversationID, "error", err)
	}
	sessionLead, err := h.store.LoadLead(ctx, conversationID)
	if err != nil {
		h.logger.Error("failed to load session lead", "conversation_id", conversationID, "error", err)
	}

	resp, err := h.streamer.ProcessTurnStream(ctx, assistant.TurnRequest{
		ConversationID: conversationID,
		History:        history,
		Message:        msg.Text,
		Images:         msg.Images,
		SessionLead:    sessionLead,
	}, func(text string) {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "chunk", Role: assistant.RoleAssistant, Text: text})
	})
	if err != nil {
		h.logger.Error("failed to process turn", "conversation_id", conversationID, "error", err)
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "riprova tra qualche istante"})
		return
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:       "message",
		Role:       assistant.RoleAssistant,
		Text:       resp.Text,
		Lead:       resp.Lead,
		Actionable: resp.Lead.Actionable(),
		Timestamp:  resp.Timestamp.Format(time.RFC3339),
	})

	history = append(history,
		assistant.Turn{Role: assistant.RoleUser, Content: msg.Text, Images: msg.Images},
		assistant.Turn{Role: assistant.RoleAssistant, Content: resp.Text},
	)
	if err := h.store.SaveTurns(ctx, conversationID, history); err != nil {
		h.logger.Error("failed to save history", "conversation_id", conversationID, "error", err)
	}
	if resp.Lead != nil {
		if err := h.store.SaveLead(ctx, conversationID, resp.Lead); err != nil {
			h.logger.Error("failed to save session lead", "conversation_id", conversationID, "error", err)
		}
	}
}
