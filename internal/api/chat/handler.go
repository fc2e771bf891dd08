package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prontocasa/assistant/internal/assistant"
	"github.com/prontocasa/assistant/internal/leads"
	"github.com/prontocasa/assistant/pkg/logging"
)

// TurnProcessor is the slice of the orchestrator the handler needs.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, req assistant.TurnRequest) (*assistant.TurnResponse, error)
}

// Handler wires HTTP requests to the turn pipeline and the session store.
type Handler struct {
	processor TurnProcessor
	store     assistant.HistoryStore
	repo      leads.Repository
	logger    *logging.Logger
}

// NewHandler creates a chat handler.
func NewHandler(processor TurnProcessor, store assistant.HistoryStore, repo leads.Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		processor: processor,
		store:     store,
		repo:      repo,
		logger:    logger.WithComponent("chat_handler"),
	}
}

// TurnPayload is the POST /api/chat request body.
type TurnPayload struct {
	ConversationID string   `json:"conversation_id"`
	Message        string   `json:"message"`
	Images         []string `json:"images,omitempty"`
}

// TurnReply is the POST /api/chat response body.
type TurnReply struct {
	ConversationID string      `json:"conversation_id"`
	Text           string      `json:"text"`
	Lead           *leads.Lead `json:"lead,omitempty"`
	Actionable     bool        `json:"actionable"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Turn handles POST /api/chat.
func (h *Handler) Turn(w http.ResponseWriter, r *http.Request) {
	var payload TurnPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Error("failed to decode turn request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}
	if payload.ConversationID == "" {
		payload.ConversationID = uuid.NewString()
	}

	ctx := r.Context()
	history, err := h.store.LoadTurns(ctx, payload.ConversationID)
	if err != nil {
		h.logger.Error("failed to load history", "conversation_id", payload.ConversationID, "error", err)
	}
	sessionLead, err := h.store.LoadLead(ctx, payload.ConversationID)
	if err != nil {
		h.logger.Error("failed to load session lead", "conversation_id", payload.ConversationID, "error", err)
	}

	resp, err := h.processor.ProcessTurn(ctx, assistant.TurnRequest{
		ConversationID: payload.ConversationID,
		History:        history,
		Message:        payload.Message,
		Images:         payload.Images,
		SessionLead:    sessionLead,
	})
	if err != nil {
		h.logger.Error("failed to process turn", "conversation_id", payload.ConversationID, "error", err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	h.persistTurn(ctx, payload, resp)

	h.writeJSON(w, http.StatusOK, TurnReply{
		ConversationID: resp.ConversationID,
		Text:           resp.Text,
		Lead:           resp.Lead,
		Actionable:     resp.Lead.Actionable(),
		Timestamp:      resp.Timestamp,
	})
}

// persistTurn appends the exchanged pair to the transcript and refreshes the
// session lead. Persistence failures are logged, never surfaced: the reply
// already exists and the user must see it.
func (h *Handler) persistTurn(ctx context.Context, payload TurnPayload, resp *assistant.TurnResponse) {
	history, err := h.store.LoadTurns(ctx, payload.ConversationID)
	if err != nil {
		h.logger.Error("failed to reload history", "conversation_id", payload.ConversationID, "error", err)
	}
	history = append(history,
		assistant.Turn{Role: assistant.RoleUser, Content: payload.Message, Images: payload.Images},
		assistant.Turn{Role: assistant.RoleAssistant, Content: resp.Text},
	)
	if err := h.store.SaveTurns(ctx, payload.ConversationID, history); err != nil {
		h.logger.Error("failed to save history", "conversation_id", payload.ConversationID, "error", err)
	}
	if resp.Lead != nil {
		if err := h.store.SaveLead(ctx, payload.ConversationID, resp.Lead); err != nil {
			h.logger.Error("failed to save session lead", "conversation_id", payload.ConversationID, "error", err)
		}
	}
}

// History handles GET /api/chat/{conversationID}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "Conversation ID is required", http.StatusBadRequest)
		return
	}

	turns, err := h.store.LoadTurns(r.Context(), conversationID)
	if err != nil {
		h.logger.Error("failed to load history", "conversation_id", conversationID, "error", err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": conversationID,
		"turns":           turns,
	})
}

// ConfirmPayload is the POST /api/chat/{conversationID}/confirm body. Contact
// details are optional here; they may already live on the session lead.
type ConfirmPayload struct {
	Nome     string `json:"nome,omitempty"`
	Telefono string `json:"telefono,omitempty"`
}

// Confirm handles POST /api/chat/{conversationID}/confirm: the user accepts
// the recap and the qualified lead is handed to the operator queue.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "Conversation ID is required", http.StatusBadRequest)
		return
	}
	if h.repo == nil {
		http.Error(w, "Lead intake is not configured", http.StatusServiceUnavailable)
		return
	}

	var payload ConfirmPayload
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	lead, err := h.store.LoadLead(ctx, conversationID)
	if err != nil {
		h.logger.Error("failed to load session lead", "conversation_id", conversationID, "error", err)
		http.Error(w, "Failed to load conversation", http.StatusInternalServerError)
		return
	}
	if lead == nil {
		http.Error(w, "No lead for this conversation", http.StatusNotFound)
		return
	}
	if payload.Nome != "" || payload.Telefono != "" {
		if lead.Contatto == nil {
			lead.Contatto = &leads.Contatto{}
		}
		if payload.Nome != "" {
			lead.Contatto.Nome = payload.Nome
		}
		if payload.Telefono != "" {
			lead.Contatto.Telefono = payload.Telefono
		}
	}

	req := &leads.CreateRecordRequest{ConversationID: conversationID, Lead: *lead}
	record, err := h.repo.Create(ctx, req)
	if err != nil {
		if errors.Is(err, leads.ErrNotActionable) {
			http.Error(w, "Lead is not complete enough to confirm", http.StatusConflict)
			return
		}
		h.logger.Error("failed to create lead record", "conversation_id", conversationID, "error", err)
		http.Error(w, "Failed to confirm lead", http.StatusInternalServerError)
		return
	}

	if err := h.store.SaveLead(ctx, conversationID, lead); err != nil {
		h.logger.Error("failed to save confirmed lead", "conversation_id", conversationID, "error", err)
	}

	h.logger.Info("lead confirmed", "conversation_id", conversationID, "record_id", record.ID)
	h.writeJSON(w, http.StatusCreated, record)
}

// HealthCheck handles GET /healthz.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
