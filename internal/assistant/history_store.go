package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/prontocasa/assistant/internal/leads"
)

// sessionTTL bounds how long an idle conversation survives.
const sessionTTL = 24 * time.Hour

// HistoryStore persists the per-session transcript and the running lead
// between turns. The core itself is stateless; this is the only state the
// surrounding handler reads back.
type HistoryStore interface {
	SaveTurns(ctx context.Context, conversationID string, turns []Turn) error
	LoadTurns(ctx context.Context, conversationID string) ([]Turn, error)
	SaveLead(ctx context.Context, conversationID string, lead *leads.Lead) error
	LoadLead(ctx context.Context, conversationID string) (*leads.Lead, error)
}

// RedisHistoryStore keeps sessions in Redis with a TTL.
type RedisHistoryStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisHistoryStore builds a Redis-backed store.
func NewRedisHistoryStore(client *redis.Client, tracer trace.Tracer) *RedisHistoryStore {
	if client == nil {
		panic("assistant: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("prontocasa.internal.assistant.history")
	}
	return &RedisHistoryStore{redis: client, tracer: tracer}
}

func turnsKey(conversationID string) string {
	return "assistant:turns:" + conversationID
}

func leadKey(conversationID string) string {
	return "assistant:lead:" + conversationID
}

// SaveTurns overwrites the session transcript.
func (s *RedisHistoryStore) SaveTurns(ctx context.Context, conversationID string, turns []Turn) error {
	ctx, span := s.tracer.Start(ctx, "assistant.save_turns")
	defer span.End()

	data, err := json.Marshal(turns)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: marshal turns: %w", err)
	}
	if err := s.redis.Set(ctx, turnsKey(conversationID), data, sessionTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: persist turns: %w", err)
	}
	return nil
}

// LoadTurns returns the session transcript; a new session yields nil.
func (s *RedisHistoryStore) LoadTurns(ctx context.Context, conversationID string) ([]Turn, error) {
	ctx, span := s.tracer.Start(ctx, "assistant.load_turns")
	defer span.End()

	data, err := s.redis.Get(ctx, turnsKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("assistant: load turns: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("assistant: decode turns: %w", err)
	}
	return turns, nil
}

// SaveLead overwrites the session's running lead.
func (s *RedisHistoryStore) SaveLead(ctx context.Context, conversationID string, lead *leads.Lead) error {
	ctx, span := s.tracer.Start(ctx, "assistant.save_lead")
	defer span.End()

	if lead == nil {
		return nil
	}
	data, err := json.Marshal(lead)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: marshal lead: %w", err)
	}
	if err := s.redis.Set(ctx, leadKey(conversationID), data, sessionTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: persist lead: %w", err)
	}
	return nil
}

// LoadLead returns the session's running lead, or nil when absent.
func (s *RedisHistoryStore) LoadLead(ctx context.Context, conversationID string) (*leads.Lead, error) {
	ctx, span := s.tracer.Start(ctx, "assistant.load_lead")
	defer span.End()

	data, err := s.redis.Get(ctx, leadKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("assistant: load lead: %w", err)
	}

	var lead leads.Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("assistant: decode lead: %w", err)
	}
	return &lead, nil
}

// MemoryHistoryStore is a process-local HistoryStore for development and
// tests.
type MemoryHistoryStore struct {
	mu    sync.RWMutex
	turns map[string][]Turn
	lead  map[string]*leads.Lead
}

// NewMemoryHistoryStore builds an empty in-memory store.
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{
		turns: make(map[string][]Turn),
		lead:  make(map[string]*leads.Lead),
	}
}

func (s *MemoryHistoryStore) SaveTurns(ctx context.Context, conversationID string, turns []Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[conversationID] = append([]Turn(nil), turns...)
	return nil
}

func (s *MemoryHistoryStore) LoadTurns(ctx context.Context, conversationID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Turn(nil), s.turns[conversationID]...), nil
}

func (s *MemoryHistoryStore) SaveLead(ctx context.Context, conversationID string, lead *leads.Lead) error {
	if lead == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *lead
	s.lead[conversationID] = &copied
	return nil
}

func (s *MemoryHistoryStore) LoadLead(ctx context.Context, conversationID string) (*leads.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.lead[conversationID]
	if !ok {
		return nil, nil
	}
	copied := *lead
	return &copied, nil
}
