package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for confirmed-lead storage. The assistant
// core only ever puts and gets records; everything else belongs to the
// back-office.
type Repository interface {
	Create(ctx context.Context, req *CreateRecordRequest) (*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
}

// InMemoryRepository is a Repository backed by a process-local map, used in
// development and tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]*Record),
	}
}

// Create stores a confirmed lead in memory.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateRecordRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	record := &Record{
		ID:             uuid.New().String(),
		ConversationID: req.ConversationID,
		Lead:           req.Lead,
		CreatedAt:      time.Now().UTC(),
	}

	r.mu.Lock()
	r.records[record.ID] = record
	r.mu.Unlock()

	return record, nil
}

// GetByID retrieves a record by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	return record, nil
}
