package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PgxPool is the subset of pgxpool.Pool the repository needs; pgxmock pools
// satisfy it in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores confirmed lead records in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row. The lead body is stored as jsonb so back-office
// queries can index individual slots without the core owning the schema.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateRecordRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req.Lead)
	if err != nil {
		return nil, fmt.Errorf("leads: marshal lead: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO lead_records (id, conversation_id, lead)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query, id, req.ConversationID, payload).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Record{
		ID:             id.String(),
		ConversationID: req.ConversationID,
		Lead:           req.Lead,
		CreatedAt:      createdAt,
	}, nil
}

// GetByID fetches a lead record.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	query := `
		SELECT id, conversation_id, lead, created_at
		FROM lead_records
		WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)

	var record Record
	var payload []byte
	if err := row.Scan(&record.ID, &record.ConversationID, &payload, &record.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	if err := json.Unmarshal(payload, &record.Lead); err != nil {
		return nil, fmt.Errorf("leads: decode lead: %w", err)
	}
	return &record, nil
}
