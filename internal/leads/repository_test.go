package leads

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actionableRequest() *CreateRecordRequest {
	return &CreateRecordRequest{
		ConversationID: "conv-42",
		Lead: Lead{
			Servizio: ServiceFabbro,
			Zona:     "Trastevere",
			Problema: "serratura bloccata",
			Extra:    Extra{TipoSerratura: "cilindro europeo"},
		},
	}
}

func TestInMemoryRepositoryRoundTrip(t *testing.T) {
	repo := NewInMemoryRepository()

	record, err := repo.Create(context.Background(), actionableRequest())
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)

	got, err := repo.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Lead, got.Lead)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestInMemoryRepositoryRejectsUnactionable(t *testing.T) {
	repo := NewInMemoryRepository()

	req := actionableRequest()
	req.Lead.Problema = ""
	_, err := repo.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrNotActionable)
}

func TestPostgresRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO lead_records").
		WithArgs(pgxmock.AnyArg(), "conv-42", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	record, err := repo.Create(context.Background(), actionableRequest())
	require.NoError(t, err)
	assert.Equal(t, "conv-42", record.ConversationID)
	assert.Equal(t, now, record.CreatedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "conversation_id", "lead", "created_at"}).
		AddRow("rec-1", "conv-42", []byte(`{"servizio":"idraulico","zona":"Prati","problema":"perdita"}`), now)
	mock.ExpectQuery("SELECT id, conversation_id, lead, created_at").
		WithArgs("rec-1").
		WillReturnRows(rows)

	record, err := repo.GetByID(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, ServiceIdraulico, record.Lead.Servizio)
	assert.Equal(t, "Prati", record.Lead.Zona)

	require.NoError(t, mock.ExpectationsWereMet())
}
