package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taste-test/internal/domain"
)

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

func (r *PgConversationRepository) CreateConversation(ctx context.Context, conv domain.Conversation) error {
	const query = `
		INSERT INTO conversations (id, user_id, created_at)
		VALUES ($1, $2, $3)
	`
	var userID interface{}
	if conv.UserID != "" {
		userID = conv.UserID
	}
	_, err := r.pool.Exec(ctx, query, conv.ID, userID, conv.CreatedAt)
	return err
}

func (r *PgConversationRepository) GetConversation(ctx context.Context, id string) (domain.Conversation, error) {
	const query = `
		SELECT id, user_id, created_at
		FROM conversations
		WHERE id = $1
	`
	var conv domain.Conversation
	var userID *string
	err := r.pool.QueryRow(ctx, query, id).Scan(&conv.ID, &userID, &conv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Conversation{}, err
	}
	if userID != nil {
		conv.UserID = *userID
	}
	return conv, err
}

// PgTranscriptRepository junta conversaciones y entradas para el transcript.Store.
type PgTranscriptRepository struct {
	*PgConversationRepository
	*PgEntryRepository
}

func NewPgTranscriptRepository(pool *pgxpool.Pool) *PgTranscriptRepository {
	return &PgTranscriptRepository{
		PgConversationRepository: NewPgConversationRepository(pool),
		PgEntryRepository:        NewPgEntryRepository(pool),
	}
}
