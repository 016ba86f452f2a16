package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taste-test/internal/domain"
)

type PgEntryRepository struct {
	pool *pgxpool.Pool
}

func NewPgEntryRepository(pool *pgxpool.Pool) *PgEntryRepository {
	return &PgEntryRepository{pool: pool}
}

func (r *PgEntryRepository) AppendEntry(ctx context.Context, entry domain.ChatEntry) error {
	const query = `
		INSERT INTO chat_entries (id, conversation_id, seq, kind, text, image_content_type, image_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	contentType, data := imageColumns(entry.Image)
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.ConversationID,
		entry.Seq,
		string(entry.Kind),
		entry.Text,
		contentType,
		data,
		entry.CreatedAt,
	)
	return err
}

func (r *PgEntryRepository) ListEntries(ctx context.Context, conversationID string) ([]domain.ChatEntry, error) {
	const query = `
		SELECT id, conversation_id, seq, kind, text, image_content_type, image_data, created_at
		FROM chat_entries
		WHERE conversation_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ChatEntry
	for rows.Next() {
		var entry domain.ChatEntry
		var kind string
		var contentType *string
		var data []byte

		err = rows.Scan(
			&entry.ID,
			&entry.ConversationID,
			&entry.Seq,
			&kind,
			&entry.Text,
			&contentType,
			&data,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entry.Kind = domain.EntryKind(kind)
		entry.Image = imageFromColumns(contentType, data)
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// imageColumns devuelve NULLs para entradas de texto.
func imageColumns(img *domain.Image) (interface{}, interface{}) {
	if img == nil {
		return nil, nil
	}
	return img.ContentType, img.Data
}

func imageFromColumns(contentType *string, data []byte) *domain.Image {
	if contentType == nil && data == nil {
		return nil
	}
	img := &domain.Image{Data: data}
	if contentType != nil {
		img.ContentType = *contentType
	}
	return img
}
