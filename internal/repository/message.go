package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/memotag/memotag-server/internal/model"
)

type MessageRepository interface {
	FindAll(ctx context.Context, limit, offset int) ([]model.Message, error)
	FindByItemID(ctx context.Context, itemID string, limit, offset int) ([]model.Message, error)
	Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error)
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByItemID(ctx context.Context, itemID string) (int64, error)
	Count(ctx context.Context) (int, error)
	CountByItemID(ctx context.Context, itemID string) (int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type messageRepo struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return msgs, err
}

func (r *messageRepo) FindByItemID(ctx context.Context, itemID string, limit, offset int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		WHERE item_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, itemID, limit, offset)
	return msgs, err
}

func (r *messageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages (id, item_id, body, user_name, msg_type, progress)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, uuid.NewString(), params.ItemID, params.Body, params.UserName, params.Type, params.Progress)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM messages WHERE id = $1
	`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *messageRepo) DeleteByItemID(ctx context.Context, itemID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM messages WHERE item_id = $1
	`, itemID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *messageRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages`)
	return count, err
}

func (r *messageRepo) CountByItemID(ctx context.Context, itemID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages WHERE item_id = $1
	`, itemID)
	return count, err
}

func (r *messageRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages WHERE created_at >= $1
	`, since)
	return count, err
}

func (r *messageRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM messages WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
