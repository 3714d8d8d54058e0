package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/memotag/memotag-server/internal/model"
)

// ErrDuplicateItemID is returned by Create when the item_id slug is taken.
var ErrDuplicateItemID = errors.New("item_id already exists")

type ItemRepository interface {
	FindAll(ctx context.Context) ([]model.Item, error)
	FindByItemID(ctx context.Context, itemID string) (*model.Item, error)
	Create(ctx context.Context, params model.CreateItemParams) (*model.Item, error)
	UpdateStatus(ctx context.Context, itemID string, status model.ItemStatus) (*model.Item, error)
	Delete(ctx context.Context, itemID string) (int64, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status model.ItemStatus) (int, error)
}

type itemRepo struct {
	db *sqlx.DB
}

func NewItemRepository(db *sqlx.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) FindAll(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM items
		ORDER BY created_at DESC
	`)
	return items, err
}

func (r *itemRepo) FindByItemID(ctx context.Context, itemID string) (*model.Item, error) {
	var item model.Item
	err := r.db.GetContext(ctx, &item, `
		SELECT * FROM items WHERE item_id = $1
	`, itemID)
	return HandleNotFound(&item, err)
}

func (r *itemRepo) Create(ctx context.Context, params model.CreateItemParams) (*model.Item, error) {
	var item model.Item
	err := r.db.GetContext(ctx, &item, `
		INSERT INTO items (id, item_id, name, location, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, uuid.NewString(), params.ItemID, params.Name, params.Location, params.Status)
	if IsUniqueViolation(err) {
		return nil, ErrDuplicateItemID
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) UpdateStatus(ctx context.Context, itemID string, status model.ItemStatus) (*model.Item, error) {
	var item model.Item
	err := r.db.GetContext(ctx, &item, `
		UPDATE items SET
			status = $2,
			updated_at = NOW()
		WHERE item_id = $1
		RETURNING *
	`, itemID, status)
	return HandleNotFound(&item, err)
}

func (r *itemRepo) Delete(ctx context.Context, itemID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM items WHERE item_id = $1
	`, itemID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *itemRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM items`)
	return count, err
}

func (r *itemRepo) CountByStatus(ctx context.Context, status model.ItemStatus) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM items WHERE status = $1
	`, status)
	return count, err
}
