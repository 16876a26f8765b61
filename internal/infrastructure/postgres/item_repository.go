package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketplace/internal/domain/item"
)

const itemColumns = `id, condition, product_id, owner_id`

type ItemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*item.Item, error) {
	var it item.Item
	if err := row.Scan(&it.ID, &it.Condition, &it.ProductID, &it.OwnerID); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *ItemRepository) Create(ctx context.Context, ownerID int64, params item.Params) (*item.Item, error) {
	query := `
		INSERT INTO items (condition, product_id, owner_id)
		VALUES ($1, $2, $3)
		RETURNING ` + itemColumns

	it, err := scanItem(r.db.QueryRowContext(ctx, query, params.Condition, params.ProductID, ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	it, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, item.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) List(ctx context.Context) ([]*item.Item, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]*item.Item, error) {
	defer rows.Close()

	items := make([]*item.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *ItemRepository) Update(ctx context.Context, id int64, params item.Params) (*item.Item, error) {
	query := `
		UPDATE items
		SET condition = $2, product_id = $3
		WHERE id = $1
		RETURNING ` + itemColumns

	it, err := scanItem(r.db.QueryRowContext(ctx, query, id, params.Condition, params.ProductID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, item.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return it, nil
}

// Delete removes the item. Its association rows go with it (ON DELETE CASCADE).
func (r *ItemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return item.ErrItemNotFound
	}

	return nil
}
