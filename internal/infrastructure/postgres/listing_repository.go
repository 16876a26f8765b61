package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"marketplace/internal/domain/item"
	"marketplace/internal/domain/listing"
)

const listingColumns = `id, name, description, price, start_utc, end_utc, owner_id`

type ListingRepository struct {
	db *DB
}

func NewListingRepository(db *DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func scanListing(row rowScanner) (*listing.Listing, error) {
	var l listing.Listing
	if err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Price, &l.StartUTC, &l.EndUTC, &l.OwnerID); err != nil {
		return nil, err
	}
	l.StartUTC = l.StartUTC.UTC()
	l.EndUTC = l.EndUTC.UTC()
	return &l, nil
}

func collectListings(rows *sql.Rows) ([]*listing.Listing, error) {
	defer rows.Close()

	listings := make([]*listing.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (r *ListingRepository) Create(ctx context.Context, ownerID int64, params listing.Params) (*listing.Listing, error) {
	query := `
		INSERT INTO listings (name, description, price, start_utc, end_utc, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + listingColumns

	l, err := scanListing(r.db.QueryRowContext(ctx, query,
		params.Name, params.Description, params.Price, params.StartUTC.UTC(), params.EndUTC.UTC(), ownerID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return l, nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*listing.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	l, err := scanListing(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, listing.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return l, nil
}

func (r *ListingRepository) List(ctx context.Context) ([]*listing.Listing, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return collectListings(rows)
}

func (r *ListingRepository) ListActive(ctx context.Context, now time.Time) ([]*listing.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE start_utc <= $1 AND end_utc > $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list active listings: %w", err)
	}
	return collectListings(rows)
}

func (r *ListingRepository) ListActiveByProduct(ctx context.Context, productID int64, now time.Time) ([]*listing.Listing, error) {
	query := `
		SELECT l.id, l.name, l.description, l.price, l.start_utc, l.end_utc, l.owner_id
		FROM listings l
		WHERE l.start_utc <= $2 AND l.end_utc > $2
		  AND EXISTS (
			SELECT 1
			FROM item_listings il
			JOIN items i ON i.id = il.item_id
			WHERE il.listing_id = l.id AND i.product_id = $1
		  )
		ORDER BY l.id
	`

	rows, err := r.db.QueryContext(ctx, query, productID, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list active listings for product: %w", err)
	}
	return collectListings(rows)
}

func (r *ListingRepository) Update(ctx context.Context, id int64, params listing.Params) (*listing.Listing, error) {
	query := `
		UPDATE listings
		SET name = $2, description = $3, price = $4, start_utc = $5, end_utc = $6
		WHERE id = $1
		RETURNING ` + listingColumns

	l, err := scanListing(r.db.QueryRowContext(ctx, query,
		id, params.Name, params.Description, params.Price, params.StartUTC.UTC(), params.EndUTC.UTC(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, listing.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	return l, nil
}

// Delete removes the listing. Its association rows go with it (ON DELETE CASCADE).
func (r *ListingRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return listing.ErrListingNotFound
	}

	return nil
}

func (r *ListingRepository) ListItems(ctx context.Context, listingID int64) ([]*item.Item, error) {
	if _, err := r.GetByID(ctx, listingID); err != nil {
		return nil, err
	}

	query := `
		SELECT i.id, i.condition, i.product_id, i.owner_id
		FROM item_listings il
		JOIN items i ON i.id = il.item_id
		WHERE il.listing_id = $1
		ORDER BY i.id
	`

	rows, err := r.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list listing items: %w", err)
	}
	return collectItems(rows)
}

// ReplaceItems locks the listing row so concurrent replaces on the same
// listing run one after the other, checks every item under a share lock,
// then swaps the association rows. Any failure rolls the whole thing back.
func (r *ListingRepository) ReplaceItems(ctx context.Context, listingID int64, itemIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lockedID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM listings WHERE id = $1 FOR UPDATE`, listingID).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return listing.ErrListingNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock listing: %w", err)
	}

	if len(itemIDs) > 0 {
		missing, err := missingItems(ctx, tx, itemIDs)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return &listing.UnknownItemsError{IDs: missing}
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_listings WHERE listing_id = $1`, listingID); err != nil {
		return fmt.Errorf("failed to delete existing associations: %w", err)
	}

	// The ids travel as one array parameter, so the set size is not bound
	// by the protocol's parameter limit.
	if len(itemIDs) > 0 {
		query := `
			INSERT INTO item_listings (listing_id, item_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, query, listingID, pq.Array(itemIDs)); err != nil {
			return fmt.Errorf("failed to insert associations: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// missingItems returns the ids that do not reference an item, in input order.
// Found rows stay share-locked until the transaction ends.
func missingItems(ctx context.Context, tx *Tx, itemIDs []int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM items WHERE id = ANY($1) FOR SHARE`, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to check items: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(itemIDs))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to check items: %w", err)
	}

	var missing []int64
	for _, id := range itemIDs {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
