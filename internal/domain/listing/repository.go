package listing

import (
	"context"
	"time"

	"marketplace/internal/domain/item"
)

// Repository defines the interface for listing data access
type Repository interface {
	Create(ctx context.Context, ownerID int64, params Params) (*Listing, error)
	GetByID(ctx context.Context, id int64) (*Listing, error)
	List(ctx context.Context) ([]*Listing, error)
	ListActive(ctx context.Context, now time.Time) ([]*Listing, error)
	ListActiveByProduct(ctx context.Context, productID int64, now time.Time) ([]*Listing, error)
	Update(ctx context.Context, id int64, params Params) (*Listing, error)
	Delete(ctx context.Context, id int64) error

	// ListItems returns the current association set of a listing.
	ListItems(ctx context.Context, listingID int64) ([]*item.Item, error)

	// ReplaceItems makes itemIDs the complete association set of the listing
	// in a single transaction. It returns ErrListingNotFound when the listing
	// is gone and *UnknownItemsError when any id does not reference an item;
	// on any error the previous set is kept.
	ReplaceItems(ctx context.Context, listingID int64, itemIDs []int64) error
}
