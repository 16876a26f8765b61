package item

import "context"

// Repository defines the interface for item data access
type Repository interface {
	Create(ctx context.Context, ownerID int64, params Params) (*Item, error)
	GetByID(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context) ([]*Item, error)
	Update(ctx context.Context, id int64, params Params) (*Item, error)
	Delete(ctx context.Context, id int64) error
}
