package product

import "context"

// Repository defines the interface for product data access
type Repository interface {
	Create(ctx context.Context, params Params) (*Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Update(ctx context.Context, id int64, params Params) (*Product, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}
