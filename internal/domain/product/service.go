package product

import (
	"context"

	"marketplace/internal/domain/access"
	"marketplace/internal/domain/lifecycle"
	"marketplace/internal/domain/validation"
)

// Service contains the business logic for product operations.
// Every mutation requires the Admin role.
type Service struct {
	repo Repository
}

// NewService creates a new product service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, caller *access.Caller, fields Fields) (*Product, error) {
	return lifecycle.Run(ctx, lifecycle.Mutation[*Product]{
		Operation: "product.create",
		Caller:    caller,
		Privilege: access.RequireAdmin,
		Validate:  s.validate(fields),
		Apply: func(ctx context.Context) (*Product, error) {
			return s.repo.Create(ctx, fields.Params())
		},
	})
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Product, error) {
	return s.repo.List(ctx)
}

// Exists reports whether a product with id is stored.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) Update(ctx context.Context, caller *access.Caller, id int64, fields Fields) (*Product, error) {
	return lifecycle.Run(ctx, lifecycle.Mutation[*Product]{
		Operation: "product.update",
		Caller:    caller,
		Privilege: access.RequireAdmin,
		Validate:  s.validate(fields),
		Locate:    s.locate(id),
		Apply: func(ctx context.Context) (*Product, error) {
			return s.repo.Update(ctx, id, fields.Params())
		},
	})
}

// Delete removes the product. Items that reference it are left in place.
func (s *Service) Delete(ctx context.Context, caller *access.Caller, id int64) error {
	_, err := lifecycle.Run(ctx, lifecycle.Mutation[struct{}]{
		Operation: "product.delete",
		Caller:    caller,
		Privilege: access.RequireAdmin,
		Locate:    s.locate(id),
		Apply: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.repo.Delete(ctx, id)
		},
	})
	return err
}

func (s *Service) validate(fields Fields) func(context.Context) (validation.Result, error) {
	return func(ctx context.Context) (validation.Result, error) {
		return validation.Validate(ctx, validation.KindProduct, fields)
	}
}

// locate resolves the target. Products are unowned, so the owner is always zero.
func (s *Service) locate(id int64) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return 0, err
		}
		return 0, nil
	}
}
