package item

import (
	"context"

	"marketplace/internal/domain/access"
	"marketplace/internal/domain/lifecycle"
	"marketplace/internal/domain/validation"
)

// Service contains the business logic for item operations
type Service struct {
	repo     Repository
	products ProductChecker
}

// NewService creates a new item service
func NewService(repo Repository, products ProductChecker) *Service {
	return &Service{repo: repo, products: products}
}

// Create stores a new item owned by the caller.
func (s *Service) Create(ctx context.Context, caller *access.Caller, fields Fields) (*Item, error) {
	return lifecycle.Run(ctx, lifecycle.Mutation[*Item]{
		Operation: "item.create",
		Caller:    caller,
		Privilege: access.RequireAuthenticated,
		Validate:  s.validate(fields),
		Apply: func(ctx context.Context) (*Item, error) {
			return s.repo.Create(ctx, caller.UserID, fields.Params())
		},
	})
}

func (s *Service) Get(ctx context.Context, id int64) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Item, error) {
	return s.repo.List(ctx)
}

// Update replaces the condition and product of an item. The owner never changes.
func (s *Service) Update(ctx context.Context, caller *access.Caller, id int64, fields Fields) (*Item, error) {
	return lifecycle.Run(ctx, lifecycle.Mutation[*Item]{
		Operation: "item.update",
		Caller:    caller,
		Privilege: access.RequireOwner,
		Validate:  s.validate(fields),
		Locate:    s.locate(id),
		Apply: func(ctx context.Context) (*Item, error) {
			return s.repo.Update(ctx, id, fields.Params())
		},
	})
}

func (s *Service) Delete(ctx context.Context, caller *access.Caller, id int64) error {
	_, err := lifecycle.Run(ctx, lifecycle.Mutation[struct{}]{
		Operation: "item.delete",
		Caller:    caller,
		Privilege: access.RequireOwner,
		Locate:    s.locate(id),
		Apply: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.repo.Delete(ctx, id)
		},
	})
	return err
}

func (s *Service) validate(fields Fields) func(context.Context) (validation.Result, error) {
	return func(ctx context.Context) (validation.Result, error) {
		return validation.Validate(ctx, validation.KindItem, fields.Validator(s.products))
	}
}

func (s *Service) locate(id int64) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		it, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return it.OwnerID, nil
	}
}
