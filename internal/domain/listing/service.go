package listing

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/domain/access"
	"marketplace/internal/domain/item"
	"marketplace/internal/domain/lifecycle"
	"marketplace/internal/domain/product"
	"marketplace/internal/domain/validation"
)

// Service contains the business logic for listing operations
type Service struct {
	repo     Repository
	products item.ProductChecker
	now      func() time.Time
}

// NewService creates a new listing service
func NewService(repo Repository, products item.ProductChecker) *Service {
	return &Service{repo: repo, products: products, now: time.Now}
}

// Create stores a new listing owned by the caller.
func (s *Service) Create(ctx context.Context, caller *access.Caller, fields Fields) (*Listing, error) {
	return lifecycle.Run(ctx, lifecycle.Mutation[*Listing]{
		Operation: "listing.create",
		Caller:    caller,
		Privilege: access.RequireAuthenticated,
		Validate:  s.validate(fields),
		Apply: func(ctx context.Context) (*Listing, error) {
			return s.repo.Create(ctx, caller.UserID, fields.Params())
		},
	})
}

func (s *Service) Get(ctx context.Context, id int64) (*Listing, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Listing, error) {
	return s.repo.List(ctx)
}

// ListActive returns the listings whose sale window contains the current time.
func (s *Service) ListActive(ctx context.Context) ([]*Listing, error) {
	return s.repo.ListActive(ctx, s.now().UTC())
}

// ListActiveByProduct returns active listings that include an item of the product.
func (s *Service) ListActiveByProduct(ctx context.Context, productID int64) ([]*Listing, error) {
	ok, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return s.repo.ListActiveByProduct(ctx, productID, s.now().UTC())
}

// ListItems returns the items currently associated with the listing.
func (s *Service) ListItems(ctx context.Context, listingID int64) ([]*item.Item, error) {
	if _, err := s.repo.GetByID(ctx, listingID); err != nil {
		return nil, err
	}
	return s.repo.ListItems(ctx, listingID)
}

// Update replaces every field of a listing. The owner never changes.
func (s *Service) Update(ctx context.Context, caller *access.Caller, id int64, fields Fields) (*Listing, error) {
	return lifecycle.Run(ctx, lifecycle.Mutation[*Listing]{
		Operation: "listing.update",
		Caller:    caller,
		Privilege: access.RequireOwner,
		Validate:  s.validate(fields),
		Locate:    s.locate(id),
		Apply: func(ctx context.Context) (*Listing, error) {
			return s.repo.Update(ctx, id, fields.Params())
		},
	})
}

// Delete removes the listing together with its item associations.
func (s *Service) Delete(ctx context.Context, caller *access.Caller, id int64) error {
	_, err := lifecycle.Run(ctx, lifecycle.Mutation[struct{}]{
		Operation: "listing.delete",
		Caller:    caller,
		Privilege: access.RequireOwner,
		Locate:    s.locate(id),
		Apply: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.repo.Delete(ctx, id)
		},
	})
	return err
}

// ReplaceItems makes refs the complete association set of the listing.
// Duplicate ids collapse to one association and an empty set detaches every
// item. Ids that do not reference an item fail the request as malformed and
// leave the previous set in place.
func (s *Service) ReplaceItems(ctx context.Context, caller *access.Caller, listingID int64, refs ItemRefs) error {
	_, err := lifecycle.Run(ctx, lifecycle.Mutation[struct{}]{
		Operation: "listing.replace_items",
		Caller:    caller,
		Privilege: access.RequireOwner,
		Validate: func(ctx context.Context) (validation.Result, error) {
			return validation.Validate(ctx, validation.KindListing, refs)
		},
		Locate: s.locate(listingID),
		Apply: func(ctx context.Context) (struct{}, error) {
			err := s.repo.ReplaceItems(ctx, listingID, refs.IDs())
			var unknown *UnknownItemsError
			if errors.As(err, &unknown) {
				return struct{}{}, unknown.Validation()
			}
			return struct{}{}, err
		},
	})
	return err
}

func (s *Service) validate(fields Fields) func(context.Context) (validation.Result, error) {
	return func(ctx context.Context) (validation.Result, error) {
		return validation.Validate(ctx, validation.KindListing, fields)
	}
}

func (s *Service) locate(id int64) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		l, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return l.OwnerID, nil
	}
}
