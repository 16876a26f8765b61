package product

import (
	"context"
	"fmt"

	"marketplace/internal/domain/lifecycle"
	"marketplace/internal/domain/validation"
)

const MaxNameLength = 120

var ErrProductNotFound = fmt.Errorf("product %w", lifecycle.ErrNotFound)

// Product is a catalog entry. Products have no owner.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Fields is the submitted body of a create or update request.
type Fields struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (f Fields) Validate(ctx context.Context) (validation.Result, error) {
	c := validation.NewChecker(validation.KindProduct)
	if c.RequiredString("name", f.Name) {
		c.MaxLength("name", f.Name, MaxNameLength)
	}
	c.RequiredString("description", f.Description)
	return c.Result(), nil
}

// Params returns the validated values. Call only after Validate succeeded.
func (f Fields) Params() Params {
	return Params{Name: deref(f.Name), Description: deref(f.Description)}
}

// Params are the stored values of a product.
type Params struct {
	Name        string
	Description string
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
