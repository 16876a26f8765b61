package item

import (
	"context"
	"fmt"

	"marketplace/internal/domain/lifecycle"
	"marketplace/internal/domain/validation"
)

var ErrItemNotFound = fmt.Errorf("item %w", lifecycle.ErrNotFound)

// Item is a physical instance of a product, owned by the user who created it.
type Item struct {
	ID        int64  `json:"id"`
	Condition string `json:"condition"`
	ProductID int64  `json:"productId"`
	OwnerID   int64  `json:"ownerId"`
}

// ProductChecker answers whether a product exists.
type ProductChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Fields is the submitted body of a create or update request.
type Fields struct {
	Condition *string `json:"condition"`
	ProductID *int64  `json:"productId"`
}

// Validator binds the fields to the product lookup used by the productId rule.
func (f Fields) Validator(products ProductChecker) validation.Validator {
	return fieldsValidator{fields: f, products: products}
}

type fieldsValidator struct {
	fields   Fields
	products ProductChecker
}

func (v fieldsValidator) Validate(ctx context.Context) (validation.Result, error) {
	c := validation.NewChecker(validation.KindItem)
	c.RequiredString("condition", v.fields.Condition)
	if c.RequiredID("productId", v.fields.ProductID) {
		ok, err := v.products.Exists(ctx, *v.fields.ProductID)
		if err != nil {
			return validation.Result{}, fmt.Errorf("failed to check product %d: %w", *v.fields.ProductID, err)
		}
		if !ok {
			c.Add("productId", validation.ReasonUnknownReference,
				fmt.Sprintf("productId %d does not reference an existing product", *v.fields.ProductID))
		}
	}
	return c.Result(), nil
}

// Params returns the validated values. Call only after validation succeeded.
func (f Fields) Params() Params {
	p := Params{}
	if f.Condition != nil {
		p.Condition = *f.Condition
	}
	if f.ProductID != nil {
		p.ProductID = *f.ProductID
	}
	return p
}

// Params are the mutable stored values of an item.
type Params struct {
	Condition string
	ProductID int64
}
