package listing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/domain/lifecycle"
	"marketplace/internal/domain/validation"
)

var ErrListingNotFound = fmt.Errorf("listing %w", lifecycle.ErrNotFound)

// Listing is a time-bounded sale posting owned by the user who created it.
type Listing struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	StartUTC    time.Time `json:"startUtc"`
	EndUTC      time.Time `json:"endUtc"`
	OwnerID     int64     `json:"ownerId"`
}

// IsActive reports whether now falls inside [StartUTC, EndUTC).
func (l *Listing) IsActive(now time.Time) bool {
	return !now.Before(l.StartUTC) && now.Before(l.EndUTC)
}

// Fields is the submitted body of a create or update request.
type Fields struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Price       *float64   `json:"price"`
	StartUTC    *time.Time `json:"startUtc"`
	EndUTC      *time.Time `json:"endUtc"`
}

func (f Fields) Validate(ctx context.Context) (validation.Result, error) {
	c := validation.NewChecker(validation.KindListing)
	c.RequiredString("name", f.Name)
	c.RequiredString("description", f.Description)
	c.Money("price", f.Price)
	hasStart := c.RequiredTime("startUtc", f.StartUTC)
	hasEnd := c.RequiredTime("endUtc", f.EndUTC)
	if hasStart && hasEnd {
		c.Before("endUtc", storedTime(*f.StartUTC), storedTime(*f.EndUTC))
	}
	return c.Result(), nil
}

// Params returns the validated values normalized to UTC microseconds. Call only after
// Validate succeeded.
func (f Fields) Params() Params {
	var p Params
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	if f.StartUTC != nil {
		p.StartUTC = storedTime(*f.StartUTC)
	}
	if f.EndUTC != nil {
		p.EndUTC = storedTime(*f.EndUTC)
	}
	return p
}

// storedTime is t as every store keeps it: UTC at microsecond precision,
// the resolution of a TIMESTAMPTZ column.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Params are the mutable stored values of a listing.
type Params struct {
	Name        string
	Description string
	Price       float64
	StartUTC    time.Time
	EndUTC      time.Time
}

// ItemRef is one element of a replace-items body.
type ItemRef struct {
	ID *int64 `json:"id"`
}

// ItemRefs is the full association set submitted for a listing.
type ItemRefs []ItemRef

func (refs ItemRefs) Validate(ctx context.Context) (validation.Result, error) {
	c := validation.NewChecker(validation.KindListing)
	for i, ref := range refs {
		c.RequiredID(fmt.Sprintf("items[%d].id", i), ref.ID)
	}
	return c.Result(), nil
}

// IDs returns the referenced ids with duplicates removed, keeping the first
// occurrence of each. Call only after Validate succeeded.
func (refs ItemRefs) IDs() []int64 {
	seen := make(map[int64]bool, len(refs))
	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		if ref.ID == nil || seen[*ref.ID] {
			continue
		}
		seen[*ref.ID] = true
		ids = append(ids, *ref.ID)
	}
	return ids
}

// UnknownItemsError is returned by the store when a replace names items that
// do not exist. The association set is left unchanged.
type UnknownItemsError struct {
	IDs []int64
}

func (e *UnknownItemsError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return "unknown items: " + strings.Join(ids, ", ")
}

// Validation converts the error into a field-level validation failure.
func (e *UnknownItemsError) Validation() *validation.Error {
	verr := &validation.Error{Kind: validation.KindListing}
	for _, id := range e.IDs {
		verr.Fields = append(verr.Fields, validation.FieldError{
			Field:   "items",
			Reason:  validation.ReasonUnknownReference,
			Message: fmt.Sprintf("item %d does not exist", id),
		})
	}
	return verr
}
