package validation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrMalformedRequest is matched by every *Error so callers can classify
// validation failures with errors.Is.
var ErrMalformedRequest = errors.New("malformed request")

// Kind identifies the entity a field set belongs to.
type Kind string

const (
	KindProduct Kind = "product"
	KindItem    Kind = "item"
	KindListing Kind = "listing"

	// KindCredentials is a sign-in body.
	KindCredentials Kind = "credentials"
)

// Reason is a machine-checkable cause attached to a field error.
type Reason string

const (
	ReasonRequired         Reason = "required"
	ReasonTooLong          Reason = "too_long"
	ReasonNegative         Reason = "negative"
	ReasonPrecision        Reason = "precision"
	ReasonOutOfRange       Reason = "out_of_range"
	ReasonInvalidRange     Reason = "invalid_range"
	ReasonUnknownReference Reason = "unknown_reference"
	ReasonInvalid          Reason = "invalid"
)

// FieldError describes one violated rule.
type FieldError struct {
	Field   string `json:"field"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// Result is the outcome of validating a field set. A Result with no errors is valid.
type Result struct {
	Kind   Kind
	Errors []FieldError
}

// Valid reports whether no rule was violated.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns nil for a valid result and an *Error otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &Error{Kind: r.Kind, Fields: r.Errors}
}

// Error carries every field error of a rejected request.
type Error struct {
	Kind   Kind
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	if e.Kind == "" {
		return "invalid request: " + strings.Join(parts, "; ")
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *Error) Is(target error) bool {
	return target == ErrMalformedRequest
}

// Invalid builds an *Error for a single field.
func Invalid(kind Kind, field string, reason Reason, message string) *Error {
	return &Error{Kind: kind, Fields: []FieldError{{Field: field, Reason: reason, Message: message}}}
}

// Validator is implemented by the field sets of each entity kind.
type Validator interface {
	Validate(ctx context.Context) (Result, error)
}

// Validate runs v and stamps kind on the result. The returned error is only
// non-nil when a lookup needed by a cross-entity rule failed.
func Validate(ctx context.Context, kind Kind, v Validator) (Result, error) {
	res, err := v.Validate(ctx)
	if err != nil {
		return Result{Kind: kind}, err
	}
	res.Kind = kind
	return res, nil
}

// Checker accumulates field errors. Checks never stop at the first failure.
type Checker struct {
	kind   Kind
	errors []FieldError
}

func NewChecker(kind Kind) *Checker {
	return &Checker{kind: kind}
}

// Add records a field error.
func (c *Checker) Add(field string, reason Reason, message string) {
	c.errors = append(c.errors, FieldError{Field: field, Reason: reason, Message: message})
}

// RequiredString fails when s is missing or blank. It returns true when the value is usable.
func (c *Checker) RequiredString(field string, s *string) bool {
	if s == nil || strings.TrimSpace(*s) == "" {
		c.Add(field, ReasonRequired, field+" is required")
		return false
	}
	return true
}

// MaxLength fails when s has more than max characters. Missing values pass.
func (c *Checker) MaxLength(field string, s *string, max int) {
	if s == nil {
		return
	}
	if utf8.RuneCountInString(*s) > max {
		c.Add(field, ReasonTooLong, fmt.Sprintf("%s must be %d characters or less", field, max))
	}
}

// RequiredID fails when id is missing or not positive.
func (c *Checker) RequiredID(field string, id *int64) bool {
	if id == nil {
		c.Add(field, ReasonRequired, field+" is required")
		return false
	}
	if *id <= 0 {
		c.Add(field, ReasonInvalid, field+" must be a positive id")
		return false
	}
	return true
}

// RequiredTime fails when t is missing or zero.
func (c *Checker) RequiredTime(field string, t *time.Time) bool {
	if t == nil || t.IsZero() {
		c.Add(field, ReasonRequired, field+" is required")
		return false
	}
	return true
}

// Money checks a required non-negative amount with at most two decimal places
// that fits a NUMERIC(18,2) column.
func (c *Checker) Money(field string, v *float64) {
	if v == nil {
		c.Add(field, ReasonRequired, field+" is required")
		return
	}
	amount := *v
	switch {
	case math.IsNaN(amount) || math.IsInf(amount, 0):
		c.Add(field, ReasonInvalid, field+" must be a number")
	case amount < 0:
		c.Add(field, ReasonNegative, field+" must not be negative")
	case amount >= 1e16:
		c.Add(field, ReasonOutOfRange, field+" is too large")
	case !hasTwoDecimals(amount):
		c.Add(field, ReasonPrecision, field+" must have at most two decimal places")
	}
}

// Before fails when start is not strictly before end. The error is reported on endField.
func (c *Checker) Before(endField string, start, end time.Time) {
	if !start.Before(end) {
		c.Add(endField, ReasonInvalidRange, endField+" must be after the start time")
	}
}

// Result returns the accumulated outcome.
func (c *Checker) Result() Result {
	return Result{Kind: c.kind, Errors: c.errors}
}

func hasTwoDecimals(v float64) bool {
	cents := v * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}
