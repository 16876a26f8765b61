package validation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }
func int64Ptr(i int64) *int64 { return &i }
func timePtr(t time.Time) *time.Time { return &t }

func TestChecker_RequiredString(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  bool
	}{
		{name: "missing", value: nil, want: false},
		{name: "empty", value: strPtr(""), want: false},
		{name: "blank", value: strPtr("   "), want: false},
		{name: "present", value: strPtr("a"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(KindProduct)
			got := c.RequiredString("name", tt.value)
			if got != tt.want {
				t.Errorf("RequiredString() = %v, want %v", got, tt.want)
			}
			res := c.Result()
			if res.Valid() != tt.want {
				t.Errorf("Valid() = %v, want %v", res.Valid(), tt.want)
			}
			if !tt.want && res.Errors[0].Reason != ReasonRequired {
				t.Errorf("Reason = %q, want %q", res.Errors[0].Reason, ReasonRequired)
			}
		})
	}
}

func TestChecker_MaxLengthCountsCharacters(t *testing.T) {
	c := NewChecker(KindProduct)
	// 120 multi-byte characters is within the limit even though it is more than 120 bytes.
	c.MaxLength("name", strPtr(strings.Repeat("é", 120)), 120)
	if !c.Result().Valid() {
		t.Fatalf("expected 120 runes to be valid, got %v", c.Result().Errors)
	}

	c.MaxLength("name", strPtr(strings.Repeat("a", 121)), 120)
	res := c.Result()
	if res.Valid() {
		t.Fatal("expected 121 characters to be rejected")
	}
	if res.Errors[0].Reason != ReasonTooLong {
		t.Errorf("Reason = %q, want %q", res.Errors[0].Reason, ReasonTooLong)
	}
}

func TestChecker_Money(t *testing.T) {
	tests := []struct {
		name   string
		value  *float64
		reason Reason
	}{
		{name: "missing", value: nil, reason: ReasonRequired},
		{name: "negative", value: floatPtr(-0.01), reason: ReasonNegative},
		{name: "three decimals", value: floatPtr(1.005), reason: ReasonPrecision},
		{name: "too large", value: floatPtr(1e17), reason: ReasonOutOfRange},
		{name: "zero", value: floatPtr(0)},
		{name: "whole", value: floatPtr(999)},
		{name: "cents", value: floatPtr(19.99)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(KindListing)
			c.Money("price", tt.value)
			res := c.Result()
			if tt.reason == "" {
				if !res.Valid() {
					t.Errorf("expected valid, got %v", res.Errors)
				}
				return
			}
			if res.Valid() {
				t.Fatalf("expected reason %q, got valid", tt.reason)
			}
			if res.Errors[0].Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", res.Errors[0].Reason, tt.reason)
			}
		})
	}
}

func TestChecker_Before(t *testing.T) {
	now := time.Now()

	c := NewChecker(KindListing)
	c.Before("endUtc", now, now)
	if c.Result().Valid() {
		t.Error("equal start and end must be rejected")
	}

	c = NewChecker(KindListing)
	c.Before("endUtc", now.Add(time.Hour), now)
	if c.Result().Valid() {
		t.Error("start after end must be rejected")
	}

	c = NewChecker(KindListing)
	c.Before("endUtc", now, now.Add(time.Nanosecond))
	if !c.Result().Valid() {
		t.Error("start before end must be accepted")
	}
}

func TestChecker_CollectsEveryField(t *testing.T) {
	c := NewChecker(KindListing)
	c.RequiredString("name", nil)
	c.RequiredString("description", strPtr(""))
	c.Money("price", nil)
	c.RequiredTime("startUtc", nil)
	c.RequiredTime("endUtc", timePtr(time.Time{}))
	c.RequiredID("productId", int64Ptr(0))

	res := c.Result()
	if len(res.Errors) != 6 {
		t.Fatalf("len(Errors) = %d, want 6: %v", len(res.Errors), res.Errors)
	}
	wantFields := []string{"name", "description", "price", "startUtc", "endUtc", "productId"}
	for i, f := range wantFields {
		if res.Errors[i].Field != f {
			t.Errorf("Errors[%d].Field = %q, want %q", i, res.Errors[i].Field, f)
		}
	}
}

func TestResult_Err(t *testing.T) {
	if err := (Result{Kind: KindItem}).Err(); err != nil {
		t.Errorf("valid Result.Err() = %v, want nil", err)
	}

	res := Result{Kind: KindItem, Errors: []FieldError{{Field: "condition", Reason: ReasonRequired, Message: "condition is required"}}}
	err := res.Err()
	if !errors.Is(err, ErrMalformedRequest) {
		t.Errorf("errors.Is(err, ErrMalformedRequest) = false for %v", err)
	}
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatal("errors.As(*Error) failed")
	}
	if verr.Kind != KindItem || len(verr.Fields) != 1 {
		t.Errorf("unexpected error payload: %+v", verr)
	}
	if got := err.Error(); got != "invalid item: condition: condition is required" {
		t.Errorf("Error() = %q", got)
	}
}

type stubValidator struct {
	res Result
	err error
}

func (s stubValidator) Validate(ctx context.Context) (Result, error) {
	return s.res, s.err
}

func TestValidate_StampsKind(t *testing.T) {
	res, err := Validate(context.Background(), KindProduct, stubValidator{res: Result{Errors: []FieldError{{Field: "name"}}}})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.Kind != KindProduct {
		t.Errorf("Kind = %q, want %q", res.Kind, KindProduct)
	}

	lookupErr := errors.New("db down")
	_, err = Validate(context.Background(), KindItem, stubValidator{err: lookupErr})
	if !errors.Is(err, lookupErr) {
		t.Errorf("Validate() error = %v, want %v", err, lookupErr)
	}
}
