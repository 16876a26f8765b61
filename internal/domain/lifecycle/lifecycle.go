package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"marketplace/internal/domain/access"
	"marketplace/internal/domain/validation"
)

// ErrNotFound is wrapped by every domain not-found error.
var ErrNotFound = errors.New("not found")

// Stage is a point in the mutation pipeline.
type Stage string

const (
	StageReceived   Stage = "received"
	StageValidated  Stage = "validated"
	StageLocated    Stage = "located"
	StageAuthorized Stage = "authorized"
	StageApplied    Stage = "applied"
)

// Outcome labels recorded per terminal state.
const (
	OutcomeApplied                = "applied"
	OutcomeMalformed              = "malformed_request"
	OutcomeRequiresAuthentication = "requires_authentication"
	OutcomeForbidden              = "forbidden"
	OutcomeNotFound               = "not_found"
	OutcomeCanceled               = "canceled"
	OutcomeError                  = "error"
)

var (
	meter               = otel.Meter("marketplace/lifecycle")
	mutationOutcomes, _ = meter.Int64Counter("marketplace.mutation.outcomes",
		metric.WithDescription("Terminal outcomes of mutating operations"),
	)
)

// Mutation describes one create, update, delete or replace request.
//
// Validate is nil when the request carries no body (delete). Locate is nil
// when there is no pre-existing target (create); otherwise it returns the
// owner of the target, or an error wrapping ErrNotFound.
type Mutation[T any] struct {
	Operation string
	Caller    *access.Caller
	Privilege access.Privilege
	Validate  func(ctx context.Context) (validation.Result, error)
	Locate    func(ctx context.Context) (ownerID int64, err error)
	Apply     func(ctx context.Context) (T, error)
}

// Run drives m through the pipeline and returns the value produced by Apply.
//
// The stages run in a fixed order: authentication and any target-independent
// role requirement first, then body validation, then target lookup, then the
// ownership check, and only then the mutation. A failure at any stage ends
// the request without reaching later stages.
func Run[T any](ctx context.Context, m Mutation[T]) (T, error) {
	var zero T

	v, stage, err := run(ctx, m)
	outcome := Outcome(err)
	mutationOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", m.Operation),
		attribute.String("outcome", outcome),
	))

	if err != nil {
		if outcome == OutcomeError || outcome == OutcomeCanceled {
			log.Printf("%s failed after stage %s: %v", m.Operation, stage, err)
		}
		return zero, err
	}
	return v, nil
}

func run[T any](ctx context.Context, m Mutation[T]) (T, Stage, error) {
	var zero T

	// Ownership can only be judged once the target is known, so an
	// owner-scoped operation first asks only for a session.
	upfront := m.Privilege
	if upfront == access.RequireOwner {
		upfront = access.RequireAuthenticated
	}
	if err := access.Authorize(m.Caller, 0, upfront).Err(); err != nil {
		return zero, StageReceived, err
	}

	if m.Validate != nil {
		res, err := m.Validate(ctx)
		if err != nil {
			return zero, StageReceived, fmt.Errorf("%s: validation lookup: %w", m.Operation, err)
		}
		if err := res.Err(); err != nil {
			return zero, StageReceived, err
		}
	}

	if m.Locate != nil {
		ownerID, err := m.Locate(ctx)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return zero, StageValidated, err
			}
			return zero, StageValidated, fmt.Errorf("%s: locate: %w", m.Operation, err)
		}
		if m.Privilege == access.RequireOwner {
			if err := access.Authorize(m.Caller, ownerID, access.RequireOwner).Err(); err != nil {
				return zero, StageLocated, err
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return zero, StageAuthorized, err
	}

	v, err := m.Apply(ctx)
	if err != nil {
		if Outcome(err) == OutcomeError {
			err = fmt.Errorf("%s: apply: %w", m.Operation, err)
		}
		return zero, StageAuthorized, err
	}
	return v, StageApplied, nil
}

// Outcome classifies a pipeline error into its metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, validation.ErrMalformedRequest):
		return OutcomeMalformed
	case errors.Is(err, access.ErrRequiresAuthentication):
		return OutcomeRequiresAuthentication
	case errors.Is(err, access.ErrForbidden):
		return OutcomeForbidden
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
