package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/errs"
	"github.com/mmynk/settleup/internal/middleware"
)

var errUnauthenticated = errors.New("authentication required")

// toConnectError classifies err by the sentinel it wraps.
func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}
	return connect.NewError(codeFor(err), err)
}

func codeFor(err error) connect.Code {
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		return connect.CodeAlreadyExists
	case errors.Is(err, auth.ErrInvalidCredentials):
		return connect.CodeUnauthenticated
	case errors.Is(err, errs.ErrInvalidInput):
		return connect.CodeInvalidArgument
	case errors.Is(err, errs.ErrContactNotFound), errors.Is(err, errs.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, errs.ErrNoAccessPermission):
		return connect.CodePermissionDenied
	case errors.Is(err, errs.ErrInvalidStateTransition):
		return connect.CodeFailedPrecondition
	case errors.Is(err, errs.ErrExternalService):
		return connect.CodeUnavailable
	default:
		return connect.CodeInternal
	}
}

// callerID returns the authenticated user or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	return userID, nil
}

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// parseAmount parses a money amount in whole currency units. Thousands
// separators and surrounding spaces are accepted; fractions are not.
func parseAmount(field, raw string) (int64, error) {
	d, err := decimal.NewFromString(normalizeAmount(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", calculator.ErrInvalidAmount, field, raw)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: %s %q", calculator.ErrInvalidAmount, field, raw)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %s %q must be a whole amount", errs.ErrInvalidInput, field, raw)
	}
	if d.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %s %q is too large", errs.ErrInvalidInput, field, raw)
	}
	return d.IntPart(), nil
}

func normalizeAmount(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
}
