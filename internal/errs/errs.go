// Package errs holds the error taxonomy shared by the settlement core.
//
// Every failure surfaced to a caller wraps exactly one of the sentinels below,
// so handlers can classify it with errors.Is regardless of which layer produced it.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers malformed amounts and missing required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when an expense, allocation, group or user is absent.
	ErrNotFound = errors.New("not found")

	// ErrNoAccessPermission is returned when the caller is not allowed to see or
	// change an allocation.
	ErrNoAccessPermission = errors.New("no access permission")

	// ErrInvalidStateTransition is returned when an allocation is not in the
	// state an operation requires.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrExternalService is returned when the messaging provider is unreachable,
	// answers with a non-success status, or does not confirm delivery.
	ErrExternalService = errors.New("external service error")

	// ErrContactNotFound is returned when the debtor is not among the
	// creditor's messenger contacts.
	ErrContactNotFound = errors.New("contact not found")

	// ErrInternalConsistency is returned when derived amounts fail to reconcile.
	ErrInternalConsistency = errors.New("internal consistency error")
)

var (
	// ErrNoSettlement is returned when an allocation does not exist.
	ErrNoSettlement = fmt.Errorf("%w: settlement", ErrNotFound)

	// ErrUnknownParticipant is returned when an expense references a user that
	// does not exist.
	ErrUnknownParticipant = fmt.Errorf("%w: unknown participant", ErrInvalidInput)
)
