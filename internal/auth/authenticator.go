// Package auth handles user credentials and session tokens.
package auth

import (
	"context"

	"github.com/mmynk/settleup/internal/models"
)

// Authenticator registers and verifies users. The credential format depends
// on the implementation.
type Authenticator interface {
	// Register creates an account for email. Returns ErrEmailExists if the
	// email is taken.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user owning email if credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks a credential before it is stored.
	ValidateCredential(credential string) error
}
