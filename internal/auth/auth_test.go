package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/settleup/internal/errs"
	"github.com/mmynk/settleup/internal/models"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	m.users[user.Email] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[email], nil
}

func newTestAuthenticator() *PasswordAuthenticator {
	a := NewPasswordAuthenticator(&memoryUsers{})
	a.cost = bcrypt.MinCost
	return a
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthenticator()

	user, err := a.Register(ctx, "  Alice@Example.com ", "Alice", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash == "correct-horse" {
		t.Error("Password stored in clear text")
	}

	got, err := a.Authenticate(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, got.ID)
	}

	if _, err := a.Register(ctx, "alice@example.com", "Alice 2", "another-secret"); !errors.Is(err, ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got %v", err)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthenticator()
	if _, err := a.Register(ctx, "bob@example.com", "Bob", "password123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "bob@example.com", "password124"},
		{"unknown email", "carol@example.com", "password123"},
		{"malformed email", "not-an-email", "password123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Authenticate(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthenticator()

	tests := []struct {
		name, email, displayName, password string
	}{
		{"weak password", "dan@example.com", "Dan", "short"},
		{"bad email", "dan", "Dan", "password123"},
		{"missing display name", "dan@example.com", " ", "password123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.email, tt.displayName, tt.password)
			if !errors.Is(err, errs.ErrInvalidInput) {
				t.Errorf("Expected invalid input, got %v", err)
			}
		})
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	user := &models.User{ID: "u1", Email: "u1@example.com"}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID() != "u1" || claims.Email != "u1@example.com" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	user := &models.User{ID: "u1", Email: "u1@example.com"}

	t.Run("expired", func(t *testing.T) {
		token, err := m.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		later := &JWTManager{secretKey: m.secretKey, tokenDuration: time.Hour, now: func() time.Time {
			return time.Now().Add(2 * time.Hour)
		}}
		if _, err := later.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewJWTManager("fedcba9876543210fedcba9876543210", time.Hour)
		token, err := other.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, Subject: "u1"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("SignedString failed: %v", err)
		}
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})
}
