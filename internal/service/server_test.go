package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/messenger"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/settlement"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

const testUserHeader = "X-Test-User"

// testAuthInterceptor trusts the user ID in testUserHeader.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if id := req.Header().Get(testUserHeader); id != "" {
				ctx = middleware.WithUser(ctx, id, "")
			}
			return next(ctx, req)
		}
	}
}

// as builds a request sent on behalf of userID.
func as[T any](userID string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if userID != "" {
		req.Header().Set(testUserHeader, userID)
	}
	return req
}

type recordingNotifier struct {
	mu      sync.Mutex
	sent    []*messenger.Message
	sendErr error
}

func (n *recordingNotifier) ResolveHandle(_ context.Context, _, targetUserID string) (string, error) {
	return "handle-" + targetUserID, nil
}

func (n *recordingNotifier) Send(_ context.Context, _, _ string, message *messenger.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, message)
	return nil
}

func (n *recordingNotifier) failWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sendErr = err
}

func (n *recordingNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type testServer struct {
	store       *sqlite.SQLiteStore
	notifier    *recordingNotifier
	jwt         *auth.JWTManager
	auth        *apiconnect.AuthServiceClient
	groups      *apiconnect.GroupServiceClient
	expenses    *apiconnect.ExpenseServiceClient
	settlements *apiconnect.SettlementServiceClient
}

// setupTestServer serves all services over httptest backed by a temp SQLite file.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	templates, err := messenger.NewTemplates("ko", "원", "")
	if err != nil {
		t.Fatalf("failed to create templates: %v", err)
	}
	notifier := &recordingNotifier{}
	manager := settlement.NewManager(store, notifier, templates, "")
	jwtManager := auth.NewJWTManager("test-secret-test-secret-test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	interceptors := connect.WithInterceptors(testAuthInterceptor())
	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(
		NewAuthService(authenticator, jwtManager, store, logger),
		connect.WithInterceptors(middleware.OptionalAuth(jwtManager), testAuthInterceptor()),
	))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(store), interceptors))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(store, manager), interceptors))
	mux.Handle(apiconnect.NewSettlementServiceHandler(NewSettlementService(store, manager), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testServer{
		store:       store,
		notifier:    notifier,
		jwt:         jwtManager,
		auth:        apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:      apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses:    apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL),
		settlements: apiconnect.NewSettlementServiceClient(http.DefaultClient, server.URL),
	}
}

// createUser stores a user directly, bypassing registration.
func (s *testServer) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	u := models.NewUser(name+"@example.com", name, "hash")
	if err := s.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return u
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}
