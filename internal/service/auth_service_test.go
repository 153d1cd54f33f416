package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/pkg/api"
)

func withBearer[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func TestRegisterAndLogin(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	reg, err := s.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       "Alice@Example.com",
		DisplayName: "Alice",
		Password:    "correct horse",
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Msg.Token)
	assert.Equal(t, "alice@example.com", reg.Msg.User.Email)
	assert.False(t, reg.Msg.User.MessengerLinked)

	_, err = s.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "alice@example.com", DisplayName: "Again", Password: "correct horse",
	}))
	assertCode(t, err, connect.CodeAlreadyExists)

	login, err := s.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "alice@example.com", Password: "correct horse"}))
	require.NoError(t, err)
	assert.Equal(t, reg.Msg.User.ID, login.Msg.User.ID)

	claims, err := s.jwt.Validate(login.Msg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.Msg.User.ID, claims.UserID())

	_, err = s.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "alice@example.com", Password: "wrong password"}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = s.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "nobody@example.com", Password: "whatever1"}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestRegister_Validation(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name string
		req  *api.RegisterRequest
	}{
		{"short password", &api.RegisterRequest{Email: "a@example.com", DisplayName: "A", Password: "short"}},
		{"bad email", &api.RegisterRequest{Email: "not-an-email", DisplayName: "A", Password: "long enough"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.auth.Register(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, err, connect.CodeInvalidArgument)
		})
	}
}

func TestProfile(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	reg, err := s.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "bob@example.com", DisplayName: "Bob", Password: "long enough",
	}))
	require.NoError(t, err)
	token := reg.Msg.Token

	_, err = s.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	me, err := s.auth.GetCurrentUser(ctx, withBearer(token, &api.GetCurrentUserRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "Bob", me.Msg.User.DisplayName)

	suffix, msgToken := " FX9999 ", "kakao-token"
	updated, err := s.auth.UpdateProfile(ctx, withBearer(token, &api.UpdateProfileRequest{
		PaySuffix:      &suffix,
		MessengerToken: &msgToken,
	}))
	require.NoError(t, err)
	assert.Equal(t, "FX9999", updated.Msg.User.PaySuffix)
	assert.True(t, updated.Msg.User.MessengerLinked)
	assert.Equal(t, "Bob", updated.Msg.User.DisplayName)

	stored, err := s.store.GetUserByID(ctx, reg.Msg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "kakao-token", stored.MessengerToken)

	blank := ""
	_, err = s.auth.UpdateProfile(ctx, withBearer(token, &api.UpdateProfileRequest{DisplayName: &blank}))
	assertCode(t, err, connect.CodeInvalidArgument)
}
