package service

import (
	"context"
	"testing"
	"time"

	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/repository"
	"go-inventory-procurement/internal/testutil"
	"go-inventory-procurement/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (AuthService, *eventRecorder, *model.User) {
	t.Helper()
	db := testutil.NewDB(t)
	events := &eventRecorder{}
	svc := NewAuthService(repository.NewUserRepo(db), jwt.NewManager("test-secret", time.Hour), events)
	user := testutil.User(t, db, "clerk@example.com", model.RoleUser)
	return svc, events, user
}

func TestLogin_SingleSession(t *testing.T) {
	svc, _, user := newAuth(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, " Clerk@Example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, first.User.ID)

	authed, err := svc.Authenticate(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	second, err := svc.Login(ctx, "clerk@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
	_, err = svc.Authenticate(ctx, second.Token)
	assert.NoError(t, err)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "clerk@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResetPassword(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "clerk@example.com", "secret123")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(ctx, "clerk@example.com", "secret123", "123"), ErrInvalidInput)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "clerk@example.com", "nope", "newsecret"), ErrWrongPassword)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "ghost@example.com", "secret123", "newsecret"), ErrNotFound)

	require.NoError(t, svc.ResetPassword(ctx, "clerk@example.com", "secret123", "newsecret"))
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced, "old sessions end with the old password")

	_, err = svc.Login(ctx, "clerk@example.com", "newsecret")
	assert.NoError(t, err)
}

func TestHeartbeat_PublishesPresence(t *testing.T) {
	svc, events, user := newAuth(t)
	require.NoError(t, svc.Heartbeat(context.Background(), user.ID))
	assert.Equal(t, 1, events.count("user_status_update"))
}
