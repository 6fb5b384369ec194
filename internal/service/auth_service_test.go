package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/plantpal-service/internal/auth"
	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/events"
	"github.com/spec-kit/plantpal-service/internal/testutil"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

func newAuthService(t *testing.T) (*AuthService, *testutil.MemoryUsers, *auth.TokenManager, events.Dispatcher) {
	t.Helper()
	users := testutil.NewMemoryUsers()
	tokens := auth.NewTokenManager("svc-secret", 2*time.Hour)
	dispatcher := events.NewInMemoryDispatcher(nil)
	return NewAuthService(users, tokens, bcrypt.MinCost, dispatcher, zap.NewNop()), users, tokens, dispatcher
}

func TestAuthService_RegisterIssuesUserToken(t *testing.T) {
	svc, users, tokens, dispatcher := newAuthService(t)

	var registered []events.Event
	dispatcher.Subscribe(events.EventUserRegistered, func(_ context.Context, e events.Event) error {
		registered = append(registered, e)
		return nil
	})

	result, err := svc.Register(context.Background(), " fern ", "Fern@Example.com", "hunter22")
	require.NoError(t, err)

	identity, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, identity.SubjectID)
	assert.Equal(t, domain.RoleUser, identity.Role)

	stored, err := users.GetByID(context.Background(), result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "fern", stored.Username)
	assert.Equal(t, "fern@example.com", stored.Email)
	assert.NotEqual(t, "hunter22", stored.PasswordHash)
	require.Len(t, registered, 1)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), "a", "dup@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "b", "DUP@example.com", "secret2")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _, _, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), "", "not-an-email", "")
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	details := apperrors.ToDomainError(err).Details
	assert.Contains(t, details, "username")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestAuthService_Login(t *testing.T) {
	svc, _, tokens, _ := newAuthService(t)
	reg, err := svc.Register(context.Background(), "moss", "moss@example.com", "greenthumb")
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "moss@example.com", "greenthumb")
	require.NoError(t, err)
	identity, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, identity.SubjectID)

	_, err = svc.Login(context.Background(), "moss@example.com", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))

	_, err = svc.Login(context.Background(), "nobody@example.com", "greenthumb")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
}

func TestAuthService_LoginKeepsAdminRole(t *testing.T) {
	svc, users, tokens, _ := newAuthService(t)
	hash, err := auth.HashPassword("rootroot", bcrypt.MinCost)
	require.NoError(t, err)
	users.Put(domain.User{ID: "admin-1", Username: "root", Email: "root@example.com", PasswordHash: hash, Role: domain.RoleAdmin})

	result, err := svc.Login(context.Background(), "root@example.com", "rootroot")
	require.NoError(t, err)
	identity, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())
}

func TestAuthService_CurrentUser(t *testing.T) {
	svc, users, _, _ := newAuthService(t)
	users.Put(domain.User{ID: "u1", Username: "ivy"})

	user, err := svc.CurrentUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ivy", user.Username)

	_, err = svc.CurrentUser(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	users.Err = errors.New("db down")
	_, err = svc.CurrentUser(context.Background(), "u1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}
