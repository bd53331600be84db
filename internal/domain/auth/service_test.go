package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/appctx"
)

func hash(t *testing.T, secret string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(
		Config{
			AdminSecretHash: hash(t, "admin-secret"),
			StaffSecretHash: hash(t, "staff-secret"),
		},
		NewJWTService(DefaultJWTConfig("test-signing-key")),
	)
}

func TestVerifyAdminSecret(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Verify(context.Background(), "admin-secret")
	require.NoError(t, err)
	assert.Equal(t, appctx.RoleAdmin, res.Role)
	assert.NotEmpty(t, res.Token)
}

func TestVerifyStaffSecret(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Verify(context.Background(), "staff-secret")
	require.NoError(t, err)
	assert.Equal(t, appctx.RoleStaff, res.Role)
}

func TestVerifyWrongSecret(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Verify(context.Background(), "nope")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestVerifyEmptySecret(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Verify(context.Background(), "")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Verify(context.Background(), "admin-secret")
	require.NoError(t, err)

	actor, err := NewJWTService(DefaultJWTConfig("test-signing-key")).ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, appctx.RoleAdmin, actor.Role)
}

func TestTokenWrongKeyRejected(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Verify(context.Background(), "admin-secret")
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("other-key")).ValidateToken(res.Token)
	require.Error(t, err)
}
