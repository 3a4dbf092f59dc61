package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/univ-archive/internal/dto"
	"github.com/noah-isme/univ-archive/internal/models"
	appErrors "github.com/noah-isme/univ-archive/pkg/errors"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	svc, err := NewAuthService(nil, zap.NewNop(), AuthConfig{PasswordHash: string(hash), TokenSecret: "jwt-secret", TokenTTL: time.Hour})
	require.NoError(t, err)
	return svc
}

func TestAuthServiceLoginIssuesToken(t *testing.T) {
	svc := newTestAuthService(t)

	session, err := svc.Login(context.Background(), dto.LoginRequest{Password: "s3cret", IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), session.ExpiresIn)
	assert.NotEmpty(t, session.Token)

	claims, err := svc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "admin", claims.Subject)
}

func TestAuthServiceLoginRejectsWrongPassword(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Password: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Equal(t, "mot de passe incorrect", appErrors.FromError(err).Message)

	_, err = svc.Login(context.Background(), dto.LoginRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceTokenExpires(t *testing.T) {
	svc := newTestAuthService(t)
	session, err := svc.Login(context.Background(), dto.LoginRequest{Password: "s3cret"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(session.Token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestNewAuthServiceConfiguration(t *testing.T) {
	_, err := NewAuthService(nil, nil, AuthConfig{Password: "x"})
	assert.Error(t, err)

	_, err = NewAuthService(nil, nil, AuthConfig{TokenSecret: "k"})
	assert.Error(t, err)

	_, err = NewAuthService(nil, nil, AuthConfig{TokenSecret: "k", PasswordHash: "not-bcrypt"})
	assert.Error(t, err)

	svc, err := NewAuthService(nil, nil, AuthConfig{TokenSecret: "k", Password: "plain"})
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), dto.LoginRequest{Password: "plain"})
	assert.NoError(t, err)
}
