package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	user := NewUser("alice@example.com", "hash")
	user.ID = 42
	user.IsAdmin = true
	user.CompanyIDs = []int64{1, 3}

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", uc.UserID)
	assert.Equal(t, "alice@example.com", uc.Email)
	assert.Equal(t, []int64{1, 3}, uc.CompanyIDs)
	assert.True(t, uc.IsAdmin)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret-a"))
	user := NewUser("bob@example.com", "hash")
	user.ID = 7

	token, _, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	other := NewJWTService(DefaultJWTConfig("secret-b"))
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	user := NewUser("carol@example.com", "hash")
	user.ID = 9

	token, _, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestUserLockout(t *testing.T) {
	user := NewUser("dave@example.com", "hash")

	for i := 0; i < 5; i++ {
		assert.NoError(t, user.CanLogin())
		user.RecordFailedLogin(5, 15*time.Minute)
	}

	assert.True(t, user.IsLocked())
	assert.Error(t, user.CanLogin())

	user.RecordSuccessfulLogin()
	assert.False(t, user.IsLocked())
	assert.NoError(t, user.CanLogin())
}
