package utils

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAuthKey(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{64}$`)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		key, err := GenerateAuthKey()
		require.NoError(t, err)
		assert.Regexp(t, pattern, key)
		assert.False(t, seen[key], "auth key collided")
		seen[key] = true
	}
}

func TestGenerateToken_RoundTrip(t *testing.T) {
	secret := "test-secret"
	tokenString, err := GenerateToken(42, "alice", "alice@example.com", secret, "go-modelhub", time.Hour)
	require.NoError(t, err)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "go-modelhub", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestGenerateToken_WrongSecretRejected(t *testing.T) {
	tokenString, err := GenerateToken(1, "bob", "bob@example.com", "right-secret", "go-modelhub", time.Hour)
	require.NoError(t, err)

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	})
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong-pass", hash))
}
