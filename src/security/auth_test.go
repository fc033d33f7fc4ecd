package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuthService(testSecret)

	token, err := auth.GenerateToken("bureau@gset.fr", time.Hour)
	require.NoError(t, err)

	sub, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bureau@gset.fr", sub)
}

func TestValidateTokenRejects(t *testing.T) {
	auth := NewAuthService(testSecret)

	expired, err := auth.GenerateToken("bureau@gset.fr", -time.Minute)
	require.NoError(t, err)
	_, err = auth.ValidateToken(expired)
	assert.Error(t, err)

	other, err := NewAuthService("another-secret-another-secret-xx").GenerateToken("bureau@gset.fr", time.Hour)
	require.NoError(t, err)
	_, err = auth.ValidateToken(other)
	assert.Error(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.ValidateToken(noExp)
	assert.Error(t, err, "tokens without expiry are refused")

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.ValidateToken(noSub)
	assert.Error(t, err)

	_, err = NewAuthService("").ValidateToken(other)
	assert.Error(t, err)
}
