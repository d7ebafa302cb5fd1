package websocket

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth0JWTValidator_Implements_TokenValidator(t *testing.T) {
	var _ TokenValidator = (*Auth0JWTValidator)(nil)
}

func TestErrInvalidToken_Message(t *testing.T) {
	assert.Equal(t, "invalid token", ErrInvalidToken.Error())
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{}
	err := claims.Validate(context.Background())
	assert.NoError(t, err, "CustomClaims.Validate should return nil")
}

func TestNewAuth0JWTValidator_EmptyDomain(t *testing.T) {
	// Empty domain creates https:/// which is still a parseable URL
	validator, err := NewAuth0JWTValidator("", "audience")
	assert.NoError(t, err)
	assert.NotNil(t, validator)
}

func TestNewAuth0JWTValidator_Success(t *testing.T) {
	validator, err := NewAuth0JWTValidator("test.auth0.com", "https://api.ledgerly.app")
	require.NoError(t, err)
	assert.NotNil(t, validator.validator)
}

func TestAuth0JWTValidator_ValidateToken_InvalidJWT(t *testing.T) {
	validator, err := NewAuth0JWTValidator("test.auth0.com", "https://api.ledgerly.app")
	require.NoError(t, err)

	subject, err := validator.ValidateToken(context.Background(), "invalid-token")
	assert.Error(t, err)
	assert.Empty(t, subject)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
