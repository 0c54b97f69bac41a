package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
)

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate("user-1", "ramenlover", domain.RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ramenlover", claims.Username)
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestJWTManager_Validate_WrongSecret(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	other := NewJWTManager("other-secret", time.Hour)

	token, err := m.Generate("user-1", "ramenlover", domain.RoleUser)
	require.NoError(t, err)

	claims, err := other.Validate(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestJWTManager_Validate_Expired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)

	token, err := m.Generate("user-1", "ramenlover", domain.RoleUser)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestJWTManager_Validator_Adapts(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate("user-1", "ramenlover", domain.RoleAdmin)
	require.NoError(t, err)

	claims, err := m.Validator()(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}
