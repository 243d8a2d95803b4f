package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/models"
)

type signupRequest struct {
	Name  string `validate:"required,min=2"`
	Email string `validate:"required,email"`
	Role  string `validate:"required,oneof=leader manager"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(signupRequest{Name: "Ana", Email: "ana@acme.test", Role: "leader"}))

	err := ValidateStruct(signupRequest{Name: "A", Email: "nope", Role: "admin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must be at least 2 characters")
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "role must be one of leader manager")
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := &models.User{Role: models.RoleManager}
	user.ID = 12

	token, expires, err := issuer.Issue(user, "session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(12), claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "manager", claims.Role)

	_, err = NewTokenIssuer("other-secret", time.Hour).Parse(token)
	assert.Error(t, err)

	expired, _, err := NewTokenIssuer("test-secret", -time.Minute).Issue(user, "session-1")
	require.NoError(t, err)
	_, err = issuer.Parse(expired)
	assert.Error(t, err)

	unbound, _, err := issuer.Issue(user, "")
	require.NoError(t, err)
	_, err = issuer.Parse(unbound)
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestValidateEmailFormat(t *testing.T) {
	assert.NoError(t, ValidateEmail("ana@acme.test", false))
	assert.Error(t, ValidateEmail("ana.acme.test", false))
	assert.Equal(t, "ana@acme.test", NormalizeEmail("  Ana@ACME.test "))
}

func TestParseUint(t *testing.T) {
	assert.Equal(t, uint(42), ParseUint("42"))
	assert.Zero(t, ParseUint("-1"))
	assert.Zero(t, ParseUint("abc"))
}
