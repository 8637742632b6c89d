package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.NoError(t, VerifyPassword(hash, "s3cret!"))
	assert.Error(t, VerifyPassword(hash, "wrong"))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.EqualError(t, err, "password is empty")
}

func TestVerifyPassword_EmptyHash(t *testing.T) {
	assert.Error(t, VerifyPassword("", "anything"))
}
