package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	id := uuid.New()
	token, err := CreateToken("test-secret", id, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	gotID, gotName, err := VerifyToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, "alice", gotName)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := CreateToken("secret-a", uuid.New(), "bob")
	require.NoError(t, err)

	_, _, err = VerifyToken("secret-b", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	_, _, err := VerifyToken("secret", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "hunter2"))
	assert.Error(t, CheckPassword(hash, "hunter3"))
}
