package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndValidate(t *testing.T) {
	v := New("test-signing-key")

	token, err := v.Mint("citizen-42", time.Minute)
	require.NoError(t, err)

	claims, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "citizen-42", claims.UserID)
}

func TestValidate_WrongKey(t *testing.T) {
	token, err := New("key-a").Mint("citizen-42", time.Minute)
	require.NoError(t, err)

	_, err = New("key-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidate_Expired(t *testing.T) {
	v := New("test-signing-key")
	token, err := v.Mint("citizen-42", -time.Minute)
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidate_Garbage(t *testing.T) {
	_, err := New("test-signing-key").ValidateToken("not-a-token")
	assert.Error(t, err)
}
