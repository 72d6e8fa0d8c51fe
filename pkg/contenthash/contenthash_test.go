package contenthash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	alg, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, SHA256, alg)

	alg, err = Parse("keccak256")
	require.NoError(t, err)
	assert.Equal(t, Keccak256, alg)

	_, err = Parse("md5")
	require.Error(t, err)
}

func TestSum_KnownVectors(t *testing.T) {
	// sha256("abc") and keccak256("abc") reference values.
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Sum(SHA256, []byte("abc")))
	assert.Equal(t,
		"4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
		Sum(Keccak256, []byte("abc")))
}

func TestSum_Deterministic(t *testing.T) {
	content := []byte("cheti cha kuzaliwa")
	assert.Equal(t, Sum(SHA256, content), Sum(SHA256, content))
	assert.NotEqual(t, Sum(SHA256, content), Sum(Keccak256, content))
}
