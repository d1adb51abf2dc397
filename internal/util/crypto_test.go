package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)

	other, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestRandomCode(t *testing.T) {
	code, err := RandomCode(5)
	require.NoError(t, err)
	assert.Len(t, code, 5)
	for _, r := range code {
		assert.Contains(t, codeAlphabet, string(r))
	}
}
