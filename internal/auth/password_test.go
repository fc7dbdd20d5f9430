package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cre!to")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cre!to", hash)

	assert.True(t, CheckPassword(hash, "s3cre!to"))
	assert.False(t, CheckPassword(hash, "otra-clave"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "s3cre!to"))
}

func TestPasswordHashesAreSalted(t *testing.T) {
	first, err := HashPassword("misma-clave")
	require.NoError(t, err)
	second, err := HashPassword("misma-clave")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
