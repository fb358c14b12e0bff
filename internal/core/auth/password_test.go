package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashIsSaltedAndVerifiable(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	a, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	b, err := h.Hash("s3cret-pass")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "s3cret-pass")
	assert.True(t, h.Verify("s3cret-pass", a))
	assert.True(t, h.Verify("s3cret-pass", b))
}

func TestPasswordHasher_SingleCharMutation(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	pw := "Tr0ub4dor&3"
	digest, err := h.Hash(pw)
	require.NoError(t, err)

	for i := 0; i < len(pw); i++ {
		mutated := []byte(pw)
		mutated[i]++
		assert.False(t, h.Verify(string(mutated), digest), "position %d", i)
	}
	assert.False(t, h.Verify(pw+"x", digest))
	assert.False(t, h.Verify(pw[:len(pw)-1], digest))
}

func TestPasswordHasher_MalformedDigestIsJustFalse(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	assert.False(t, h.Verify("whatever", ""))
	assert.False(t, h.Verify("whatever", "not-a-bcrypt-hash"))
}

func TestPasswordHasher_EmptyAndCost(t *testing.T) {
	h := NewPasswordHasher(99)
	assert.Equal(t, bcrypt.DefaultCost, h.Cost)

	_, err := h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}
