package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	for _, pw := range []string{"pw123456", "", "příliš žluťoučký kůň", strings.Repeat("x", 200)} {
		hash, err := h.Hash(pw)
		require.NoError(t, err)
		assert.True(t, h.Verify(hash, pw), "password %q should verify against its own hash", pw)
		assert.NotEqual(t, pw, hash)
	}
}

func TestVerifyRejectsOtherPassword(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("pw123456")
	require.NoError(t, err)
	assert.False(t, h.Verify(hash, "pw123457"))
}

func TestHashSaltUniqueness(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	first, err := h.Hash("pw123456")
	require.NoError(t, err)
	second, err := h.Hash("pw123456")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

// Raw bcrypt ignores everything past 72 bytes, so two long passwords sharing
// a 72-byte prefix would collide. The SHA-256 pre-digest must keep them apart.
func TestLongPasswordsNotTruncated(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	prefix := strings.Repeat("a", 72)
	hash, err := h.Hash(prefix + "tail-one")
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, prefix+"tail-one"))
	assert.False(t, h.Verify(hash, prefix+"tail-two"))
}

func TestVerifyMalformedHashReturnsFalse(t *testing.T) {
	h := BcryptHasher{}
	assert.False(t, h.Verify("", "pw123456"))
	assert.False(t, h.Verify("not-a-bcrypt-hash", "pw123456"))
}

func TestHashDefaultCost(t *testing.T) {
	h := BcryptHasher{}
	hash, err := h.Hash("pw123456")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
