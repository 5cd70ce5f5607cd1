// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattgrid/marketplace-api/internal/config"
)

func testHasher(memory uint32) *PasswordHasher {
	return NewPasswordHasher(config.PasswordConfig{
		Memory:      memory,
		Iterations:  1,
		Parallelism: 1,
		KeyLength:   32,
		SaltLength:  16,
	})
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := testHasher(8 * 1024)

	hash, err := h.Hash("correct horse battery")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, err := h.Verify("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_BadFormat(t *testing.T) {
	h := testHasher(8 * 1024)

	for _, encoded := range []string{
		"$bcrypt$nope",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=16$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5",
	} {
		_, err := h.Verify("x", encoded)
		assert.ErrorIs(t, err, ErrInvalidPasswordHash, encoded)
	}
}

func TestVerifyTimingSafe_MissingHash(t *testing.T) {
	h := testHasher(8 * 1024)
	empty := ""

	for _, encoded := range []*string{nil, &empty} {
		ok, rehash, err := h.VerifyTimingSafe("anything", encoded)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, rehash)
	}
}

func TestVerifyTimingSafe_CurrentParams(t *testing.T) {
	h := testHasher(8 * 1024)
	hash, err := h.Hash("pw-12345678")
	require.NoError(t, err)

	ok, rehash, err := h.VerifyTimingSafe("pw-12345678", &hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rehash)

	ok, rehash, err = h.VerifyTimingSafe("wrong-password", &hash)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehash)
}

func TestVerifyTimingSafe_RehashesOnParamChange(t *testing.T) {
	old := testHasher(8 * 1024)
	hash, err := old.Hash("pw-12345678")
	require.NoError(t, err)

	current := testHasher(16 * 1024)
	ok, rehash, err := current.VerifyTimingSafe("pw-12345678", &hash)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, rehash)
	assert.Contains(t, rehash, "$m=16384,t=1,p=1$")

	ok, err = current.Verify("pw-12345678", rehash)
	require.NoError(t, err)
	assert.True(t, ok)
}
