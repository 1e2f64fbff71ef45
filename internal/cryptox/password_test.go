package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_Format(t *testing.T) {
	h := HashPassword(AlgSHA256, "secret1", "salt-1")

	sum := sha256.Sum256([]byte("secret1:salt-1"))
	assert.Equal(t, "sha256$salt-1$"+hex.EncodeToString(sum[:]), h)
}

func TestHashPassword_Base64Fallback(t *testing.T) {
	h := HashPassword(AlgBase64, "secret1", "s")
	assert.Equal(t, "b64$s$"+base64.StdEncoding.EncodeToString([]byte("secret1:s")), h)
}

func TestHashPassword_UnavailableAlgorithmFallsBack(t *testing.T) {
	require.False(t, Available("md5"))

	h := HashPassword("md5", "secret1", "s")
	assert.True(t, strings.HasPrefix(h, AlgBase64+"$s$"))

	ok, err := VerifyPassword(h, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPassword_RoundTrip(t *testing.T) {
	for _, alg := range []string{AlgSHA256, AlgArgon2ID, AlgBase64} {
		t.Run(alg, func(t *testing.T) {
			require.True(t, Available(alg))
			h := HashPassword(alg, "correct horse", "2b1f8a5e")

			ok, err := VerifyPassword(h, "correct horse")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = VerifyPassword(h, "wrong horse")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerifyPassword_UnknownTag(t *testing.T) {
	_, err := VerifyPassword("md5$salt$abcdef", "pw")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	_, err := VerifyPassword("no-dollars-here", "pw")
	require.ErrorIs(t, err, ErrMalformedHash)
}

func TestVerifyPassword_SaltWithColon(t *testing.T) {
	h := HashPassword(AlgArgon2ID, "pw:with:colons", "a:b")
	ok, err := VerifyPassword(h, "pw:with:colons")
	require.NoError(t, err)
	assert.True(t, ok)
}
