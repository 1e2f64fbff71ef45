package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Password digest algorithms. The tag is the first segment of a stored
// hash: "<alg>$<salt>$<digest>".
const (
	AlgSHA256   = "sha256"
	AlgArgon2ID = "argon2id"
	AlgBase64   = "b64"
)

// ErrUnknownAlgorithm is returned for hashes tagged with an algorithm this
// build does not know.
var ErrUnknownAlgorithm = errors.New("unknown password hash algorithm")

// ErrMalformedHash is returned for stored hashes that are not of the
// "<alg>$<salt>$<digest>" form.
var ErrMalformedHash = errors.New("malformed password hash")

type digestFunc func(password, salt string) string

// digesters maps a tag to its digest. b64 is not a hash; it only exists
// for environments without the others and for older stored accounts.
var digesters = map[string]digestFunc{
	AlgSHA256: func(password, salt string) string {
		sum := sha256.Sum256([]byte(password + ":" + salt))
		return hex.EncodeToString(sum[:])
	},
	AlgArgon2ID: func(password, salt string) string {
		return hex.EncodeToString(argon2.IDKey([]byte(password+":"+salt), []byte(salt), 1, 64*1024, 4, 32))
	},
	AlgBase64: func(password, salt string) string {
		return base64.StdEncoding.EncodeToString([]byte(password + ":" + salt))
	},
}

// Available reports whether alg can be used to hash new passwords.
func Available(alg string) bool {
	_, ok := digesters[alg]
	return ok
}

// HashPassword digests password+":"+salt with alg and returns the tagged
// hash. An unavailable alg falls back to b64; the tag records what was
// actually used.
func HashPassword(alg, password, salt string) string {
	d, ok := digesters[alg]
	if !ok {
		alg, d = AlgBase64, digesters[AlgBase64]
	}
	return alg + "$" + salt + "$" + d(password, salt)
}

// VerifyPassword checks password against a stored tagged hash.
func VerifyPassword(stored, password string) (bool, error) {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return false, ErrMalformedHash
	}
	d, ok := digesters[parts[0]]
	if !ok {
		return false, ErrUnknownAlgorithm
	}
	want := d(password, parts[1])
	return subtle.ConstantTimeCompare([]byte(want), []byte(parts[2])) == 1, nil
}
