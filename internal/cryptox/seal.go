package cryptox

import (
	"bytes"
	"errors"

	"github.com/dmitrijs2005/allergozyme/internal/common"
)

var sealMagic = []byte("AZS1")

const (
	sealSaltSize  = 16
	sealNonceSize = 12
)

// ErrSealed is returned by Open for blobs that are not sealed envelopes or
// that do not decrypt under the given passphrase.
var ErrSealed = errors.New("cannot open sealed document")

// Seal encrypts plaintext under a key derived from passphrase. The layout
// is magic | salt | nonce | ciphertext.
func Seal(plaintext, passphrase []byte) ([]byte, error) {
	salt, err := common.RandomBytes(sealSaltSize)
	if err != nil {
		return nil, err
	}
	key := DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	ct, nonce, err := encrypt(plaintext, key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(sealMagic)+len(salt)+len(nonce)+len(ct))
	out = append(out, sealMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return append(out, ct...), nil
}

// Open reverses Seal.
func Open(blob, passphrase []byte) ([]byte, error) {
	header := len(sealMagic) + sealSaltSize + sealNonceSize
	if len(blob) < header || !bytes.Equal(blob[:len(sealMagic)], sealMagic) {
		return nil, ErrSealed
	}
	salt := blob[len(sealMagic) : len(sealMagic)+sealSaltSize]
	nonce := blob[len(sealMagic)+sealSaltSize : header]

	key := DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	pt, err := decrypt(blob[header:], nonce, key)
	if err != nil {
		return nil, ErrSealed
	}
	return pt, nil
}

// IsSealed reports whether blob starts like a sealed envelope.
func IsSealed(blob []byte) bool {
	return bytes.HasPrefix(blob, sealMagic)
}
