package common

import (
	"crypto/rand"
	"fmt"
)

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("random bytes: %w", err)
	}
	return buf, nil
}

// WipeByteArray zeroes buf in place. Secrets read from the terminal and
// derived keys go through it once they are no longer needed.
func WipeByteArray(buf []byte) {
	clear(buf)
}
