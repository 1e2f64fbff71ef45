package common

import (
	"bytes"
	"testing"
)

func TestRandomBytes(t *testing.T) {
	for _, n := range []int{0, 16, 32} {
		buf, err := RandomBytes(n)
		if err != nil {
			t.Fatalf("RandomBytes(%d): %v", n, err)
		}
		if len(buf) != n {
			t.Fatalf("RandomBytes(%d): got %d bytes", n, len(buf))
		}
	}

	a, _ := RandomBytes(32)
	b, _ := RandomBytes(32)
	if bytes.Equal(a, b) {
		t.Logf("warning: two 32-byte salts are identical; extremely unlikely")
	}
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte("s3cret")
	WipeByteArray(buf)
	if !bytes.Equal(buf, make([]byte, 6)) {
		t.Fatalf("buffer not wiped: %v", buf)
	}

	// nil и пустой срез не паникуют
	WipeByteArray(nil)
	WipeByteArray([]byte{})
}
