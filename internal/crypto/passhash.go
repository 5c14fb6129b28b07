// Package crypto implements server-side password/secret hashing, verification and user id issuing.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// Params holds Argon2id cost settings.
type Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultParams are tuned for server-side hashing (64 MB, 3 passes).
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 1, KeyLen: 32}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Hash returns the Argon2id hash of plaintext using the provided salt.
func (p Params) Hash(plaintext, salt []byte) []byte {
	return argon2.IDKey(plaintext, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// Verify reports whether plaintext hashes to expected under salt.
func (p Params) Verify(plaintext, salt, expected []byte) bool {
	got := p.Hash(plaintext, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}
