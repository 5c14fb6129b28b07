package crypto

import (
	"errors"

	"github.com/gofrs/uuid/v5"
)

const saltLen = 16

// Protector hashes user credentials and issues user identifiers.
type Protector struct {
	params Params
}

// NewProtector constructs a Protector; zero-valued params fall back to DefaultParams.
func NewProtector(p Params) *Protector {
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 || p.KeyLen == 0 {
		p = DefaultParams
	}
	return &Protector{params: p}
}

// HashAndSalt hashes plaintext with a fresh random salt and returns both.
func (p *Protector) HashAndSalt(plaintext string) (hash, salt []byte, err error) {
	if plaintext == "" {
		return nil, nil, errors.New("empty plaintext")
	}
	salt, err = RandBytes(saltLen)
	if err != nil {
		return nil, nil, err
	}
	return p.params.Hash([]byte(plaintext), salt), salt, nil
}

// Verify checks plaintext against a stored hash/salt pair.
func (p *Protector) Verify(plaintext string, hash, salt []byte) bool {
	return p.params.Verify([]byte(plaintext), salt, hash)
}

// NewUniqueID returns a random (V4) UUID string.
func (p *Protector) NewUniqueID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
