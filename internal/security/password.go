package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// BcryptVerifier compares plaintext passwords with bcrypt hashes.
type BcryptVerifier struct{}

// Verify reports whether plaintext matches hash. Malformed hashes never match.
func (BcryptVerifier) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// HashPassword hashes a password with the given bcrypt cost (0 = default).
func HashPassword(plaintext string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if len(plaintext) > 72 {
		return "", errors.New("password longer than 72 bytes")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// DummyHash returns a bcrypt hash of a random secret. Comparing against it
// costs the same as a real comparison and never matches.
func DummyHash() string {
	dummyOnce.Do(func() {
		var b [24]byte
		_, _ = rand.Read(b[:])
		h, err := bcrypt.GenerateFromPassword([]byte(base64.RawStdEncoding.EncodeToString(b[:])), bcrypt.DefaultCost)
		if err == nil {
			dummyHash = string(h)
		}
	})
	return dummyHash
}
