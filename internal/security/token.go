package security

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the shortest HS256 signing key accepted, in bytes.
const MinSecretLen = 32

var (
	// ErrEmptySecret is returned when an issuer is built without a signing key.
	ErrEmptySecret = errors.New("security: empty jwt secret")
	ErrWeakSecret  = fmt.Errorf("security: jwt secret must be at least %d bytes", MinSecretLen)
)

// HS256Issuer mints HMAC-SHA256 signed access tokens.
type HS256Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewHS256Issuer(secret, issuer string, ttl time.Duration) (*HS256Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &HS256Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token whose subject is the given client id.
func (i *HS256Issuer) Issue(_ context.Context, subject string) (string, error) {
	if subject == "" {
		return "", errors.New("security: empty token subject")
	}
	now := i.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		ID:        newJTI(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func newJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
