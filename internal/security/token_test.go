package security

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewHS256IssuerRequiresSecret(t *testing.T) {
	_, err := NewHS256Issuer("", "portal", time.Minute)
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestNewHS256IssuerRejectsShortSecret(t *testing.T) {
	for _, secret := range []string{"change-me", "s3cret", testSecret[:MinSecretLen-1]} {
		_, err := NewHS256Issuer(secret, "portal", time.Minute)
		require.ErrorIs(t, err, ErrWeakSecret, secret)
	}

	_, err := NewHS256Issuer(testSecret, "portal", time.Minute)
	require.NoError(t, err)
}

func TestIssueSignsSubject(t *testing.T) {
	iss, err := NewHS256Issuer(testSecret, "api-portal", 10*time.Minute)
	require.NoError(t, err)

	fixed := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return fixed }

	raw, err := iss.Issue(context.Background(), "client-42")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return fixed.Add(time.Minute) }),
	)
	require.NoError(t, err)

	require.Equal(t, "client-42", claims.Subject)
	require.Equal(t, "api-portal", claims.Issuer)
	require.Equal(t, fixed.Add(10*time.Minute), claims.ExpiresAt.Time.UTC())
	require.NotEmpty(t, claims.ID)
}

func TestIssueRejectsEmptySubject(t *testing.T) {
	iss, err := NewHS256Issuer(testSecret, "api-portal", time.Minute)
	require.NoError(t, err)

	_, err = iss.Issue(context.Background(), "")
	require.Error(t, err)
}

func TestIssueUniqueTokenIDs(t *testing.T) {
	iss, err := NewHS256Issuer(testSecret, "", 0)
	require.NoError(t, err)

	a, err := iss.Issue(context.Background(), "c")
	require.NoError(t, err)
	b, err := iss.Issue(context.Background(), "c")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
