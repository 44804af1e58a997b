package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmehdipour/api-portal/internal/model"
	"github.com/stretchr/testify/require"
)

type fakeClients struct {
	byEmail map[string]*model.Client
	err     error
}

func (f *fakeClients) FindByEmail(_ context.Context, email string) (*model.Client, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// plainVerifier treats "hash:<pw>" as the hash of <pw>.
type plainVerifier struct{ calls []string }

func (v *plainVerifier) Verify(plaintext, hash string) bool {
	v.calls = append(v.calls, hash)
	return hash == "hash:"+plaintext
}

type fakeIssuer struct {
	subjects []string
	err      error
}

func (f *fakeIssuer) Issue(_ context.Context, subject string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.subjects = append(f.subjects, subject)
	return "token-for-" + subject, nil
}

func newTestService() (*Service, *fakeClients, *plainVerifier, *fakeIssuer) {
	clients := &fakeClients{byEmail: map[string]*model.Client{
		"acme@example.com": {
			ClientID:     "c-1",
			Name:         "Acme",
			Email:        "acme@example.com",
			PasswordHash: "hash:correct",
			CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			IsActive:     true,
			AllowedAPIs:  []string{"auth", "media"},
		},
		"solo@example.com": {
			ClientID:     "c-2",
			Email:        "solo@example.com",
			PasswordHash: "hash:pw",
		},
	}}
	verifier := &plainVerifier{}
	issuer := &fakeIssuer{}
	return New(clients, verifier, issuer), clients, verifier, issuer
}

func TestLoginSuccess(t *testing.T) {
	svc, _, _, issuer := newTestService()

	res, err := svc.Login(context.Background(), "acme@example.com", "correct")
	require.NoError(t, err)
	require.Equal(t, "token-for-c-1", res.AccessToken)
	require.Equal(t, TokenTypeBearer, res.TokenType)
	require.Equal(t, "c-1", res.Client.ClientID)
	require.Equal(t, []string{"auth", "media"}, res.Client.AllowedAPIs)
	require.Equal(t, []string{"c-1"}, issuer.subjects)
}

func TestLoginNoGrantsYieldsEmptySlice(t *testing.T) {
	svc, _, _, _ := newTestService()

	res, err := svc.Login(context.Background(), "solo@example.com", "pw")
	require.NoError(t, err)
	require.NotNil(t, res.Client.AllowedAPIs)
	require.Empty(t, res.Client.AllowedAPIs)
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Run("unknown email", func(t *testing.T) {
		svc, _, verifier, issuer := newTestService()

		_, err := svc.Login(context.Background(), "ghost@example.com", "correct")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		require.Empty(t, issuer.subjects)
		// a comparison still happens, against the dummy hash
		require.Equal(t, []string{svc.dummyHash}, verifier.calls)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, _, issuer := newTestService()

		_, err := svc.Login(context.Background(), "acme@example.com", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		require.Empty(t, issuer.subjects)
	})
}

func TestLoginInternalFaults(t *testing.T) {
	t.Run("storage error", func(t *testing.T) {
		svc, clients, _, _ := newTestService()
		clients.err = errors.New("mysql: connection refused")

		_, err := svc.Login(context.Background(), "acme@example.com", "correct")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrInvalidCredentials)
		require.ErrorIs(t, err, clients.err)
	})

	t.Run("issuer error", func(t *testing.T) {
		svc, _, _, issuer := newTestService()
		issuer.err = errors.New("signing key unavailable")

		_, err := svc.Login(context.Background(), "acme@example.com", "correct")
		require.ErrorIs(t, err, issuer.err)
		require.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}
