package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmehdipour/api-portal/internal/metrics"
	"github.com/jmehdipour/api-portal/internal/model"
	"github.com/jmehdipour/api-portal/internal/security"
)

const TokenTypeBearer = "bearer"

// ErrInvalidCredentials covers both an unknown email and a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

type ClientFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.Client, error)
}

type PasswordVerifier interface {
	Verify(plaintext, hash string) bool
}

type TokenIssuer interface {
	Issue(ctx context.Context, subject string) (string, error)
}

// Result is a successful login.
type Result struct {
	AccessToken string
	TokenType   string
	Client      model.Client
}

// Service authenticates clients by email and password.
type Service struct {
	clients  ClientFinder
	verifier PasswordVerifier
	issuer   TokenIssuer

	dummyHash string
}

// New constructs the auth service.
func New(clients ClientFinder, verifier PasswordVerifier, issuer TokenIssuer) *Service {
	return &Service{
		clients:   clients,
		verifier:  verifier,
		issuer:    issuer,
		dummyHash: security.DummyHash(),
	}
}

// Login looks up the client, checks the password and mints a token whose
// subject is the client id. Credential failures return ErrInvalidCredentials;
// every other error is an internal fault.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	res, err := s.login(ctx, email, password)
	switch {
	case err == nil:
		metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	case errors.Is(err, ErrInvalidCredentials):
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
	default:
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
	}
	return res, err
}

func (s *Service) login(ctx context.Context, email, password string) (*Result, error) {
	client, err := s.clients.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}

	if client == nil {
		// burn a comparison so unknown emails take as long as wrong passwords
		_ = s.verifier.Verify(password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}

	if !s.verifier.Verify(password, client.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(ctx, client.ClientID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if client.AllowedAPIs == nil {
		client.AllowedAPIs = []string{}
	}

	return &Result{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		Client:      *client,
	}, nil
}
