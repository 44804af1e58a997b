package http

import (
	"testing"

	"github.com/jmehdipour/api-portal/internal/config"
	"github.com/jmehdipour/api-portal/internal/security"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewServerRejectsWeakSecret(t *testing.T) {
	for _, secret := range []string{"", "change-me"} {
		var cfg config.Config
		cfg.Auth.JWTSecret = secret

		srv, err := NewServer(cfg, nil, nil, nil, nil, zap.NewNop())
		require.Error(t, err, secret)
		require.Nil(t, srv)
	}

	var cfg config.Config
	cfg.Auth.JWTSecret = "short"
	_, err := NewServer(cfg, nil, nil, nil, nil, zap.NewNop())
	require.ErrorIs(t, err, security.ErrWeakSecret)
}
