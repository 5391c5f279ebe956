package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAdminService(t *testing.T, password string) *AdminService {
	t.Helper()
	cfg := testConfig()
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		cfg.AdminPasswordHash = string(hash)
	}
	return NewAdminService(cfg, logging.Nop())
}

func TestAdminService_LoginAndAuthenticate(t *testing.T) {
	s := newAdminService(t, "correct horse")

	tok, err := s.Login(context.Background(), "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), tok.ExpiresAt, 5*time.Second)

	require.NoError(t, s.Authenticate(tok.AccessToken))
}

func TestAdminService_LoginRefused(t *testing.T) {
	s := newAdminService(t, "correct horse")
	_, err := s.Login(context.Background(), "wrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	noHash := newAdminService(t, "")
	_, err = noHash.Login(context.Background(), "")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestAdminService_AuthenticateRejects(t *testing.T) {
	s := newAdminService(t, "pw")

	require.ErrorIs(t, s.Authenticate("garbage"), common.ErrorUnauthorized)

	other, _, err := auth.GenerateToken("visitor", []byte("k"), time.Hour)
	require.NoError(t, err)
	require.ErrorIs(t, s.Authenticate(other), common.ErrorUnauthorized)

	expired, _, err := auth.GenerateToken(common.AdminSubject, []byte("k"), -time.Minute)
	require.NoError(t, err)
	require.ErrorIs(t, s.Authenticate(expired), common.ErrTokenExpired)

	foreign, _, err := auth.GenerateToken(common.AdminSubject, []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	require.ErrorIs(t, s.Authenticate(foreign), common.ErrorUnauthorized)
}
