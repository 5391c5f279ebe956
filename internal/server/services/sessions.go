package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/config"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/sessions"
)

const sessionTokenBytes = 32

// newSessionToken is swapped in tests.
var newSessionToken = func() (string, error) {
	return common.MakeRandHexString(sessionTokenBytes)
}

// SessionService issues and redeems the one-shot session that sits between
// key verification and diagnostic submission. Callers never learn whether a
// token was unknown, expired or already consumed.
type SessionService struct {
	repo sessions.Repository
	ttl  time.Duration
	log  logging.Logger
}

func NewSessionService(repo sessions.Repository, cfg *config.Config, log logging.Logger) *SessionService {
	return &SessionService{
		repo: repo,
		ttl:  cfg.SessionTTL,
		log:  log.With("module", "sessions"),
	}
}

// Create issues a session for key. The expiry is fixed at creation.
func (s *SessionService) Create(ctx context.Context, key *models.Key, email string, rc models.RequestContext) (*models.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}

	sess := &models.Session{
		Token:     token,
		KeyID:     key.ID,
		KeyValue:  key.Value,
		Product:   key.Product,
		Email:     email,
		CreatedAt: rc.Now,
		ExpiresAt: rc.Now.Add(s.ttl),
		ClientIP:  rc.IP,
		UserAgent: rc.UserAgent,
	}
	if err := s.repo.Create(ctx, sess, rc.Now); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns the live session for token without consuming it.
func (s *SessionService) Get(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	sess, err := s.repo.Get(ctx, token, now)
	return sess, mapSessionErr(err)
}

// Consume fetches and deletes the session for token.
func (s *SessionService) Consume(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	sess, err := s.repo.Consume(ctx, token, now)
	return sess, mapSessionErr(err)
}

// Sweep deletes every session expired at now.
func (s *SessionService) Sweep(ctx context.Context, now time.Time) (int, error) {
	n, err := s.repo.Sweep(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info(ctx, "expired sessions swept", "removed", n)
	}
	return n, nil
}

func mapSessionErr(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrSessionInvalid
	}
	return err
}
