// Package services contains server-side business logic: the attempt limiter,
// key, session and diagnostic services, the redemption flow that ties them
// together, and admin authentication.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/config"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/attempts"
)

// Decision is the outcome of AttemptLimiter.Check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// AttemptLimiter counts failed verifications per fingerprint and locks a
// fingerprint out for a fixed duration once the count reaches maxAttempts.
// Stale counters are dropped lazily when touched.
type AttemptLimiter struct {
	repo        attempts.Repository
	maxAttempts int
	lockout     time.Duration
	window      time.Duration
	log         logging.Logger
}

func NewAttemptLimiter(repo attempts.Repository, cfg *config.Config, log logging.Logger) *AttemptLimiter {
	return &AttemptLimiter{
		repo:        repo,
		maxAttempts: cfg.MaxFailedAttempts,
		lockout:     cfg.LockoutDuration,
		window:      cfg.AttemptWindow,
		log:         log.With("module", "limiter"),
	}
}

// Fingerprint derives the limiter key for a client attempting keyValue. The
// same client trying different keys gets separate counters.
func Fingerprint(ip, userAgent, keyValue string) string {
	sum := sha256.Sum256([]byte(ip + userAgent + keyValue))
	return hex.EncodeToString(sum[:])
}

// Check reports whether fp may attempt a verification at now.
func (l *AttemptLimiter) Check(ctx context.Context, fp string, now time.Time) (Decision, error) {
	c, err := l.load(ctx, fp, now)
	if err != nil {
		return Decision{}, err
	}
	if c != nil && c.LockedUntil != nil {
		return Decision{Allowed: false, RetryAfter: c.LockedUntil.Sub(now)}, nil
	}
	return Decision{Allowed: true}, nil
}

// RecordFailure counts one failed verification for fp and starts the lockout
// when the threshold is reached.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, fp string, now time.Time) error {
	c, err := l.load(ctx, fp, now)
	if err != nil {
		return err
	}
	if c == nil {
		c = &models.AttemptCounter{Fingerprint: fp, FirstAttempt: now}
	}
	c.Count++
	c.LastAttempt = now
	if c.Count >= l.maxAttempts && c.LockedUntil == nil {
		until := now.Add(l.lockout)
		c.LockedUntil = &until
		l.log.Warn(ctx, "fingerprint locked", "fingerprint", fp, "count", c.Count, "locked_until", until)
	}
	return l.repo.Put(ctx, c)
}

// RecordSuccess clears any counter held for fp.
func (l *AttemptLimiter) RecordSuccess(ctx context.Context, fp string) error {
	return l.repo.Delete(ctx, fp)
}

// load returns the live counter for fp, or nil when there is none. Counters
// whose lockout elapsed, or whose window passed without a lockout, are
// deleted on the way.
func (l *AttemptLimiter) load(ctx context.Context, fp string, now time.Time) (*models.AttemptCounter, error) {
	c, err := l.repo.Get(ctx, fp)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}

	stale := false
	if c.LockedUntil != nil {
		stale = !now.Before(*c.LockedUntil)
	} else {
		stale = now.Sub(c.FirstAttempt) > l.window
	}
	if !stale {
		return c, nil
	}

	if err := l.repo.Delete(ctx, fp); err != nil {
		return nil, err
	}
	return nil, nil
}
