package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/auth"
	"github.com/dmitrijs2005/ashdiag/internal/server/config"
	"golang.org/x/crypto/bcrypt"
)

// AdminToken is a signed operator access token.
type AdminToken struct {
	AccessToken string
	ExpiresAt   time.Time
}

// AdminService authenticates the single operator account against a bcrypt
// hash from configuration and issues JWT access tokens.
type AdminService struct {
	passwordHash []byte
	jwtSecret    []byte
	validity     time.Duration
	log          logging.Logger
}

func NewAdminService(cfg *config.Config, log logging.Logger) *AdminService {
	return &AdminService{
		passwordHash: []byte(cfg.AdminPasswordHash),
		jwtSecret:    []byte(cfg.SecretKey),
		validity:     cfg.AdminTokenValidity,
		log:          log.With("module", "admin"),
	}
}

// Login checks password and returns a token. Without a configured hash every
// login is refused.
func (s *AdminService) Login(ctx context.Context, password string) (*AdminToken, error) {
	if len(s.passwordHash) == 0 {
		return nil, common.ErrorUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		s.log.Warn(ctx, "admin login refused")
		return nil, common.ErrorUnauthorized
	}

	token, exp, err := auth.GenerateToken(common.AdminSubject, s.jwtSecret, s.validity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	s.log.Info(ctx, "admin logged in", "expires_at", exp)
	return &AdminToken{AccessToken: token, ExpiresAt: exp}, nil
}

// Authenticate validates an access token issued by Login.
func (s *AdminService) Authenticate(token string) error {
	sub, err := auth.GetSubjectFromToken(token, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return common.ErrorUnauthorized
	}
	if sub != common.AdminSubject {
		return common.ErrorUnauthorized
	}
	return nil
}
