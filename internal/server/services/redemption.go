package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/ashdiag/internal/buildinfo"
	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/keygen"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
	"github.com/dmitrijs2005/ashdiag/internal/server/notify"
	"github.com/dmitrijs2005/ashdiag/internal/server/scoring"
	"github.com/google/uuid"
)

// newDiagnosticID is swapped in tests.
var newDiagnosticID = func() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type VerifyRequest struct {
	Key     string
	Product string
	Email   string
}

type VerifyResult struct {
	Token            string
	ValidUntil       time.Time
	SessionExpiresAt time.Time
}

type SubmitRequest struct {
	Token      string
	Answers    []*int
	ClientInfo *models.ClientInfo
}

const maxClientInfoLen = 120

type SubmitResult struct {
	DiagnosticID   string
	NumericID      int64
	OverallAverage float64
	Status         models.Status
	Priority       models.Priority
	Notified       bool
}

// RedemptionService runs the visitor flow: a key is verified behind the
// attempt limiter and exchanged for a session, and the session is later
// exchanged for a scored diagnostic that consumes the key.
type RedemptionService struct {
	keys        *KeyService
	sessions    *SessionService
	diagnostics *DiagnosticService
	limiter     *AttemptLimiter
	notifier    notify.Notifier
	log         logging.Logger
}

func NewRedemptionService(keys *KeyService, sessions *SessionService, diagnostics *DiagnosticService,
	limiter *AttemptLimiter, notifier notify.Notifier, log logging.Logger) *RedemptionService {
	return &RedemptionService{
		keys:        keys,
		sessions:    sessions,
		diagnostics: diagnostics,
		limiter:     limiter,
		notifier:    notifier,
		log:         log.With("module", "redemption"),
	}
}

// VerifyKey checks req.Key and issues a session on success.
//
// Malformed input is rejected before the limiter is consulted and is not
// counted. Every rejection of a well-formed key counts as one failure for the
// caller's fingerprint.
func (s *RedemptionService) VerifyKey(ctx context.Context, req VerifyRequest, rc models.RequestContext) (*VerifyResult, error) {
	p, err := models.ParseProduct(req.Product)
	if err != nil {
		return nil, common.NewValidationError("product must be one of personas, empresas")
	}
	value := keygen.Normalize(req.Key)
	if !keygen.Valid(value, p) {
		return nil, common.NewValidationError("invalid key format")
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	fp := Fingerprint(rc.IP, rc.UserAgent, value)

	decision, err := s.limiter.Check(ctx, fp, rc.Now)
	if err != nil {
		s.log.Error(ctx, "limiter check failed", "fingerprint", fp, "error", err)
		return nil, err
	}
	if !decision.Allowed {
		s.log.Warn(ctx, "verification rate limited", "fingerprint", fp, "retry_after", decision.RetryAfter)
		return nil, &common.RateLimitError{RetryAfter: decision.RetryAfter}
	}

	key, err := s.keys.Verify(ctx, value, p, rc.Now)
	if err != nil {
		if isKeyRejection(err) {
			if ferr := s.limiter.RecordFailure(ctx, fp, rc.Now); ferr != nil {
				s.log.Error(ctx, "recording failed attempt", "fingerprint", fp, "error", ferr)
			}
			s.log.Warn(ctx, "verification rejected", "fingerprint", fp, "product", p, "reason", err.Error())
			return nil, err
		}
		s.log.Error(ctx, "verification failed", "fingerprint", fp, "error", err)
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, key, email, rc)
	if err != nil {
		s.log.Error(ctx, "session create failed", "key_id", key.ID, "error", err)
		return nil, err
	}
	if err := s.limiter.RecordSuccess(ctx, fp); err != nil {
		s.log.Error(ctx, "clearing attempt counter", "fingerprint", fp, "error", err)
	}

	s.log.Info(ctx, "key verified", "key_id", key.ID, "product", p, "fingerprint", fp)
	return &VerifyResult{
		Token:            sess.Token,
		ValidUntil:       key.ValidUntil,
		SessionExpiresAt: sess.ExpiresAt,
	}, nil
}

// SubmitDiagnostic scores the answers for the session behind req.Token,
// stores the diagnostic and consumes the key.
//
// Answers are validated before the session is consumed, so a rejected
// payload can be corrected and resent. When two submissions race for the
// same key the loser gets common.ErrKeyAlreadyUsed and its stored record is
// left without a back-reference from the key.
func (s *RedemptionService) SubmitDiagnostic(ctx context.Context, req SubmitRequest, rc models.RequestContext) (*SubmitResult, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, common.ErrSessionInvalid
	}

	sess, err := s.sessions.Get(ctx, token, rc.Now)
	if err != nil {
		return nil, err
	}
	if err := validateAnswers(req.Answers, sess.Product); err != nil {
		return nil, err
	}
	metadata, err := normalizeClientInfo(req.ClientInfo)
	if err != nil {
		return nil, err
	}

	sess, err = s.sessions.Consume(ctx, token, rc.Now)
	if err != nil {
		return nil, err
	}

	key, err := s.keys.GetByID(ctx, sess.KeyID)
	if err != nil {
		return nil, err
	}
	if key.Used {
		return nil, common.ErrKeyAlreadyUsed
	}

	res := scoring.Score(req.Answers, sess.Product)

	id, err := newDiagnosticID()
	if err != nil {
		return nil, common.ErrorInternal
	}

	stored, err := s.diagnostics.Append(ctx, &models.Diagnostic{
		ID:              id,
		CreatedAt:       rc.Now,
		Product:         sess.Product,
		ClientEmail:     sess.Email,
		KeyID:           key.ID,
		KeyValue:        key.Value,
		ClientIP:        rc.IP,
		UserAgent:       rc.UserAgent,
		RawAnswers:      req.Answers,
		DimensionScores: res.DimensionScores,
		OverallAverage:  res.OverallRounded(),
		Status:          res.Status,
		Priority:        res.Priority,
		Findings:        res.Findings,
		Recommendations: res.Recommendations,
		SystemVersion:   buildinfo.Version,
	})
	if err != nil {
		return nil, err
	}

	if err := s.keys.MarkUsed(ctx, key.ID, stored.ID, rc.Now, metadata); err != nil {
		if errors.Is(err, common.ErrKeyAlreadyUsed) {
			s.log.Warn(ctx, "key consumed by a concurrent submission", "key_id", key.ID, "diagnostic_id", stored.ID)
		}
		return nil, err
	}

	notified := true
	if err := s.notifier.Send(ctx, stored); err != nil {
		notified = false
		s.log.Error(ctx, "notification failed", "diagnostic_id", stored.ID, "error", err)
	}

	return &SubmitResult{
		DiagnosticID:   stored.ID,
		NumericID:      stored.NumericID,
		OverallAverage: stored.OverallAverage,
		Status:         stored.Status,
		Priority:       stored.Priority,
		Notified:       notified,
	}, nil
}

func isKeyRejection(err error) bool {
	return errors.Is(err, common.ErrKeyNotFound) ||
		errors.Is(err, common.ErrKeyAlreadyUsed) ||
		errors.Is(err, common.ErrKeyExpired) ||
		errors.Is(err, common.ErrAttemptLimitExceeded)
}

func normalizeEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" {
		return "", common.NewValidationError("invalid email address")
	}
	return strings.ToLower(addr.Address), nil
}

func normalizeClientInfo(ci *models.ClientInfo) (map[string]string, error) {
	if ci == nil {
		return nil, nil
	}
	out := models.ClientInfo{
		Name:    strings.TrimSpace(ci.Name),
		Company: strings.TrimSpace(ci.Company),
		Role:    strings.TrimSpace(ci.Role),
	}
	for field, v := range map[string]string{"name": out.Name, "company": out.Company, "role": out.Role} {
		if utf8.RuneCountInString(v) > maxClientInfoLen {
			return nil, common.NewValidationError("client_info.%s must be at most %d characters", field, maxClientInfoLen)
		}
	}
	return out.Metadata(), nil
}

func validateAnswers(answers []*int, p models.Product) error {
	n := scoring.QuestionCount(p)
	if len(answers) == 0 || len(answers) > n {
		return common.NewValidationError("answers must contain between 1 and %d entries", n)
	}
	for i, a := range answers {
		if a != nil && (*a < 0 || *a > scoring.MaxChoice) {
			return common.NewValidationError("answer %d must be null or between 0 and %d", i+1, scoring.MaxChoice)
		}
	}
	return nil
}
