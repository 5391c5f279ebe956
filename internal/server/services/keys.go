package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/config"
	"github.com/dmitrijs2005/ashdiag/internal/server/keygen"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/keys"
)

const (
	maxBatchSize     = 50
	maxValidityDays  = 365
	maxGenerateRolls = 100
)

// GenerateKeysRequest describes an admin batch of keys.
type GenerateKeysRequest struct {
	Count   int
	Product string
	// ValidityDays falls back to the configured default when zero.
	ValidityDays int
	Client       string
	Project      string
	GeneratedBy  string
}

// KeyService owns the key lifecycle: generation, verification and the
// single-use transition.
type KeyService struct {
	repo         keys.Repository
	validityDays int
	ceiling      int
	log          logging.Logger
}

func NewKeyService(repo keys.Repository, cfg *config.Config, log logging.Logger) *KeyService {
	return &KeyService{
		repo:         repo,
		validityDays: cfg.KeyValidityDays,
		ceiling:      cfg.KeyAttemptCeiling,
		log:          log.With("module", "keys"),
	}
}

// Generate stores a fresh key for product, re-rolling on value collisions.
func (s *KeyService) Generate(ctx context.Context, p models.Product, now time.Time, validity time.Duration, metadata map[string]string, generatedBy string) (*models.Key, error) {
	for range maxGenerateRolls {
		value, err := keygen.Generate(p)
		if err != nil {
			return nil, fmt.Errorf("key generation: %w", err)
		}

		k, err := s.repo.Create(ctx, &models.Key{
			Value:          value,
			Product:        p,
			IssuedAt:       now,
			ValidUntil:     now.Add(validity),
			ClientMetadata: metadata,
			GeneratedBy:    generatedBy,
		})
		if errors.Is(err, common.ErrAlreadyExists) {
			s.log.Debug(ctx, "key collision, re-rolling", "product", p)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.Info(ctx, "key generated", "key_id", k.ID, "product", p, "valid_until", k.ValidUntil)
		return k, nil
	}
	return nil, common.PersistenceErr("key generation", errors.New("no unique value after repeated attempts"))
}

// GenerateBatch validates req and generates req.Count keys.
func (s *KeyService) GenerateBatch(ctx context.Context, req GenerateKeysRequest, now time.Time) ([]*models.Key, error) {
	if req.Count < 1 || req.Count > maxBatchSize {
		return nil, common.NewValidationError("count must be between 1 and %d", maxBatchSize)
	}
	p, err := models.ParseProduct(req.Product)
	if err != nil {
		return nil, common.NewValidationError("product must be one of personas, empresas")
	}
	days := req.ValidityDays
	if days == 0 {
		days = s.validityDays
	}
	if days < 1 || days > maxValidityDays {
		return nil, common.NewValidationError("validity_days must be between 1 and %d", maxValidityDays)
	}

	metadata := map[string]string{}
	if v := strings.TrimSpace(req.Client); v != "" {
		metadata["client"] = v
	}
	if v := strings.TrimSpace(req.Project); v != "" {
		metadata["project"] = v
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	out := make([]*models.Key, 0, req.Count)
	for range req.Count {
		k, err := s.Generate(ctx, p, now, time.Duration(days)*24*time.Hour, metadata, req.GeneratedBy)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// Verify checks that value is a redeemable key for product at now.
//
// Expiry is checked first, then the used flag, then the per-key attempt
// ceiling. Every verification of an existing key of the right product is
// recorded against it, whether it passes or not. Unknown keys and keys of
// another product report common.ErrKeyNotFound and change nothing.
func (s *KeyService) Verify(ctx context.Context, value string, p models.Product, now time.Time) (*models.Key, error) {
	k, err := s.repo.FindByValue(ctx, value)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrKeyNotFound
		}
		return nil, err
	}
	if k.Product != p {
		return nil, common.ErrKeyNotFound
	}

	var verdict error
	switch {
	case k.Expired(now):
		verdict = common.ErrKeyExpired
	case k.Used:
		verdict = common.ErrKeyAlreadyUsed
	case k.RedemptionAttempts >= s.ceiling:
		verdict = common.ErrAttemptLimitExceeded
	}

	updated, err := s.repo.RecordAttempt(ctx, k.ID, now, s.ceiling)
	if err != nil {
		if verdict != nil {
			s.log.Error(ctx, "recording key attempt failed", "key_id", k.ID, "error", err)
			return nil, verdict
		}
		return nil, err
	}
	if verdict != nil {
		return nil, verdict
	}
	return updated, nil
}

// GetByID returns the key with id.
func (s *KeyService) GetByID(ctx context.Context, id int64) (*models.Key, error) {
	k, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrKeyNotFound
		}
		return nil, err
	}
	return k, nil
}

// MarkUsed consumes the key on behalf of diagnosticID and merges metadata
// into its client metadata. Only the first call for a key succeeds, later
// calls report common.ErrKeyAlreadyUsed.
func (s *KeyService) MarkUsed(ctx context.Context, id int64, diagnosticID string, now time.Time, metadata map[string]string) error {
	err := s.repo.MarkUsed(ctx, id, diagnosticID, now, metadata)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrKeyNotFound
	}
	return err
}

// List returns the keys matching filter, oldest first.
func (s *KeyService) List(ctx context.Context, filter models.KeyFilter) ([]*models.Key, error) {
	return s.repo.List(ctx, filter)
}
