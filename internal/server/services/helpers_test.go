package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/config"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	var c config.Config
	c.LoadDefaults()
	c.SecretKey = "k"
	return &c
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*models.Diagnostic
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, d *models.Diagnostic) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, d)
	return n.err
}

type fixture struct {
	rm          *repomanager.FileRepositoryManager
	keys        *KeyService
	sessions    *SessionService
	diagnostics *DiagnosticService
	limiter     *AttemptLimiter
	notifier    *recordingNotifier
	redemption  *RedemptionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	log := logging.Nop()

	rm := repomanager.NewFileRepositoryManager(t.TempDir())
	require.NoError(t, rm.RunMigrations(context.Background()))

	f := &fixture{
		rm:          rm,
		keys:        NewKeyService(rm.Keys(), cfg, log),
		sessions:    NewSessionService(rm.Sessions(), cfg, log),
		diagnostics: NewDiagnosticService(rm.Diagnostics(), rm.Keys(), log),
		limiter:     NewAttemptLimiter(rm.Attempts(), cfg, log),
		notifier:    &recordingNotifier{},
	}
	f.redemption = NewRedemptionService(f.keys, f.sessions, f.diagnostics, f.limiter, f.notifier, log)
	return f
}

// addKey stores a key with a fixed value valid for a week from t0.
func (f *fixture) addKey(t *testing.T, value string, p models.Product) *models.Key {
	t.Helper()
	k, err := f.rm.Keys().Create(context.Background(), &models.Key{
		Value:      value,
		Product:    p,
		IssuedAt:   t0,
		ValidUntil: t0.Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)
	return k
}

func rc(now time.Time) models.RequestContext {
	return models.RequestContext{IP: "203.0.113.9", UserAgent: "test-agent/1.0", Now: now}
}

func intp(v int) *int { return &v }

func answers(n, v int) []*int {
	out := make([]*int, n)
	for i := range out {
		out[i] = intp(v)
	}
	return out
}
