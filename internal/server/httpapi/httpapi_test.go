package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/config"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
	"github.com/dmitrijs2005/ashdiag/internal/server/notify"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ashdiag/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var t0 = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

const adminPassword = "s3cret-pass"

type testServer struct {
	t      *testing.T
	rm     *repomanager.FileRepositoryManager
	h      *Handler
	router http.Handler
	clock  time.Time

	remoteAddr string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	var cfg config.Config
	cfg.LoadDefaults()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	cfg.AdminPasswordHash = string(hash)

	log := logging.Nop()
	rm := repomanager.NewFileRepositoryManager(t.TempDir())
	require.NoError(t, rm.RunMigrations(context.Background()))

	keys := services.NewKeyService(rm.Keys(), &cfg, log)
	sessions := services.NewSessionService(rm.Sessions(), &cfg, log)
	diags := services.NewDiagnosticService(rm.Diagnostics(), rm.Keys(), log)
	limiter := services.NewAttemptLimiter(rm.Attempts(), &cfg, log)

	h := NewHandler(Services{
		Redemption:  services.NewRedemptionService(keys, sessions, diags, limiter, notify.NewLogNotifier(log), log),
		Keys:        keys,
		Sessions:    sessions,
		Diagnostics: diags,
		Admin:       services.NewAdminService(&cfg, log),
	}, Options{
		AllowedOrigins: []string{"https://ash.example"},
		TrustedProxies: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
	}, log)

	ts := &testServer{t: t, rm: rm, h: h, clock: t0, remoteAddr: "198.51.100.7:5555"}
	h.now = func() time.Time { return ts.clock }
	ts.router = NewRouter(h)
	return ts
}

type envelope struct {
	Status            string          `json:"status"`
	Data              json.RawMessage `json:"data"`
	Code              string          `json:"code"`
	Message           string          `json:"message"`
	RetryAfterMinutes int             `json:"retry_after_minutes"`
}

func (ts *testServer) do(method, path string, body any, header http.Header) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = ts.remoteAddr
	req.Header.Set("User-Agent", "httptest")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (ts *testServer) addKey(value string, p models.Product) *models.Key {
	ts.t.Helper()
	k, err := ts.rm.Keys().Create(context.Background(), &models.Key{
		Value: value, Product: p, IssuedAt: t0, ValidUntil: t0.Add(7 * 24 * time.Hour),
	})
	require.NoError(ts.t, err)
	return k
}

func (ts *testServer) adminHeader() http.Header {
	ts.t.Helper()
	rec, env := ts.do(http.MethodPost, "/api/v1/admin/login", map[string]string{"password": adminPassword}, nil)
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	var tok adminLoginResponse
	require.NoError(ts.t, json.Unmarshal(env.Data, &tok))
	return http.Header{"Authorization": {"Bearer " + tok.AccessToken}}
}

func answersJSON(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestHealthzAndRequestID(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
	assert.NotEmpty(t, rec.Header().Get(common.RequestIDHeaderName))

	rec, _ = ts.do(http.MethodGet, "/healthz", nil, http.Header{common.RequestIDHeaderName: {"req-42"}})
	assert.Equal(t, "req-42", rec.Header().Get(common.RequestIDHeaderName))
}

func TestVerifyAndSubmitFlow(t *testing.T) {
	ts := newTestServer(t)
	k := ts.addKey("ASH-P-AB12-3456-7890", models.ProductPersonas)

	rec, env := ts.do(http.MethodPost, "/api/v1/keys/verify", map[string]string{
		"key": "ash-p-ab12-3456-7890", "product": "personas", "email": "ana@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var v verifyKeyResponse
	require.NoError(t, json.Unmarshal(env.Data, &v))
	require.NotEmpty(t, v.Token)
	assert.True(t, v.ValidUntil.Equal(k.ValidUntil))
	assert.True(t, v.SessionExpiresAt.Equal(t0.Add(time.Hour)))

	ts.clock = t0.Add(5 * time.Minute)
	rec, env = ts.do(http.MethodPost, "/api/v1/diagnostics", map[string]any{
		"answers": answersJSON(25, 2),
	}, http.Header{"Authorization": {"Bearer " + v.Token}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var s submitDiagnosticResponse
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.NotEmpty(t, s.DiagnosticID)
	assert.Equal(t, int64(1), s.NumericID)
	assert.Equal(t, 3.8, s.OverallAverage)
	assert.Equal(t, models.StatusStable, s.Status)
	assert.Equal(t, models.PriorityLow, s.Priority)
	assert.True(t, s.Notified)

	rec, env = ts.do(http.MethodPost, "/api/v1/diagnostics", map[string]any{
		"token": v.Token, "answers": answersJSON(25, 2),
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_INVALID", env.Code)

	rec, env = ts.do(http.MethodPost, "/api/v1/keys/verify", map[string]string{
		"key": k.Value, "product": "personas",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_USED", env.Code)
}

func TestVerifyErrors(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(http.MethodPost, "/api/v1/keys/verify", `{"key":"x","product":"personas","extra":1}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
	assert.Equal(t, "error", env.Status)

	rec, env = ts.do(http.MethodPost, "/api/v1/keys/verify", `{"key":"x"} {"key":"y"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	rec, env = ts.do(http.MethodPost, "/api/v1/keys/verify", map[string]string{"key": "bad", "product": "personas"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid key format", env.Message)

	ts.addKey("ASH-E-AB12-3456-7890", models.ProductEmpresas)
	ts.clock = t0.Add(30 * 24 * time.Hour)
	rec, env = ts.do(http.MethodPost, "/api/v1/keys/verify", map[string]string{"key": "ASH-E-AB12-3456-7890", "product": "empresas"}, nil)
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "EXPIRED", env.Code)
}

func TestVerifyRateLimited(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]string{"key": "ASH-P-ZZZZ-0000-0000", "product": "personas"}

	for range 3 {
		rec, env := ts.do(http.MethodPost, "/api/v1/keys/verify", body, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "NOT_FOUND", env.Code)
	}

	rec, env := ts.do(http.MethodPost, "/api/v1/keys/verify", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", env.Code)
	assert.Equal(t, 15, env.RetryAfterMinutes)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))

	// another client address is unaffected
	ts.remoteAddr = "192.0.2.1:4000"
	rec, _ = ts.do(http.MethodPost, "/api/v1/keys/verify", body, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyRateLimited_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]string{"key": "ASH-P-ZZZZ-0000-0000", "product": "personas"}

	var codes []int
	for i := range 6 {
		hdr := http.Header{"X-Forwarded-For": {fmt.Sprintf("203.0.113.%d", i+1)}}
		rec, _ := ts.do(http.MethodPost, "/api/v1/keys/verify", body, hdr)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{404, 404, 404, 429, 429, 429}, codes)
}

func TestVerifyRateLimited_ForwardedForBehindTrustedProxy(t *testing.T) {
	ts := newTestServer(t)
	ts.remoteAddr = "10.1.2.3:4444"
	body := map[string]string{"key": "ASH-P-ZZZZ-0000-0000", "product": "personas"}
	from := func(ip string) http.Header { return http.Header{"X-Forwarded-For": {ip}} }

	for range 3 {
		rec, _ := ts.do(http.MethodPost, "/api/v1/keys/verify", body, from("203.0.113.5"))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	rec, _ := ts.do(http.MethodPost, "/api/v1/keys/verify", body, from("203.0.113.5"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = ts.do(http.MethodPost, "/api/v1/keys/verify", body, from("203.0.113.6"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitValidation(t *testing.T) {
	ts := newTestServer(t)
	ts.addKey("ASH-P-AB12-3456-7890", models.ProductPersonas)

	_, env := ts.do(http.MethodPost, "/api/v1/keys/verify", map[string]string{"key": "ASH-P-AB12-3456-7890", "product": "personas"}, nil)
	var v verifyKeyResponse
	require.NoError(t, json.Unmarshal(env.Data, &v))

	rec, env := ts.do(http.MethodPost, "/api/v1/diagnostics", fmt.Sprintf(`{"token":%q,"answers":[1,"b"]}`, v.Token), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	rec, env = ts.do(http.MethodPost, "/api/v1/diagnostics", fmt.Sprintf(`{"token":%q,"answers":[1,7]}`, v.Token), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Message, "answer 2")

	rec, _ = ts.do(http.MethodPost, "/api/v1/diagnostics", fmt.Sprintf(`{"token":%q,"answers":[1,null,3]}`, v.Token), nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestSubmitClientInfo(t *testing.T) {
	ts := newTestServer(t)
	k := ts.addKey("ASH-P-AB12-3456-7890", models.ProductPersonas)

	_, env := ts.do(http.MethodPost, "/api/v1/keys/verify", map[string]string{"key": k.Value, "product": "personas"}, nil)
	var v verifyKeyResponse
	require.NoError(t, json.Unmarshal(env.Data, &v))

	rec, env := ts.do(http.MethodPost, "/api/v1/diagnostics",
		fmt.Sprintf(`{"token":%q,"answers":[1],"client_info":{"name":"Ana","phone":"1"}}`, v.Token), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	rec, _ = ts.do(http.MethodPost, "/api/v1/diagnostics", map[string]any{
		"token":       v.Token,
		"answers":     answersJSON(25, 3),
		"client_info": map[string]string{"name": "Ana", "company": "ACME", "role": "CEO"},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	stored, err := ts.rm.Keys().GetByID(context.Background(), k.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"client_name": "Ana", "client_company": "ACME", "client_role": "CEO"}, stored.ClientMetadata)
}

func TestAdminRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/v1/admin/diagnostics", "/api/v1/admin/keys"} {
		rec, env := ts.do(http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "UNAUTHORIZED", env.Code)

		rec, _ = ts.do(http.MethodGet, path, nil, http.Header{"Authorization": {"Bearer nope"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec, env := ts.do(http.MethodPost, "/api/v1/admin/login", map[string]string{"password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
}

func TestAdminKeys(t *testing.T) {
	ts := newTestServer(t)
	auth := ts.adminHeader()

	rec, env := ts.do(http.MethodPost, "/api/v1/admin/keys", map[string]any{
		"count": 3, "product": "empresas", "validity_days": 10, "client": "ACME",
	}, auth)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created keysResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Len(t, created.Keys, 3)
	for _, k := range created.Keys {
		assert.True(t, strings.HasPrefix(k.Value, "ASH-E-"), k.Value)
		assert.Equal(t, "ACME", k.ClientMetadata["client"])
		assert.Equal(t, common.AdminSubject, k.GeneratedBy)
		assert.True(t, k.ValidUntil.Equal(t0.Add(10*24*time.Hour)))
	}

	rec, env = ts.do(http.MethodPost, "/api/v1/admin/keys", map[string]any{"count": 51, "product": "empresas"}, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	ts.addKey("ASH-P-AB12-3456-7890", models.ProductPersonas)

	rec, env = ts.do(http.MethodGet, "/api/v1/admin/keys?product=personas", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed keysResponse
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed.Keys, 1)
	assert.Equal(t, "ASH-P-AB12-3456-7890", listed.Keys[0].Value)

	rec, env = ts.do(http.MethodGet, "/api/v1/admin/keys?used=true", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"keys":[]}`, string(env.Data))

	rec, env = ts.do(http.MethodGet, "/api/v1/admin/keys?used=maybe", nil, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
}

func TestAdminDiagnosticsAndSweep(t *testing.T) {
	ts := newTestServer(t)
	ts.addKey("ASH-P-AB12-3456-7890", models.ProductPersonas)
	ts.addKey("ASH-P-AB12-3456-7891", models.ProductPersonas)

	_, env := ts.do(http.MethodPost, "/api/v1/keys/verify", map[string]string{"key": "ASH-P-AB12-3456-7890", "product": "personas"}, nil)
	var v verifyKeyResponse
	require.NoError(t, json.Unmarshal(env.Data, &v))
	rec, _ := ts.do(http.MethodPost, "/api/v1/diagnostics", map[string]any{"token": v.Token, "answers": answersJSON(25, 0)}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// a second session left to expire
	rec, _ = ts.do(http.MethodPost, "/api/v1/keys/verify", map[string]string{"key": "ASH-P-AB12-3456-7891", "product": "personas"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	auth := ts.adminHeader()

	rec, env = ts.do(http.MethodGet, "/api/v1/admin/diagnostics?product=personas&sort=severity", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary struct {
		Total   int                 `json:"total"`
		Page    int                 `json:"page"`
		Limit   int                 `json:"limit"`
		Stats   services.Stats      `json:"stats"`
		Records []diagnosticSummary `json:"records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Page)
	assert.Equal(t, 10, summary.Limit)
	require.Len(t, summary.Records, 1)
	assert.Equal(t, models.StatusCritical, summary.Records[0].Status)
	assert.Equal(t, 3, summary.Records[0].FindingsCount)
	assert.Equal(t, 1, summary.Stats.ByStatus[models.StatusCritical])

	rec, env = ts.do(http.MethodGet, "/api/v1/admin/diagnostics?detail=full", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	var full struct {
		Records []models.Diagnostic `json:"records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &full))
	require.Len(t, full.Records, 1)
	assert.Len(t, full.Records[0].RawAnswers, 25)
	assert.Len(t, full.Records[0].DimensionScores, 5)

	rec, env = ts.do(http.MethodGet, "/api/v1/admin/diagnostics?from=bad", nil, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	ts.clock = t0.Add(2 * time.Hour)
	rec, env = ts.do(http.MethodPost, "/api/v1/admin/sessions/sweep", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":1}`, string(env.Data))
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(http.MethodOptions, "/api/v1/keys/verify", nil, http.Header{
		"Origin":                        {"https://ash.example"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://ash.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec, _ = ts.do(http.MethodGet, "/healthz", nil, http.Header{"Origin": {"https://evil.example"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverMiddleware(t *testing.T) {
	ts := newTestServer(t)
	handler := requestIDMiddleware(ts.h.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var e apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "INTERNAL", e.Code)
	assert.Equal(t, "temporary failure, try again", e.Message)
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{common.NewValidationError("bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{common.ErrKeyNotFound, http.StatusNotFound, "NOT_FOUND"},
		{common.ErrKeyAlreadyUsed, http.StatusConflict, "ALREADY_USED"},
		{common.ErrKeyExpired, http.StatusGone, "EXPIRED"},
		{common.ErrAttemptLimitExceeded, http.StatusForbidden, "ATTEMPT_LIMIT_EXCEEDED"},
		{&common.RateLimitError{RetryAfter: 90 * time.Second}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{common.ErrSessionInvalid, http.StatusUnauthorized, "SESSION_INVALID"},
		{common.ErrTokenExpired, http.StatusUnauthorized, "UNAUTHORIZED"},
		{common.ErrorUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{common.PersistenceErr("write", errors.New("/var/data/keys.json: disk full")), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		status, code, msg := mapDomainError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
		assert.NotContains(t, msg, "/var/data")
	}

	_, _, msg := mapDomainError(&common.RateLimitError{RetryAfter: 90 * time.Second})
	assert.Contains(t, msg, "2 minutes")
}

func TestClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.10 "})
	require.NoError(t, err)
	h := &Handler{trustedProxies: proxies}

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"peer only", "198.51.100.7:5555", "", "198.51.100.7"},
		{"untrusted peer ignores header", "198.51.100.7:5555", "203.0.113.5", "198.51.100.7"},
		{"ipv6 peer", "[2001:db8::1]:443", "", "2001:db8::1"},
		{"no port", "198.51.100.7", "", "198.51.100.7"},
		{"trusted peer", "10.1.2.3:4444", " 203.0.113.5 , 10.0.0.1", "203.0.113.5"},
		{"spoofed left hop skipped", "10.1.2.3:4444", "1.1.1.1, 203.0.113.5", "203.0.113.5"},
		{"single trusted address", "192.0.2.10:80", "203.0.113.9", "203.0.113.9"},
		{"all hops trusted", "10.1.2.3:4444", "10.0.0.9", "10.0.0.9"},
		{"garbage hop", "10.1.2.3:4444", "not-an-ip", "10.1.2.3"},
		{"trusted peer without header", "10.1.2.3:4444", "", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, h.clientIP(r))
		})
	}
}

func TestParseTrustedProxies_Invalid(t *testing.T) {
	_, err := ParseTrustedProxies([]string{"10.0.0.0/99"})
	require.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.local"})
	require.Error(t, err)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 7, parseIntDefault("", 7))
	assert.Equal(t, 7, parseIntDefault("x", 7))
	assert.Equal(t, 3, parseIntDefault("3", 7))
}
