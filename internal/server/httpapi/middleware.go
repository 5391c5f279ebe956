package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/google/uuid"
)

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(common.RequestIDHeaderName)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.log.Error(r.Context(), "panic recovered",
					"operation", "http_panic_recovery",
					"outcome", "failure",
					"request_id", requestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", fmt.Sprint(rec),
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL", internalMessage)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		outcome := "success"
		if statusCode >= 400 {
			outcome = "failure"
		}

		fields := []any{
			"operation", "http_request",
			"outcome", outcome,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", statusCode,
			"bytes", recorder.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		}
		switch {
		case statusCode >= 500:
			h.log.Error(r.Context(), "http request completed", fields...)
		case statusCode >= 400:
			h.log.Warn(r.Context(), "http request completed", fields...)
		default:
			h.log.Info(r.Context(), "http request completed", fields...)
		}
	})
}

// corsMiddleware answers for the configured browser origins only. "*" in the
// list allows any origin.
func (h *Handler) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || !h.originAllowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		hdr := w.Header()
		hdr.Set("Access-Control-Allow-Origin", origin)
		hdr.Add("Vary", "Origin")
		hdr.Set("Access-Control-Expose-Headers", "Retry-After, "+common.RequestIDHeaderName)

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			hdr.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+common.RequestIDHeaderName)
			hdr.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) originAllowed(origin string) bool {
	if _, ok := h.allowedOrigins["*"]; ok {
		return true
	}
	_, ok := h.allowedOrigins[origin]
	return ok
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			h.writeMissingBearerError(r.Context(), w, "admin_auth")
			return
		}
		if err := h.admin.Authenticate(raw); err != nil {
			h.writeMappedError(r.Context(), w, "admin_auth", err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

func bearerTokenFromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("missing bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

const internalMessage = "temporary failure, try again"

func mapDomainError(err error) (int, string, string) {
	var rl *common.RateLimitError
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, common.ErrKeyNotFound):
		return http.StatusNotFound, "NOT_FOUND", "key not found or not valid for this product"
	case errors.Is(err, common.ErrKeyAlreadyUsed):
		return http.StatusConflict, "ALREADY_USED", "this key has already been used"
	case errors.Is(err, common.ErrKeyExpired):
		return http.StatusGone, "EXPIRED", "this key has expired"
	case errors.Is(err, common.ErrAttemptLimitExceeded):
		return http.StatusForbidden, "ATTEMPT_LIMIT_EXCEEDED", "this key has exceeded its verification attempts"
	case errors.As(err, &rl):
		return http.StatusTooManyRequests, "RATE_LIMITED",
			fmt.Sprintf("too many failed attempts, try again in %d minutes", rl.Minutes())
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "too many failed attempts, try again later"
	case errors.Is(err, common.ErrSessionInvalid):
		return http.StatusUnauthorized, "SESSION_INVALID", "session invalid or expired"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "UNAUTHORIZED", "token expired"
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials"
	default:
		return http.StatusInternalServerError, "INTERNAL", internalMessage
	}
}
