package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/server/services"
)

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) verifyKey(w http.ResponseWriter, r *http.Request) {
	var req verifyKeyRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeValidationError(r.Context(), w, "verify_key", err)
		return
	}

	res, err := h.redemption.VerifyKey(r.Context(), services.VerifyRequest{
		Key:     req.Key,
		Product: req.Product,
		Email:   req.Email,
	}, h.requestContext(r))
	if err != nil {
		h.writeMappedError(r.Context(), w, "verify_key", err)
		return
	}

	writeSuccess(w, http.StatusOK, verifyKeyResponse{
		Token:            res.Token,
		ValidUntil:       res.ValidUntil,
		SessionExpiresAt: res.SessionExpiresAt,
	})
}

func (h *Handler) submitDiagnostic(w http.ResponseWriter, r *http.Request) {
	var req submitDiagnosticRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeValidationError(r.Context(), w, "submit_diagnostic", err)
		return
	}
	if req.Token == "" {
		if token, err := bearerTokenFromHeader(r.Header.Get(common.AuthorizationHeaderName)); err == nil {
			req.Token = token
		}
	}

	res, err := h.redemption.SubmitDiagnostic(r.Context(), services.SubmitRequest{
		Token:      req.Token,
		Answers:    req.Answers,
		ClientInfo: req.ClientInfo,
	}, h.requestContext(r))
	if err != nil {
		h.writeMappedError(r.Context(), w, "submit_diagnostic", err)
		return
	}

	writeSuccess(w, http.StatusCreated, submitDiagnosticResponse{
		DiagnosticID:   res.DiagnosticID,
		NumericID:      res.NumericID,
		OverallAverage: res.OverallAverage,
		Status:         res.Status,
		Priority:       res.Priority,
		Notified:       res.Notified,
	})
}
