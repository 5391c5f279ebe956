package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
	"github.com/dmitrijs2005/ashdiag/internal/server/services"
)

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeValidationError(r.Context(), w, "admin_login", err)
		return
	}

	tok, err := h.admin.Login(r.Context(), req.Password)
	if err != nil {
		h.writeMappedError(r.Context(), w, "admin_login", err)
		return
	}
	writeSuccess(w, http.StatusOK, adminLoginResponse{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt})
}

func (h *Handler) generateKeys(w http.ResponseWriter, r *http.Request) {
	var req generateKeysRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeValidationError(r.Context(), w, "generate_keys", err)
		return
	}

	ks, err := h.keys.GenerateBatch(r.Context(), services.GenerateKeysRequest{
		Count:        req.Count,
		Product:      req.Product,
		ValidityDays: req.ValidityDays,
		Client:       req.Client,
		Project:      req.Project,
		GeneratedBy:  common.AdminSubject,
	}, h.now())
	if err != nil {
		h.writeMappedError(r.Context(), w, "generate_keys", err)
		return
	}
	writeSuccess(w, http.StatusCreated, keysResponse{Keys: ks})
}

func (h *Handler) listKeys(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter models.KeyFilter

	if raw := q.Get("product"); raw != "" {
		p, err := models.ParseProduct(raw)
		if err != nil {
			h.writeMappedError(r.Context(), w, "list_keys", common.NewValidationError("product must be one of personas, empresas"))
			return
		}
		filter.Product = &p
	}
	if raw := q.Get("used"); raw != "" {
		used, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeMappedError(r.Context(), w, "list_keys", common.NewValidationError("used must be true or false"))
			return
		}
		filter.Used = &used
	}

	ks, err := h.keys.List(r.Context(), filter)
	if err != nil {
		h.writeMappedError(r.Context(), w, "list_keys", err)
		return
	}
	if ks == nil {
		ks = []*models.Key{}
	}
	writeSuccess(w, http.StatusOK, keysResponse{Keys: ks})
}

func (h *Handler) listDiagnostics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	res, err := h.diagnostics.List(r.Context(), services.ListQuery{
		Product: q.Get("product"),
		From:    q.Get("from"),
		To:      q.Get("to"),
		Email:   q.Get("email"),
		Key:     q.Get("key"),
		ID:      q.Get("id"),
		Sort:    q.Get("sort"),
		Page:    parseIntDefault(q.Get("page"), 1),
		Limit:   parseIntDefault(q.Get("limit"), services.DefaultPageSize),
	})
	if err != nil {
		h.writeMappedError(r.Context(), w, "list_diagnostics", err)
		return
	}

	writeSuccess(w, http.StatusOK, newListDiagnosticsResponse(res, q.Get("detail") == "full"))
}

func (h *Handler) sweepSessions(w http.ResponseWriter, r *http.Request) {
	n, err := h.sessions.Sweep(r.Context(), h.now())
	if err != nil {
		h.writeMappedError(r.Context(), w, "sweep_sessions", err)
		return
	}
	writeSuccess(w, http.StatusOK, sweepResponse{Removed: n})
}
