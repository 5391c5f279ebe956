package httpapi

import (
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/server/models"
	"github.com/dmitrijs2005/ashdiag/internal/server/services"
)

type verifyKeyRequest struct {
	Key     string `json:"key"`
	Product string `json:"product"`
	Email   string `json:"email,omitempty"`
}

type verifyKeyResponse struct {
	Token            string    `json:"token"`
	ValidUntil       time.Time `json:"valid_until"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

type submitDiagnosticRequest struct {
	// Token may also be sent as a bearer token.
	Token      string             `json:"token,omitempty"`
	Answers    []*int             `json:"answers"`
	ClientInfo *models.ClientInfo `json:"client_info,omitempty"`
}

type submitDiagnosticResponse struct {
	DiagnosticID   string          `json:"diagnostic_id"`
	NumericID      int64           `json:"numeric_id"`
	OverallAverage float64         `json:"overall_average"`
	Status         models.Status   `json:"status"`
	Priority       models.Priority `json:"priority"`
	Notified       bool            `json:"notified"`
}

type adminLoginRequest struct {
	Password string `json:"password"`
}

type adminLoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type generateKeysRequest struct {
	Count        int    `json:"count"`
	Product      string `json:"product"`
	ValidityDays int    `json:"validity_days,omitempty"`
	Client       string `json:"client,omitempty"`
	Project      string `json:"project,omitempty"`
}

type keysResponse struct {
	Keys []*models.Key `json:"keys"`
}

type sweepResponse struct {
	Removed int `json:"removed"`
}

type diagnosticSummary struct {
	ID                   string          `json:"id"`
	NumericID            int64           `json:"numeric_id"`
	CreatedAt            time.Time       `json:"created_at"`
	Product              models.Product  `json:"product"`
	ClientEmail          string          `json:"client_email,omitempty"`
	KeyValue             string          `json:"key_value"`
	OverallAverage       float64         `json:"overall_average"`
	Status               models.Status   `json:"status"`
	Priority             models.Priority `json:"priority"`
	FindingsCount        int             `json:"findings_count"`
	RecommendationsCount int             `json:"recommendations_count"`
}

type listDiagnosticsResponse struct {
	Total         int            `json:"total"`
	TotalFiltered int            `json:"total_filtered"`
	Page          int            `json:"page"`
	TotalPages    int            `json:"total_pages"`
	Limit         int            `json:"limit"`
	Stats         services.Stats `json:"stats"`
	Records       any            `json:"records"`
}

func summarize(d *models.Diagnostic) diagnosticSummary {
	return diagnosticSummary{
		ID:                   d.ID,
		NumericID:            d.NumericID,
		CreatedAt:            d.CreatedAt,
		Product:              d.Product,
		ClientEmail:          d.ClientEmail,
		KeyValue:             d.KeyValue,
		OverallAverage:       d.OverallAverage,
		Status:               d.Status,
		Priority:             d.Priority,
		FindingsCount:        len(d.Findings),
		RecommendationsCount: len(d.Recommendations),
	}
}

func newListDiagnosticsResponse(res *services.ListResult, full bool) listDiagnosticsResponse {
	out := listDiagnosticsResponse{
		Total:         res.Total,
		TotalFiltered: res.TotalFiltered,
		Page:          res.Page,
		TotalPages:    res.TotalPages,
		Limit:         res.Limit,
		Stats:         res.Stats,
	}
	if full {
		out.Records = res.Records
		return out
	}
	summaries := make([]diagnosticSummary, 0, len(res.Records))
	for _, d := range res.Records {
		summaries = append(summaries, summarize(d))
	}
	out.Records = summaries
	return out
}
