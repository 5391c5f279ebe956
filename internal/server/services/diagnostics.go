package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/keygen"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/diagnostics"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/keys"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Sort modes accepted by DiagnosticService.List.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortSeverity  = "severity"
	SortScoreDesc = "score_desc"
	SortScoreAsc  = "score_asc"
)

// ListQuery selects, orders and pages diagnostics. Empty string fields do
// not filter. From and To are YYYY-MM-DD dates in UTC; To includes the whole
// day.
type ListQuery struct {
	Product string
	From    string
	To      string
	Email   string
	// Key selects the diagnostic the key was consumed by, through the key's
	// diagnostic_id back-reference. Unknown or unused keys match nothing.
	Key string
	// ID matches either the string id or the numeric id.
	ID    string
	Sort  string
	Page  int
	Limit int
}

// Stats summarizes the filtered set.
type Stats struct {
	Total     int                    `json:"total"`
	ByProduct map[models.Product]int `json:"by_product"`
	ByStatus  map[models.Status]int  `json:"by_status"`
	Average   float64                `json:"average"`
}

// ListResult is one page of diagnostics.
type ListResult struct {
	Total         int
	TotalFiltered int
	Page          int
	TotalPages    int
	Limit         int
	Stats         Stats
	Records       []*models.Diagnostic
}

// DiagnosticService stores completed diagnostics and answers reporting
// queries over them.
type DiagnosticService struct {
	repo diagnostics.Repository
	keys keys.Repository
	log  logging.Logger
}

func NewDiagnosticService(repo diagnostics.Repository, keys keys.Repository, log logging.Logger) *DiagnosticService {
	return &DiagnosticService{repo: repo, keys: keys, log: log.With("module", "diagnostics")}
}

// Append stores d and returns it with its numeric id assigned.
func (s *DiagnosticService) Append(ctx context.Context, d *models.Diagnostic) (*models.Diagnostic, error) {
	stored, err := s.repo.Append(ctx, d)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "diagnostic stored",
		"diagnostic_id", stored.ID, "numeric_id", stored.NumericID,
		"product", stored.Product, "status", stored.Status, "overall", stored.OverallAverage)
	return stored, nil
}

// List validates q and returns the requested page.
func (s *DiagnosticService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	f, err := compileQuery(q)
	if err != nil {
		return nil, err
	}
	if f.key != "" {
		if err := s.resolveKey(ctx, f); err != nil {
			return nil, err
		}
	}

	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Diagnostic, 0, len(all))
	for _, d := range all {
		if f.match(d) {
			filtered = append(filtered, d)
		}
	}
	sortDiagnostics(filtered, f.sort)

	res := &ListResult{
		Total:         len(all),
		TotalFiltered: len(filtered),
		Page:          f.page,
		Limit:         f.limit,
		TotalPages:    (len(filtered) + f.limit - 1) / f.limit,
		Stats:         computeStats(filtered),
		Records:       []*models.Diagnostic{},
	}

	start := (f.page - 1) * f.limit
	if start < len(filtered) {
		end := min(start+f.limit, len(filtered))
		res.Records = filtered[start:end]
	}
	return res, nil
}

func (s *DiagnosticService) resolveKey(ctx context.Context, f *compiledQuery) error {
	k, err := s.keys.FindByValue(ctx, f.key)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	f.keyDiagnostic = k.DiagnosticID
	return nil
}

type compiledQuery struct {
	product *models.Product
	from    time.Time
	to      time.Time
	email   string
	key     string
	id      string
	sort    string

	// keyDiagnostic is filled from the key store when key is set
	keyDiagnostic *string
	page          int
	limit         int
}

func compileQuery(q ListQuery) (*compiledQuery, error) {
	f := &compiledQuery{
		email: strings.ToLower(strings.TrimSpace(q.Email)),
		id:    strings.TrimSpace(q.ID),
		page:  max(q.Page, 1),
		limit: q.Limit,
	}

	if strings.TrimSpace(q.Product) != "" {
		p, err := models.ParseProduct(q.Product)
		if err != nil {
			return nil, common.NewValidationError("product must be one of personas, empresas")
		}
		f.product = &p
	}

	if q.From != "" {
		t, err := time.Parse(time.DateOnly, q.From)
		if err != nil {
			return nil, common.NewValidationError("from must be a YYYY-MM-DD date")
		}
		f.from = t
	}
	if q.To != "" {
		t, err := time.Parse(time.DateOnly, q.To)
		if err != nil {
			return nil, common.NewValidationError("to must be a YYYY-MM-DD date")
		}
		f.to = t.Add(24 * time.Hour)
	}
	if !f.from.IsZero() && !f.to.IsZero() && !f.from.Before(f.to) {
		return nil, common.NewValidationError("from must not be after to")
	}

	if q.Key != "" {
		f.key = keygen.Normalize(q.Key)
	}

	switch q.Sort {
	case "":
		f.sort = SortNewest
	case SortNewest, SortOldest, SortSeverity, SortScoreDesc, SortScoreAsc:
		f.sort = q.Sort
	default:
		return nil, common.NewValidationError("sort must be one of newest, oldest, severity, score_desc, score_asc")
	}

	switch {
	case f.limit == 0:
		f.limit = DefaultPageSize
	case f.limit < 1:
		f.limit = 1
	case f.limit > MaxPageSize:
		f.limit = MaxPageSize
	}
	return f, nil
}

func (f *compiledQuery) match(d *models.Diagnostic) bool {
	if f.product != nil && d.Product != *f.product {
		return false
	}
	if !f.from.IsZero() && d.CreatedAt.Before(f.from) {
		return false
	}
	if !f.to.IsZero() && !d.CreatedAt.Before(f.to) {
		return false
	}
	if f.email != "" && !strings.Contains(strings.ToLower(d.ClientEmail), f.email) {
		return false
	}
	if f.key != "" && (f.keyDiagnostic == nil || d.ID != *f.keyDiagnostic) {
		return false
	}
	if f.id != "" && d.ID != f.id && strconv.FormatInt(d.NumericID, 10) != f.id {
		return false
	}
	return true
}

func sortDiagnostics(ds []*models.Diagnostic, mode string) {
	newer := func(a, b *models.Diagnostic) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.NumericID > b.NumericID
	}

	var less func(a, b *models.Diagnostic) bool
	switch mode {
	case SortOldest:
		less = func(a, b *models.Diagnostic) bool { return newer(b, a) }
	case SortSeverity:
		less = func(a, b *models.Diagnostic) bool {
			if ra, rb := a.Status.Rank(), b.Status.Rank(); ra != rb {
				return ra < rb
			}
			if a.OverallAverage != b.OverallAverage {
				return a.OverallAverage < b.OverallAverage
			}
			return newer(a, b)
		}
	case SortScoreDesc:
		less = func(a, b *models.Diagnostic) bool {
			if a.OverallAverage != b.OverallAverage {
				return a.OverallAverage > b.OverallAverage
			}
			return newer(a, b)
		}
	case SortScoreAsc:
		less = func(a, b *models.Diagnostic) bool {
			if a.OverallAverage != b.OverallAverage {
				return a.OverallAverage < b.OverallAverage
			}
			return newer(a, b)
		}
	default:
		less = newer
	}

	sort.SliceStable(ds, func(i, j int) bool { return less(ds[i], ds[j]) })
}

func computeStats(ds []*models.Diagnostic) Stats {
	st := Stats{
		Total:     len(ds),
		ByProduct: map[models.Product]int{},
		ByStatus:  map[models.Status]int{},
	}
	var sum float64
	for _, d := range ds {
		st.ByProduct[d.Product]++
		st.ByStatus[d.Status]++
		sum += d.OverallAverage
	}
	if len(ds) > 0 {
		st.Average = math.Round(sum/float64(len(ds))*10) / 10
	}
	return st
}
