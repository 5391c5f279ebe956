// Package notify delivers completed diagnostics to the operator. Delivery is
// best effort: callers treat a nil error as delivered and carry on either way.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/config"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

type Notifier interface {
	Send(ctx context.Context, d *models.Diagnostic) error
}

// Fanout sends to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Send(ctx context.Context, d *models.Diagnostic) error {
	var errs []error
	for _, n := range f {
		if err := n.Send(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes the report summary to the log.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, d *models.Diagnostic) error {
	n.log.Info(ctx, "diagnostic report",
		"diagnostic_id", d.ID,
		"numeric_id", d.NumericID,
		"product", d.Product,
		"client_email", d.ClientEmail,
		"overall", d.OverallAverage,
		"status", d.Status,
		"priority", d.Priority,
		"findings", len(d.Findings),
	)
	return nil
}

// New assembles the notifiers enabled by cfg: e-mail when an SMTP server and
// operator address are set, the S3 archive when a bucket is set. With neither
// the report is only logged.
func New(cfg *config.Config, log logging.Logger) (Notifier, error) {
	var out Fanout

	if cfg.SMTPAddr != "" && cfg.OperatorEmail != "" {
		n, err := NewSMTPNotifier(cfg)
		if err != nil {
			return nil, fmt.Errorf("smtp notifier: %w", err)
		}
		out = append(out, n)
	}
	if cfg.S3Bucket != "" {
		out = append(out, NewS3Archiver(cfg))
	}
	if len(out) == 0 {
		return NewLogNotifier(log.With("module", "notify")), nil
	}
	return out, nil
}
