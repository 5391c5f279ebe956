package notify

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/server/config"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
	"github.com/dmitrijs2005/ashdiag/internal/server/scoring"
)

//go:embed report.html.tmpl
var reportTemplate string

// sendMail is a seam for testing smtp.SendMail.
var sendMail = smtp.SendMail

// SMTPNotifier e-mails an HTML report to the operator.
type SMTPNotifier struct {
	addr string
	auth smtp.Auth
	from mail.Address
	to   string
	tmpl *template.Template
}

func NewSMTPNotifier(cfg *config.Config) (*SMTPNotifier, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, err
	}

	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.OperatorEmail
	}

	n := &SMTPNotifier{
		addr: cfg.SMTPAddr,
		from: mail.Address{Name: cfg.SMTPFromName, Address: from},
		to:   cfg.OperatorEmail,
		tmpl: tmpl,
	}
	if cfg.SMTPUser != "" {
		host, _, err := net.SplitHostPort(cfg.SMTPAddr)
		if err != nil {
			return nil, fmt.Errorf("smtp addr: %w", err)
		}
		n.auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, host)
	}
	return n, nil
}

type scoreRow struct {
	Dimension string
	Score     float64
}

type reportView struct {
	*models.Diagnostic
	Date   string
	Scores []scoreRow
}

// Send renders the report and hands it to the SMTP server. The context only
// gates the start; net/smtp offers no cancellation mid-transfer.
func (n *SMTPNotifier) Send(ctx context.Context, d *models.Diagnostic) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := n.render(d)
	if err != nil {
		return err
	}
	if err := sendMail(n.addr, n.auth, n.from.Address, []string{n.to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (n *SMTPNotifier) render(d *models.Diagnostic) ([]byte, error) {
	view := reportView{Diagnostic: d, Date: d.CreatedAt.UTC().Format(time.DateTime)}
	for _, dim := range scoring.Dimensions(d.Product) {
		if s, ok := d.DimensionScores[dim.Name]; ok {
			view.Scores = append(view.Scores, scoreRow{Dimension: dim.Name, Score: s})
		}
	}

	var body bytes.Buffer
	if err := n.tmpl.Execute(&body, view); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	subject := fmt.Sprintf("[%s] Diagnostic #%d (%s) %s", d.Priority, d.NumericID, d.Product, d.Status)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.from.String())
	fmt.Fprintf(&msg, "To: %s\r\n", n.to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", d.CreatedAt.UTC().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
