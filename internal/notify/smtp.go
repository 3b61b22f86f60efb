package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/r0cstar09/jobtailor/internal/job"
)

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

func (c SMTPConfig) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return errors.New("smtp host is required")
	}
	if c.Port <= 0 {
		return errors.New("smtp port is required")
	}
	if strings.TrimSpace(c.From) == "" || strings.TrimSpace(c.To) == "" {
		return errors.New("smtp from and to addresses are required")
	}
	return nil
}

const bodyTemplate = `Run {{.RunID}} for {{.FeedURL}} finished in {{.Duration}}.

Entries fetched:       {{.EntriesFetched}}
Skipped (no identity): {{.SkippedUnidentifiable}}
Duplicates collapsed:  {{.DuplicatesCollapsed}}
Jobs processed:        {{.Jobs}}
Scored:                {{.ScoredOK}} ok, {{.ScoreFailed}} failed
Gated in:              {{.GatedIn}} (threshold {{printf "%.2f" .Threshold}})
Rejected:              {{.Rejected}}
Generated:             {{.Generated}} ({{.GenerationFailed}} failed)
Written:               {{.Written}} ({{.WriteFailed}} failed)
Canceled:              {{.Canceled}}
`

var summaryTmpl = template.Must(template.New("summary").Parse(bodyTemplate))

// Seam for tests.
var sendMail = smtp.SendMail

// SMTPNotifier mails the run summary as plain text.
type SMTPNotifier struct {
	config SMTPConfig
	logger *zap.Logger
}

func NewSMTP(config SMTPConfig, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{config: config, logger: logger}
}

func (n *SMTPNotifier) Notify(_ context.Context, summary *job.RunSummary) error {
	body, err := renderBody(summary)
	if err != nil {
		return fmt.Errorf("render summary body: %w", err)
	}

	var message bytes.Buffer
	fmt.Fprintf(&message, "From: %s\r\n", n.config.From)
	fmt.Fprintf(&message, "To: %s\r\n", n.config.To)
	fmt.Fprintf(&message, "Subject: jobtailor run: %d of %d jobs written\r\n", summary.Written, summary.Jobs)
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", n.config.Host, n.config.Port)

	var auth smtp.Auth
	if n.config.Username != "" {
		auth = smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
	}

	n.logger.Debug("sending summary email",
		zap.String("smtp_addr", addr),
		zap.String("to", n.config.To),
	)

	if err := sendMail(addr, auth, n.config.From, []string{n.config.To}, message.Bytes()); err != nil {
		return fmt.Errorf("send summary email: %w", err)
	}

	return nil
}

func renderBody(summary *job.RunSummary) (string, error) {
	var body bytes.Buffer
	if err := summaryTmpl.Execute(&body, summary); err != nil {
		return "", err
	}
	return body.String(), nil
}
