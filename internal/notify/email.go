package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/donaldgifford/fundgrube-watcher/internal/metrics"
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

var tracer = otel.Tracer("github.com/donaldgifford/fundgrube-watcher/internal/notify")

const implicitTLSPort = 465

// EmailConfig holds the SMTP settings of an EmailNotifier.
type EmailConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	To            string
	SenderName    string
	SubjectPrefix string
}

// SendFunc delivers a composed message. implicitTLS selects a TLS connection
// from the first byte instead of STARTTLS.
type SendFunc func(e *email.Email, addr string, auth smtp.Auth, implicitTLS bool) error

// EmailNotifier implements Notifier over SMTP. One message is sent per call.
type EmailNotifier struct {
	cfg  EmailConfig
	send SendFunc
	log  *slog.Logger
}

// EmailOption configures an EmailNotifier.
type EmailOption func(*EmailNotifier)

// WithSendFunc replaces the SMTP transport.
func WithSendFunc(f SendFunc) EmailOption {
	return func(n *EmailNotifier) {
		n.send = f
	}
}

// WithEmailLogger sets the logger.
func WithEmailLogger(l *slog.Logger) EmailOption {
	return func(n *EmailNotifier) {
		n.log = l
	}
}

// NewEmailNotifier creates an EmailNotifier.
func NewEmailNotifier(cfg EmailConfig, opts ...EmailOption) *EmailNotifier {
	if cfg.To == "" {
		cfg.To = cfg.From
	}
	if cfg.Username == "" {
		cfg.Username = cfg.From
	}
	n := &EmailNotifier{
		cfg:  cfg,
		send: smtpSend(cfg.Host),
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendMatches implements Notifier.SendMatches.
func (n *EmailNotifier) SendMatches(ctx context.Context, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}
	return n.SendText(ctx, MatchesSubject(len(matches)), MatchesBody(matches))
}

// SendText implements Notifier.SendText.
func (n *EmailNotifier) SendText(ctx context.Context, subject, body string) error {
	_, span := tracer.Start(ctx, "notify.email")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("%s <%s>", n.cfg.SenderName, n.cfg.From)
	if n.cfg.SenderName == "" {
		mail.From = n.cfg.From
	}
	mail.To = []string{n.cfg.To}
	mail.Subject = Subject(n.cfg.SubjectPrefix, n.cfg.From, n.cfg.To, subject)
	mail.Text = []byte(body)

	span.SetAttributes(attribute.String("mail.subject", mail.Subject))
	n.log.Debug("sending mail", "to", n.cfg.To, "subject", mail.Subject, "body", body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	implicitTLS := n.cfg.Port == implicitTLSPort

	start := time.Now()
	err := n.send(mail, addr, auth, implicitTLS)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = n.send(mail, addr, nil, implicitTLS)
	}
	metrics.NotificationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return &NotifyError{Channel: "email", Err: err}
	}

	n.log.Info("mail sent", "to", n.cfg.To, "subject", mail.Subject)
	return nil
}

func smtpSend(host string) SendFunc {
	return func(e *email.Email, addr string, auth smtp.Auth, implicitTLS bool) error {
		if implicitTLS {
			return e.SendWithTLS(addr, auth, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
		}
		return e.Send(addr, auth)
	}
}
