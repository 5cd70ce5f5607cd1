// AngelaMos | 2026
// transport.go

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wattgrid/marketplace-api/internal/config"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

type Transport interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// NewTransport picks the mail transport named in cfg.Transport.
func NewTransport(cfg config.MailConfig, logger *slog.Logger) (Transport, error) {
	switch cfg.Transport {
	case config.MailTransportSMTP:
		return NewSMTPTransport(cfg), nil
	case config.MailTransportSendGrid:
		return NewSendGridTransport(cfg), nil
	case config.MailTransportLog:
		return NewLogTransport(logger), nil
	}
	return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
}

type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
}

func NewSMTPTransport(cfg config.MailConfig) *SMTPTransport {
	return &SMTPTransport{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
	}
}

func (t *SMTPTransport) Name() string { return config.MailTransportSMTP }

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		//nolint:errcheck // deadline is best-effort; the send fails on its own if ignored
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		_ = conn.Close() //nolint:errcheck // cleanup on handshake failure
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close() //nolint:errcheck // Quit below reports the meaningful error

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{
			ServerName: t.host,
			MinVersion: tls.VersionTLS12,
		}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if t.username != "" {
		auth := smtp.PlainAuth("", t.username, t.password, t.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(t.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := wc.Write(t.buildMIME(msg)); err != nil {
		_ = wc.Close() //nolint:errcheck // write already failed
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}

	return client.Quit()
}

func (t *SMTPTransport) buildMIME(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", t.fromName), t.from)
	if msg.ToName != "" {
		fmt.Fprintf(&b, "To: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", msg.ToName), msg.To)
	} else {
		fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	fmt.Fprintf(&b, "Date: %s\r\n\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

type SendGridTransport struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridTransport(cfg config.MailConfig) *SendGridTransport {
	return &SendGridTransport{
		client:   sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
	}
}

func (t *SendGridTransport) Name() string { return config.MailTransportSendGrid }

func (t *SendGridTransport) Send(ctx context.Context, msg Message) error {
	email := sgmail.NewSingleEmail(
		sgmail.NewEmail(t.fromName, t.from),
		msg.Subject,
		sgmail.NewEmail(msg.ToName, msg.To),
		"",
		msg.HTML,
	)

	resp, err := t.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}

// LogTransport writes mail to the logger instead of delivering it. Used in
// development and tests.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Name() string { return config.MailTransportLog }

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	t.logger.InfoContext(ctx, "mail suppressed by log transport",
		"to", msg.To,
		"subject", msg.Subject,
		"bytes", len(msg.HTML),
	)
	t.logger.DebugContext(ctx, "mail body", "to", msg.To, "html", msg.HTML)
	return nil
}
