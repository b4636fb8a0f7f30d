// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/dalemusser/stratacms/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by Send when no SMTP host is set.
var ErrNotConfigured = errors.New("mailer: smtp host not configured")

// Mailer sends plain-text emails via SMTP.
type Mailer struct {
	host     string
	port     int
	user     string
	pass     string
	from     string
	fromName string
	log      *zap.Logger

	// send delivers a composed message; replaced in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  func() time.Time
}

// Config holds the configuration for creating a Mailer.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// New creates a new Mailer with the given configuration.
func New(cfg Config, log *zap.Logger) *Mailer {
	m := &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		pass:     cfg.Pass,
		from:     cfg.From,
		fromName: cfg.FromName,
		log:      log,
		now:      time.Now,
	}
	m.send = m.sendSMTP
	return m
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.host != ""
}

// Email represents an email to be sent.
type Email struct {
	To       string
	ReplyTo  string
	Subject  string
	TextBody string
}

// headerValue strips CR and LF so user-supplied text (a lead's name in a
// subject, say) cannot add headers.
func headerValue(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

// compose builds the RFC 5322 message.
func (m *Mailer) compose(email Email) []byte {
	from := m.from
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", headerValue(m.fromName), m.from)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", headerValue(email.To))
	if email.ReplyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", headerValue(email.ReplyTo))
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n", headerValue(email.Subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", m.now().UTC().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(email.TextBody, "\n", "\r\n"))
	return msg.Bytes()
}

// Send sends an email.
func (m *Mailer) Send(email Email) error {
	if !m.Enabled() {
		return ErrNotConfigured
	}

	addr := net.JoinHostPort(m.host, fmt.Sprint(m.port))

	var auth smtp.Auth
	if m.user != "" && m.pass != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := m.send(addr, auth, m.from, []string{email.To}, m.compose(email)); err != nil {
		m.log.Error("failed to send email",
			zap.String("to", email.To),
			zap.String("subject", email.Subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.log.Info("email sent",
		zap.String("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}

// sendSMTP is smtp.SendMail with the whole exchange bounded by
// timeouts.Notify.
func (m *Mailer) sendSMTP(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	timeout := timeouts.Notify()
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		conn.Close()
		return err
	}

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}
	if a != nil {
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
