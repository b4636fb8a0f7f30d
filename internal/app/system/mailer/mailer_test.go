package mailer

import (
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratacms/internal/domain/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type sent struct {
	addr string
	from string
	to   []string
	msg  string
}

type fakeSMTP struct {
	mu   sync.Mutex
	msgs []sent
	err  error
}

func (f *fakeSMTP) send(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, sent{addr: addr, from: from, to: to, msg: string(msg)})
	return nil
}

func newTestMailer(f *fakeSMTP, log *zap.Logger) *Mailer {
	m := New(Config{Host: "smtp.example.com", Port: 587, From: "noreply@example.com", FromName: "Institute"}, log)
	m.send = f.send
	m.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return m
}

func TestSend(t *testing.T) {
	f := &fakeSMTP{}
	m := newTestMailer(f, zap.NewNop())

	err := m.Send(Email{To: "owner@example.com", ReplyTo: "lead@example.com", Subject: "Hi", TextBody: "line one\nline two"})
	if err != nil {
		t.Fatalf("Send() = %v", err)
	}
	if len(f.msgs) != 1 {
		t.Fatalf("sent %d messages", len(f.msgs))
	}
	got := f.msgs[0]
	if got.addr != "smtp.example.com:587" || got.from != "noreply@example.com" || got.to[0] != "owner@example.com" {
		t.Errorf("envelope = %+v", got)
	}
	for _, want := range []string{
		"From: Institute <noreply@example.com>\r\n",
		"To: owner@example.com\r\n",
		"Reply-To: lead@example.com\r\n",
		"Subject: Hi\r\n",
		"Content-Type: text/plain; charset=UTF-8\r\n",
		"\r\n\r\nline one\r\nline two",
	} {
		if !strings.Contains(got.msg, want) {
			t.Errorf("message missing %q:\n%s", want, got.msg)
		}
	}
}

func TestSend_HeaderInjection(t *testing.T) {
	f := &fakeSMTP{}
	m := newTestMailer(f, zap.NewNop())

	if err := m.Send(Email{To: "owner@example.com", Subject: "Hello\r\nBcc: victim@example.com", TextBody: "x"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(f.msgs[0].msg, "\r\nBcc:") {
		t.Errorf("header injected:\n%s", f.msgs[0].msg)
	}
	if !strings.Contains(f.msgs[0].msg, "Subject: Hello Bcc: victim@example.com\r\n") {
		t.Errorf("subject not flattened:\n%s", f.msgs[0].msg)
	}
}

func TestSend_NotConfigured(t *testing.T) {
	m := New(Config{}, zap.NewNop())
	if err := m.Send(Email{To: "a@example.com"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Send() = %v, want ErrNotConfigured", err)
	}
}

func TestSend_Failure(t *testing.T) {
	f := &fakeSMTP{err: errors.New("550 mailbox unavailable")}
	core, logs := observer.New(zap.ErrorLevel)
	m := newTestMailer(f, zap.New(core))

	if err := m.Send(Email{To: "owner@example.com", Subject: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if logs.FilterMessage("failed to send email").Len() != 1 {
		t.Error("expected failure to be logged")
	}
}

func TestLeadNotifier(t *testing.T) {
	f := &fakeSMTP{}
	m := newTestMailer(f, zap.NewNop())

	if NewLeadNotifier(m, "  ", zap.NewNop()) != nil {
		t.Error("empty recipient should disable notifications")
	}
	if NewLeadNotifier(New(Config{}, zap.NewNop()), "owner@example.com", zap.NewNop()) != nil {
		t.Error("unconfigured mailer should disable notifications")
	}

	var disabled *LeadNotifier
	disabled.LeadReceived(models.Lead{Name: "x"})
	disabled.Wait()

	n := NewLeadNotifier(m, "owner@example.com", zap.NewNop())
	n.LeadReceived(models.Lead{
		Name:       "Asha",
		Email:      "asha@example.com",
		CourseSlug: "rhcsa",
		Message:    "Weekend batch?",
		CreatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	n.Wait()

	if len(f.msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(f.msgs))
	}
	msg := f.msgs[0].msg
	for _, want := range []string{"Subject: New enquiry from Asha (rhcsa)", "Reply-To: asha@example.com", "Course: rhcsa", "Weekend batch?"} {
		if !strings.Contains(msg, want) {
			t.Errorf("notification missing %q", want)
		}
	}
}

func TestLeadNotifier_FailureLogged(t *testing.T) {
	f := &fakeSMTP{err: errors.New("connection refused")}
	core, logs := observer.New(zap.WarnLevel)
	n := NewLeadNotifier(newTestMailer(f, zap.NewNop()), "owner@example.com", zap.New(core))

	n.LeadReceived(models.Lead{Name: "Asha", Email: "asha@example.com"})
	n.Wait()

	if logs.FilterMessage("lead notification not delivered").Len() != 1 {
		t.Error("expected delivery failure warning")
	}
}
