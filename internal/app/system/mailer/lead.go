// internal/app/system/mailer/lead.go
package mailer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dalemusser/stratacms/internal/domain/models"
	"go.uber.org/zap"
)

// LeadNotifier emails the site owner when a lead arrives. Delivery is
// asynchronous and best effort: a failed send is logged, never retried, and
// never affects the stored lead.
type LeadNotifier struct {
	mailer *Mailer
	to     string
	log    *zap.Logger
	wg     sync.WaitGroup
}

// NewLeadNotifier returns nil when mailing is not configured or to is empty;
// a nil *LeadNotifier is a no-op.
func NewLeadNotifier(m *Mailer, to string, log *zap.Logger) *LeadNotifier {
	if !m.Enabled() || strings.TrimSpace(to) == "" {
		return nil
	}
	return &LeadNotifier{mailer: m, to: strings.TrimSpace(to), log: log}
}

// LeadReceived sends the notification in the background.
func (n *LeadNotifier) LeadReceived(lead models.Lead) {
	if n == nil {
		return
	}
	email := LeadEmail(n.to, lead)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.mailer.Send(email); err != nil {
			n.log.Warn("lead notification not delivered",
				zap.String("lead_id", lead.ID.Hex()),
				zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight notifications finish.
func (n *LeadNotifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

// LeadEmail builds the notification for lead. Replies go to the lead.
func LeadEmail(to string, lead models.Lead) Email {
	subject := "New enquiry from " + lead.Name
	if lead.CourseSlug != "" {
		subject += " (" + lead.CourseSlug + ")"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	if lead.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", lead.Phone)
	}
	if lead.CourseSlug != "" {
		fmt.Fprintf(&b, "Course: %s\n", lead.CourseSlug)
	}
	if lead.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", lead.Source)
	}
	fmt.Fprintf(&b, "Received: %s\n", lead.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))
	if lead.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", lead.Message)
	}

	return Email{
		To:       to,
		ReplyTo:  lead.Email,
		Subject:  subject,
		TextBody: b.String(),
	}
}
