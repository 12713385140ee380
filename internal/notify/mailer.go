// Package notify bridges the workflow services to the background mail
// queue. Services treat delivery as best effort; enqueue failures are
// logged by the caller, never returned to the request.
package notify

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian-erp/jobs"
)

// Mailer queues outbound mail for the worker to deliver.
type Mailer struct {
	client *jobs.Client
}

// NewMailer constructs Mailer.
func NewMailer(client *jobs.Client) *Mailer {
	return &Mailer{client: client}
}

// Send enqueues one message. It satisfies the NotifierPort of the
// interview and resignation services.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("notify: mail queue not configured")
	}
	_, err := m.client.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      to,
		Subject: subject,
		Body:    body,
	})
	return err
}
