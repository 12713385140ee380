package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// SMTPConfig carries the relay settings used for delivery.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// NewSendEmailHandler returns the TaskTypeSendEmail handler delivering
// over plain SMTP. A malformed payload is dropped without retry.
func NewSendEmailHandler(cfg SMTPConfig, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	addr := cfg.Host + ":" + strconv.Itoa(cfg.Port)
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeSendEmail)
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(fmt.Errorf("decode mail payload: %v: %w", err, asynq.SkipRetry))
		}
		if payload.To == "" {
			return tracker.End(fmt.Errorf("mail payload missing recipient: %w", asynq.SkipRetry))
		}
		msg := buildMessage(cfg.From, payload)
		if err := smtp.SendMail(addr, nil, cfg.From, []string{payload.To}, msg); err != nil {
			return tracker.End(fmt.Errorf("smtp send to %s: %w", payload.To, err))
		}
		if logger != nil {
			logger.Info("mail delivered", slog.String("to", payload.To), slog.String("subject", payload.Subject))
		}
		return tracker.End(nil)
	}
}

func buildMessage(from string, payload SendEmailPayload) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + payload.To + "\r\n")
	b.WriteString("Subject: " + payload.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(payload.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
