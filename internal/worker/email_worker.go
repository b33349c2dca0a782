package worker

// email_worker.go
// Processes email jobs from QueueEmail: commission statements sent to sales reps.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Sender delivers one message; *infra.Mailer implements it.
type Sender interface {
	Send(to, subject, body, attachmentPath string) error
}

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail        string `json:"to_email"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	AttachmentPath string `json:"attachment_path,omitempty"`
}

type EmailWorker struct {
	mailer Sender
}

func NewEmailWorker(mailer Sender) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

// Process sends an email with the optional attachment. Malformed payloads are
// dropped; delivery failures are returned so the pool retries them.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}

	if w.mailer == nil {
		return fmt.Errorf("email_worker: smtp not configured, cannot send to %s", payload.ToEmail)
	}
	if err := w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body, payload.AttachmentPath); err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).Msg("email_worker: message sent")
	return nil
}
