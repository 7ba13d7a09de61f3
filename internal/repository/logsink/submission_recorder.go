package logsink

import (
	"context"
	"log/slog"
	"time"

	"agency-contact-backend/internal/domain"
)

const notProvided = "Not provided"

type submissionRecorder struct {
	log *slog.Logger
}

// NewSubmissionRecorder emits accepted submissions as structured log records.
// It stands in for durable storage until a database-backed recorder exists.
func NewSubmissionRecorder(log *slog.Logger) domain.SubmissionRecorder {
	return &submissionRecorder{log: log}
}

func (r *submissionRecorder) Record(ctx context.Context, s *domain.ContactSubmission) error {
	r.log.InfoContext(ctx, "Contact form submission",
		"submission_id", s.ID,
		"name", s.Name,
		"email", s.Email,
		"phone", orNotProvided(s.Phone),
		"company", orNotProvided(s.Company),
		"message", s.Message,
		"timestamp", s.ReceivedAt.UTC().Format(time.RFC3339Nano),
		"client_ip", s.ClientID,
	)
	return nil
}

func orNotProvided(v string) string {
	if v == "" {
		return notProvided
	}
	return v
}
