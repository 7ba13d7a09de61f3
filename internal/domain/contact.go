package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
)

// ContactRequest represents a contact form submission
type ContactRequest struct {
	Name    string `json:"name" validate:"min=2,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Message string `json:"message" validate:"min=10,max=5000"`
	// Honeypot is hidden from humans in the site form; bots fill it in
	Honeypot HoneypotValue `json:"honeypot" swaggertype:"string"`
}

// HoneypotValue decodes from any JSON value. Null stays empty; a non-string
// value such as 1 or false is kept verbatim so it counts as filled.
type HoneypotValue string

func (h *HoneypotValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*h = HoneypotValue(s)
		return nil
	}
	*h = HoneypotValue(data)
	return nil
}

// Filled reports whether the bait field carries anything
func (h HoneypotValue) Filled() bool {
	return h != ""
}

// ContactSubmission is an accepted contact request, ready for downstream delivery
type ContactSubmission struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Company    string    `json:"company,omitempty"`
	Message    string    `json:"message"`
	ClientID   string    `json:"client_id"`
	ReceivedAt time.Time `json:"received_at"`
}

// SubmitResult is returned to the caller on success
type SubmitResult struct {
	SubmissionID string `json:"submission_id"`
}

// ContactUsecase defines the interface for contact form operations
type ContactUsecase interface {
	// Submit checks the request for spam, validates it and records it
	Submit(ctx context.Context, clientID string, req *ContactRequest) (*SubmitResult, error)
}

// SubmissionRecorder receives accepted submissions.
// Durable storage, email notification and CRM sync implement this later.
type SubmissionRecorder interface {
	Record(ctx context.Context, submission *ContactSubmission) error
}
