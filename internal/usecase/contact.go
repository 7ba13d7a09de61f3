package usecase

import (
	"context"
	"errors"
	"time"

	"agency-contact-backend/internal/domain"
	"agency-contact-backend/pkg/apperror"
	"agency-contact-backend/pkg/security"
	"agency-contact-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	msgSpamDetected  = "Spam detected"
	msgLooksLikeSpam = "Message appears to be spam"
)

type contactUsecase struct {
	recorder domain.SubmissionRecorder
	validate *validator.Validate
	spam     *security.SpamFilter
	secLog   *security.SecurityLogger
	now      func() time.Time
	newID    func() string
}

// ContactOption customizes the contact usecase
type ContactOption func(*contactUsecase)

// WithClock overrides the timestamp source for accepted submissions
func WithClock(now func() time.Time) ContactOption {
	return func(uc *contactUsecase) { uc.now = now }
}

// WithIDGenerator overrides submission ID generation
func WithIDGenerator(newID func() string) ContactOption {
	return func(uc *contactUsecase) { uc.newID = newID }
}

// NewContactUsecase creates a new contact usecase
func NewContactUsecase(
	recorder domain.SubmissionRecorder,
	validate *validator.Validate,
	spam *security.SpamFilter,
	secLog *security.SecurityLogger,
	opts ...ContactOption,
) domain.ContactUsecase {
	if validate == nil {
		validate = validation.New()
	}
	if spam == nil {
		spam = security.NewSpamFilter(nil, 0)
	}
	uc := &contactUsecase{
		recorder: recorder,
		validate: validate,
		spam:     spam,
		secLog:   secLog,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Submit runs the honeypot, validation and spam checks, then records the submission.
// Rate limiting happens before this, in the HTTP middleware.
func (uc *contactUsecase) Submit(ctx context.Context, clientID string, req *domain.ContactRequest) (*domain.SubmitResult, error) {
	if req == nil {
		return nil, apperror.Internal(errors.New("contact: nil request"))
	}
	requestID, _ := ctx.Value(domain.KeyRequestID).(string)

	// A filled honeypot is a bot no matter what else the payload holds
	if req.Honeypot.Filled() {
		uc.secLog.LogRejected(ctx, security.EventHoneypotTriggered, security.StageHoneypot, clientID, requestID, nil)
		return nil, apperror.BadRequest(msgSpamDetected)
	}

	if err := uc.validate.Struct(req); err != nil {
		fields := validation.FormatValidationErrors(err)
		failed := make([]string, len(fields))
		for i, f := range fields {
			failed[i] = f.Field
		}
		uc.secLog.LogRejected(ctx, security.EventValidationFailed, security.StageValidation, clientID, requestID,
			map[string]interface{}{"fields": failed})
		return nil, apperror.Validation(fields)
	}

	if reason := uc.spam.Check(req.Name + " " + req.Message); reason != security.SpamReasonNone {
		uc.secLog.LogRejected(ctx, security.EventSpamDetected, security.StageSpamScan, clientID, requestID,
			map[string]interface{}{"reason": string(reason)})
		return nil, apperror.BadRequest(msgLooksLikeSpam)
	}

	submission := &domain.ContactSubmission{
		ID:         uc.newID(),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Company:    req.Company,
		Message:    req.Message,
		ClientID:   clientID,
		ReceivedAt: uc.now().UTC(),
	}

	if err := uc.recorder.Record(ctx, submission); err != nil {
		uc.secLog.LogRejected(ctx, security.EventServerError, security.StageAccept, clientID, requestID,
			map[string]interface{}{"error": err.Error()})
		return nil, apperror.Internal(err)
	}

	uc.secLog.LogContactSubmitted(ctx, submission.Email, clientID, requestID, submission.ID)
	return &domain.SubmitResult{SubmissionID: submission.ID}, nil
}
