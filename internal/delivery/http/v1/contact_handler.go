package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"agency-contact-backend/internal/delivery/http/response"
	"agency-contact-backend/internal/domain"
	"agency-contact-backend/pkg/apperror"
	"agency-contact-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const contactAcknowledgement = "Thank you for your message. We will get back to you within 24 hours."

type ContactHandler struct {
	contactUC domain.ContactUsecase
	secLog    *security.SecurityLogger
}

// NewContactHandler registers the contact routes (public, rate limited)
func NewContactHandler(public *gin.RouterGroup, contactUC domain.ContactUsecase, rateLimit gin.HandlerFunc, secLog *security.SecurityLogger) {
	handler := &ContactHandler{
		contactUC: contactUC,
		secLog:    secLog,
	}

	public.POST("/contact", rateLimit, handler.SubmitContact)
}

// SubmitContact godoc
// @Summary      Submit Contact Form
// @Description  Send a message through the agency contact form. Limited to 5 submissions per client every 15 minutes.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        contact  body      domain.ContactRequest  true  "Contact Form Data"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      405      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	clientID := c.GetString("ClientID")

	var req domain.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Decoding keeps filling fields after a type mismatch, so a filled
		// honeypot is still seen and answered as spam, not as a field error.
		if req.Honeypot.Filled() {
			if _, spamErr := h.contactUC.Submit(c.Request.Context(), clientID, &req); spamErr != nil {
				c.Error(spamErr)
				return
			}
		}
		fields := bindErrorFields(err)
		h.secLog.LogRejected(c.Request.Context(), security.EventValidationFailed, security.StageParse,
			clientID, c.GetString("RequestID"), map[string]interface{}{"error": err.Error()})
		c.Error(apperror.Validation(fields))
		return
	}

	res, err := h.contactUC.Submit(c.Request.Context(), clientID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, contactAcknowledgement, res)
}

// bindErrorFields turns a JSON decoding failure into validation entries
func bindErrorFields(err error) []apperror.FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return []apperror.FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("Expected %s", typeErr.Type.Kind()),
		}}
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return []apperror.FieldError{{Field: "body", Message: "Request body is too large"}}
	}

	return []apperror.FieldError{{Field: "body", Message: "Invalid JSON payload"}}
}

// methodNotAllowed answers 405 for any method without a route
func methodNotAllowed(c *gin.Context) {
	c.Error(apperror.MethodNotAllowed())
}

// routeNotFound answers 404 in the standard envelope
func routeNotFound(c *gin.Context) {
	c.Error(apperror.NotFound("Not found"))
}
