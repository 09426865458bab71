package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace/internal/repository"
	"marketplace/internal/service"
)

// Envelope is the uniform response body.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// PaginatedEnvelope extends the envelope for list endpoints.
type PaginatedEnvelope struct {
	Envelope
	Page  int `json:"page"`
	Total int `json:"total"`
}

// respondOK sends a success envelope.
func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// respondCreated sends a success envelope with 201.
func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// respondPage sends a paginated success envelope.
func respondPage(c *gin.Context, message string, data any, page, total int) {
	c.JSON(http.StatusOK, PaginatedEnvelope{
		Envelope: Envelope{Success: true, Message: message, Data: data},
		Page:     page,
		Total:    total,
	})
}

// respondError maps the error to an HTTP status and sends a failure envelope.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		// Do not leak driver/processor internals to clients.
		message = "internal error"
		_ = c.Error(err)
	}
	c.JSON(code, Envelope{Success: false, Message: message, Data: nil})
}

// respondBadRequest sends a failure envelope for malformed input.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Message: message, Data: nil})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation and balance errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidPaymentID),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPaymentSource),
		errors.Is(err, service.ErrInvalidPaymentType),
		errors.Is(err, service.ErrWalletTopUpFromWallet),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrNoConnectedAccount),
		errors.Is(err, service.ErrBankAccountNotLinked),
		errors.Is(err, service.ErrInvalidWebhookSignature):
		return http.StatusBadRequest

	// No subscription to cancel
	case errors.Is(err, service.ErrNoActiveSubscription):
		return http.StatusNotFound

	// Conflicting concurrent wallet operations
	case errors.Is(err, service.ErrWalletLocked):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
