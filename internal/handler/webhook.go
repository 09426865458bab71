package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace/internal/service"
)

// WebhookHandler handles inbound processor events.
type WebhookHandler struct {
	webhookService *service.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// HandleStripeWebhook handles POST /v1/transactions/stripe/webhook.
// The body must stay raw: signature verification covers the exact bytes.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondBadRequest(c, "unable to read request body")
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if err := h.webhookService.HandleEvent(c.Request.Context(), payload, sigHeader); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
