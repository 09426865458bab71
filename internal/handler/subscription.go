package handler

import (
	"github.com/gin-gonic/gin"

	"marketplace/internal/service"
)

// SubscriptionHandler handles subscription and connected-account requests.
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// CreateCustomerRequest is the HTTP request body for customer creation.
type CreateCustomerRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// CreateCustomer handles POST /v1/transactions/stripe/customer
func (h *SubscriptionHandler) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	customerID, err := h.subscriptionService.EnsureCustomer(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Stripe customer ready", gin.H{"stripeCustomerId": customerID})
}

// StartSubscriptionRequest is the HTTP request body for checkout.
type StartSubscriptionRequest struct {
	UserID     string `json:"userId" binding:"required"`
	PriceID    string `json:"priceId" binding:"required"`
	SuccessURL string `json:"successUrl" binding:"required"`
	CancelURL  string `json:"cancelUrl" binding:"required"`
}

// StartSubscription handles POST /v1/transactions/subscriptions/start
func (h *SubscriptionHandler) StartSubscription(c *gin.Context) {
	var req StartSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	session, err := h.subscriptionService.StartSubscription(c.Request.Context(), service.StartSubscriptionRequest{
		UserID:     req.UserID,
		PriceID:    req.PriceID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Checkout session created", session)
}

// CancelSubscriptionRequest is the HTTP request body for cancellation.
type CancelSubscriptionRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// CancelSubscription handles POST /v1/transactions/subscriptions/cancel
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	var req CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.subscriptionService.CancelSubscription(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Subscription cancellation scheduled", result)
}

// AccountLinkRequest is the HTTP request body for onboarding links.
type AccountLinkRequest struct {
	UserID     string `json:"userId" binding:"required"`
	RefreshURL string `json:"refreshUrl" binding:"required"`
	ReturnURL  string `json:"returnUrl" binding:"required"`
}

// CreateAccountLink handles POST /v1/transactions/connect/account-link
func (h *SubscriptionHandler) CreateAccountLink(c *gin.Context) {
	var req AccountLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	url, err := h.subscriptionService.CreateAccountLink(c.Request.Context(), service.AccountLinkRequest{
		UserID:     req.UserID,
		RefreshURL: req.RefreshURL,
		ReturnURL:  req.ReturnURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Account link created", gin.H{"url": url})
}

// AccountStatus handles GET /v1/transactions/connect/status/:userId
func (h *SubscriptionHandler) AccountStatus(c *gin.Context) {
	status, err := h.subscriptionService.CheckAccountStatus(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Account status retrieved", status)
}

// LinkedAccounts handles GET /v1/transactions/connect/accounts/:userId
func (h *SubscriptionHandler) LinkedAccounts(c *gin.Context) {
	accounts, err := h.subscriptionService.GetLinkedAccounts(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Linked accounts retrieved", accounts)
}
