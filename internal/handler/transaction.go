package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"marketplace/internal/domain"
	"marketplace/internal/repository"
	"marketplace/internal/service"
)

// TransactionHandler handles HTTP requests for the transaction flows.
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest is the HTTP request body for initiating a payment.
type CreateTransactionRequest struct {
	UserID   string          `json:"userId" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Source   string          `json:"source" binding:"required"`
	Type     string          `json:"type" binding:"required"`
	TypeID   string          `json:"typeId"`
	Flow     string          `json:"flow" binding:"required"`
	Currency string          `json:"currency"`
}

// CreateTransaction handles POST /v1/transactions/create
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.transactionService.InitiatePayment(c.Request.Context(), service.InitiatePaymentRequest{
		UserID:   req.UserID,
		Amount:   req.Amount,
		Source:   domain.PaymentSource(req.Source),
		Type:     domain.PaymentType(req.Type),
		TypeID:   req.TypeID,
		Flow:     domain.PaymentFlow(req.Flow),
		Currency: req.Currency,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Payment initiated"
	if result.Status == domain.PaymentStatusSuccess {
		message = "Payment successful"
	}
	respondCreated(c, message, result)
}

// VerifyTransaction handles GET /v1/transactions/verify-transaction/:id
func (h *TransactionHandler) VerifyTransaction(c *gin.Context) {
	payment, err := h.transactionService.VerifyTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Transaction verification status", payment)
}

// WithdrawRequest is the HTTP request body for requesting a withdrawal.
type WithdrawRequest struct {
	UserID        string          `json:"userId" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	BankAccountID string          `json:"bankAccountId" binding:"required"`
	Currency      string          `json:"currency"`
}

// Withdraw handles POST /v1/transactions/withdraw
func (h *TransactionHandler) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	payment, err := h.transactionService.RequestWithdrawal(c.Request.Context(), service.WithdrawalRequest{
		UserID:        req.UserID,
		Amount:        req.Amount,
		BankAccountID: req.BankAccountID,
		Currency:      req.Currency,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Withdrawal initiated", payment)
}

// GetWallet handles GET /v1/transactions/wallet/:userId
func (h *TransactionHandler) GetWallet(c *gin.Context) {
	wallet, err := h.transactionService.GetWallet(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Wallet retrieved", wallet)
}

// ListTransactions handles GET /v1/transactions
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID := c.Query("userId")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	filter := repository.PaymentFilter{
		Type:   domain.PaymentType(c.Query("type")),
		Source: domain.PaymentSource(c.Query("source")),
		Status: domain.PaymentStatus(c.Query("status")),
		Flow:   domain.PaymentFlow(c.Query("flow")),
		Page:   page,
		Limit:  limit,
	}

	payments, total, err := h.transactionService.ListTransactions(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	if payments == nil {
		payments = []*domain.Payment{}
	}
	respondPage(c, "Transactions retrieved successfully", payments, page, total)
}
