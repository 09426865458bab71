package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"marketplace/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationPaymentSuccess      NotificationType = "PAYMENT_SUCCESS"
	NotificationPaymentFailed       NotificationType = "PAYMENT_FAILED"
	NotificationWithdrawalInitiated NotificationType = "WITHDRAWAL_INITIATED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService delivers fire-and-forget notifications. Delivery
// failures never affect the payment flow that triggered them.
type NotificationService struct {
	// In a real deployment this would carry:
	// - Push notification client (FCM, APNS)
	// - Email client (SendGrid)
	// - WebSocket fan-out for in-app delivery
	log *logrus.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(log *logrus.Logger) *NotificationService {
	return &NotificationService{log: log}
}

// NotifyPaymentSucceeded notifies the payer that the payment settled.
func (s *NotificationService) NotifyPaymentSucceeded(ctx context.Context, payment *domain.Payment) {
	s.send(ctx, Notification{
		Type:        NotificationPaymentSuccess,
		RecipientID: payment.UserID,
		Title:       "Payment Successful",
		Message:     fmt.Sprintf("Payment of $%s was successful", payment.Amount.StringFixed(2)),
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"amount":     payment.Amount.String(),
			"type":       payment.Type,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentFailed notifies the payer that the payment failed.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, payment *domain.Payment) {
	s.send(ctx, Notification{
		Type:        NotificationPaymentFailed,
		RecipientID: payment.UserID,
		Title:       "Payment Failed",
		Message:     fmt.Sprintf("Payment of $%s failed. Please try again.", payment.Amount.StringFixed(2)),
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"amount":     payment.Amount.String(),
		},
		CreatedAt: time.Now(),
	})
}

// NotifyWithdrawalInitiated notifies the user that a payout is on its way.
func (s *NotificationService) NotifyWithdrawalInitiated(ctx context.Context, payment *domain.Payment) {
	s.send(ctx, Notification{
		Type:        NotificationWithdrawalInitiated,
		RecipientID: payment.UserID,
		Title:       "Withdrawal Initiated",
		Message:     fmt.Sprintf("Withdrawal of $%s to your bank account has been initiated", payment.Amount.StringFixed(2)),
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"amount":     payment.Amount.String(),
			"bank_id":    payment.DestinationBankID,
		},
		CreatedAt: time.Now(),
	})
}

// send delivers a notification (log-only implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) {
	s.log.WithFields(logrus.Fields{
		"type":      notification.Type,
		"recipient": notification.RecipientID,
		"title":     notification.Title,
	}).Info(notification.Message)
}
