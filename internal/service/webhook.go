package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"marketplace/internal/domain"
	"marketplace/internal/metrics"
	"marketplace/internal/repository"
	"marketplace/internal/stripe"
)

// WebhookService maps signed processor events to plan and ledger updates.
type WebhookService struct {
	secret       string
	paymentRepo  repository.PaymentRepository
	userRepo     repository.UserRepository
	stripeClient stripe.Client
	log          *logrus.Logger
}

// NewWebhookService creates a new WebhookService. An empty secret disables
// signature verification; events are then accepted as-is. That fallback is
// deliberate and mirrors the upstream deployment.
func NewWebhookService(
	secret string,
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	stripeClient stripe.Client,
	log *logrus.Logger,
) *WebhookService {
	return &WebhookService{
		secret:       secret,
		paymentRepo:  paymentRepo,
		userRepo:     userRepo,
		stripeClient: stripeClient,
		log:          log,
	}
}

// HandleEvent verifies and processes one raw webhook delivery. Unrecognized
// event types are acknowledged and ignored.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	var event *stripe.Event
	var err error

	if s.secret == "" {
		event, err = stripe.ParseEvent(payload)
	} else {
		event, err = stripe.ConstructEvent(payload, sigHeader, s.secret, stripe.DefaultTolerance)
	}
	if err != nil {
		if errors.Is(err, stripe.ErrInvalidSignature) || errors.Is(err, stripe.ErrExpiredSignature) {
			metrics.WebhookEvents.WithLabelValues("unknown", "bad_signature").Inc()
			return ErrInvalidWebhookSignature
		}
		return err
	}

	outcome := "ok"
	switch event.Type {
	case "checkout.session.completed":
		err = s.onCheckoutCompleted(ctx, event)
	case "invoice.payment_succeeded":
		err = s.onInvoicePaid(ctx, event)
	case "invoice.payment_failed":
		err = s.onInvoiceFailed(ctx, event)
	case "customer.subscription.deleted":
		err = s.onSubscriptionDeleted(ctx, event)
	default:
		outcome = "ignored"
	}
	if err != nil {
		outcome = "error"
	}
	metrics.WebhookEvents.WithLabelValues(event.Type, outcome).Inc()

	return err
}

func (s *WebhookService) onCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSessionEvent
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return err
	}

	user, err := s.userByCustomer(ctx, session.Customer, event.Type)
	if err != nil || user == nil {
		return err
	}

	return s.userRepo.UpdatePlan(ctx, user.ID, domain.PlanPremium, user.NextPaymentDate)
}

func (s *WebhookService) onInvoicePaid(ctx context.Context, event *stripe.Event) error {
	var invoice stripe.InvoiceEvent
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return err
	}

	user, err := s.userByCustomer(ctx, invoice.Customer, event.Type)
	if err != nil || user == nil {
		return err
	}

	periodEnd := time.Now().Add(premiumPeriod)
	if len(invoice.Lines.Data) > 0 && invoice.Lines.Data[0].Period.End > 0 {
		periodEnd = time.Unix(invoice.Lines.Data[0].Period.End, 0)
	}
	if err := s.userRepo.UpdatePlan(ctx, user.ID, domain.PlanPremium, &periodEnd); err != nil {
		return err
	}

	// Deliveries are at-least-once; record the inbound payment only for the
	// first success event carrying this invoice. A failed attempt for the
	// same invoice must not mask the retried success.
	if existing, err := s.paymentRepo.GetByInvoiceID(ctx, invoice.ID, domain.PaymentStatusSuccess); err != nil {
		return err
	} else if existing != nil {
		s.log.WithFields(logrus.Fields{
			"invoice_id": invoice.ID,
			"payment_id": existing.ID,
		}).Info("webhook: invoice already recorded, replay ignored")
		return nil
	}

	typeID := invoice.Subscription
	if typeID == "" {
		typeID = invoice.ID
	}

	return s.paymentRepo.Create(ctx, &domain.Payment{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		Amount:         fromCents(invoice.AmountPaid),
		Source:         domain.PaymentSourceStripe,
		Type:           domain.PaymentTypeSubscription,
		Flow:           domain.PaymentFlowInbound,
		TypeID:         typeID,
		SubscriptionID: invoice.Subscription,
		InvoiceID:      invoice.ID,
		Status:         domain.PaymentStatusSuccess,
	})
}

func (s *WebhookService) onInvoiceFailed(ctx context.Context, event *stripe.Event) error {
	var invoice stripe.InvoiceEvent
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return err
	}

	user, err := s.userByCustomer(ctx, invoice.Customer, event.Type)
	if err != nil || user == nil {
		return err
	}

	typeID := invoice.ID
	if typeID == "" {
		typeID = "invoice"
	}

	return s.paymentRepo.Create(ctx, &domain.Payment{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Amount:    decimal.Zero,
		Source:    domain.PaymentSourceStripe,
		Type:      domain.PaymentTypeSubscription,
		Flow:      domain.PaymentFlowInbound,
		TypeID:    typeID,
		InvoiceID: invoice.ID,
		Status:    domain.PaymentStatusFailed,
	})
}

func (s *WebhookService) onSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var sub stripe.SubscriptionEvent
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}

	// The deletion event may omit the customer; re-fetch the subscription.
	customerID := sub.Customer
	if customerID == "" {
		full, err := s.stripeClient.RetrieveSubscription(ctx, sub.ID)
		if err != nil {
			return err
		}
		customerID = full.Customer
	}

	user, err := s.userByCustomer(ctx, customerID, event.Type)
	if err != nil || user == nil {
		return err
	}

	return s.userRepo.UpdatePlan(ctx, user.ID, domain.PlanFree, nil)
}

// userByCustomer resolves a processor customer to a local user. An unknown
// customer is logged and the event acknowledged; there is nothing local to
// update.
func (s *WebhookService) userByCustomer(ctx context.Context, customerID, eventType string) (*domain.User, error) {
	if customerID == "" {
		return nil, nil
	}
	user, err := s.userRepo.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.WithFields(logrus.Fields{
				"customer_id": customerID,
				"event":       eventType,
			}).Warn("webhook: no user for processor customer")
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}
