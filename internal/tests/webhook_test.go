package tests

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"marketplace/internal/domain"
	"marketplace/internal/service"
	"marketplace/internal/stripe"
)

// ──────────────────────────────────────────────
// WEBHOOK PROCESSING
// ──────────────────────────────────────────────

const webhookSecret = "whsec_test"

type webhookFixture struct {
	paymentRepo  *MockPaymentRepository
	userRepo     *MockUserRepository
	stripeClient *MockStripeClient
	svc          *service.WebhookService
}

func newWebhookFixture(secret string) *webhookFixture {
	f := &webhookFixture{
		paymentRepo:  NewMockPaymentRepository(),
		userRepo:     NewMockUserRepository(),
		stripeClient: NewMockStripeClient(),
	}
	f.svc = service.NewWebhookService(secret, f.paymentRepo, f.userRepo, f.stripeClient, testLogger())
	return f
}

func signedHeader(payload []byte) string {
	return stripe.SignPayload(payload, webhookSecret, time.Now())
}

func TestHandleEvent_BadSignature_Rejected(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(webhookSecret)
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{}}}`)

	err := f.svc.HandleEvent(context.Background(), payload, stripe.SignPayload(payload, "whsec_other", time.Now()))
	if !errors.Is(err, service.ErrInvalidWebhookSignature) {
		t.Fatalf("expected ErrInvalidWebhookSignature, got: %v", err)
	}
}

func TestHandleEvent_TamperedPayload_Rejected(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(webhookSecret)
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{}}}`)
	header := signedHeader(payload)

	tampered := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{"amount_paid":999999}}}`)
	err := f.svc.HandleEvent(context.Background(), tampered, header)
	if !errors.Is(err, service.ErrInvalidWebhookSignature) {
		t.Fatalf("expected ErrInvalidWebhookSignature, got: %v", err)
	}
}

func TestHandleEvent_InvoicePaid_RecordsPaymentAndUpgrades(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(webhookSecret)
	f.userRepo.AddUser(&domain.User{ID: "user-1", StripeCustomerID: "cus_1", Plan: domain.PlanFree})

	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{
		"id":"in_1","customer":"cus_1","amount_paid":1999,"subscription":"sub_1"}}}`)

	if err := f.svc.HandleEvent(context.Background(), payload, signedHeader(payload)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	user := f.userRepo.GetUser("user-1")
	if user.Plan != domain.PlanPremium {
		t.Errorf("expected premium plan, got %s", user.Plan)
	}

	payment, err := f.paymentRepo.GetByInvoiceID(context.Background(), "in_1", domain.PaymentStatusSuccess)
	if err != nil || payment == nil {
		t.Fatalf("expected payment recorded for invoice, got: %v", err)
	}
	if !payment.Amount.Equal(decimal.NewFromFloat(19.99)) {
		t.Errorf("expected amount 19.99, got %s", payment.Amount)
	}
	if payment.Type != domain.PaymentTypeSubscription || payment.Flow != domain.PaymentFlowInbound {
		t.Errorf("expected inbound subscription payment, got %s/%s", payment.Type, payment.Flow)
	}
	if payment.Status != domain.PaymentStatusSuccess {
		t.Errorf("expected success, got %s", payment.Status)
	}
}

func TestHandleEvent_InvoicePaid_ReplayIgnored(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(webhookSecret)
	f.userRepo.AddUser(&domain.User{ID: "user-1", StripeCustomerID: "cus_1"})

	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{
		"id":"in_1","customer":"cus_1","amount_paid":1999,"subscription":"sub_1"}}}`)

	for i := 0; i < 3; i++ {
		if err := f.svc.HandleEvent(context.Background(), payload, signedHeader(payload)); err != nil {
			t.Fatalf("delivery %d: expected no error, got: %v", i, err)
		}
	}

	if got := atomic.LoadInt32(&f.paymentRepo.CreateCallCount); got != 1 {
		t.Errorf("expected one recorded payment across replays, got %d", got)
	}
}

func TestHandleEvent_InvoiceFailed_RecordsFailedPayment(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(webhookSecret)
	f.userRepo.AddUser(&domain.User{ID: "user-1", StripeCustomerID: "cus_1"})

	payload := []byte(`{"id":"evt_1","type":"invoice.payment_failed","data":{"object":{
		"id":"in_2","customer":"cus_1"}}}`)

	if err := f.svc.HandleEvent(context.Background(), payload, signedHeader(payload)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	payment, err := f.paymentRepo.GetByInvoiceID(context.Background(), "in_2", domain.PaymentStatusFailed)
	if err != nil || payment == nil {
		t.Fatalf("expected failed payment recorded, got: %v", err)
	}
	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("expected failed status, got %s", payment.Status)
	}
}

func TestHandleEvent_InvoiceFailedThenSucceeded_RecordsBoth(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(webhookSecret)
	f.userRepo.AddUser(&domain.User{ID: "user-1", StripeCustomerID: "cus_1", Plan: domain.PlanFree})

	// The processor retries a failed invoice: the failed attempt must not be
	// treated as a replay of the eventual success.
	failed := []byte(`{"id":"evt_1","type":"invoice.payment_failed","data":{"object":{
		"id":"in_1","customer":"cus_1"}}}`)
	succeeded := []byte(`{"id":"evt_2","type":"invoice.payment_succeeded","data":{"object":{
		"id":"in_1","customer":"cus_1","amount_paid":1999,"subscription":"sub_1"}}}`)

	if err := f.svc.HandleEvent(context.Background(), failed, signedHeader(failed)); err != nil {
		t.Fatalf("failed delivery: expected no error, got: %v", err)
	}
	if err := f.svc.HandleEvent(context.Background(), succeeded, signedHeader(succeeded)); err != nil {
		t.Fatalf("success delivery: expected no error, got: %v", err)
	}

	success, err := f.paymentRepo.GetByInvoiceID(context.Background(), "in_1", domain.PaymentStatusSuccess)
	if err != nil || success == nil {
		t.Fatalf("expected success payment recorded for retried invoice, got: %v", err)
	}
	if !success.Amount.Equal(decimal.NewFromFloat(19.99)) {
		t.Errorf("expected amount 19.99, got %s", success.Amount)
	}

	failedPayment, err := f.paymentRepo.GetByInvoiceID(context.Background(), "in_1", domain.PaymentStatusFailed)
	if err != nil || failedPayment == nil {
		t.Fatalf("expected failed attempt kept in the ledger, got: %v", err)
	}

	// Both attempts recorded, nothing more.
	if got := atomic.LoadInt32(&f.paymentRepo.CreateCallCount); got != 2 {
		t.Errorf("expected two ledger writes, got %d", got)
	}
	if got := f.userRepo.GetUser("user-1").Plan; got != domain.PlanPremium {
		t.Errorf("expected premium plan after retried success, got %s", got)
	}
}

func TestHandleEvent_CheckoutCompleted_UpgradesPlan(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(webhookSecret)
	f.userRepo.AddUser(&domain.User{ID: "user-1", StripeCustomerID: "cus_1", Plan: domain.PlanFree})

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{
		"id":"cs_1","customer":"cus_1"}}}`)

	if err := f.svc.HandleEvent(context.Background(), payload, signedHeader(payload)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got := f.userRepo.GetUser("user-1").Plan; got != domain.PlanPremium {
		t.Errorf("expected premium plan, got %s", got)
	}
}

func TestHandleEvent_SubscriptionDeleted_DowngradesPlan(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(webhookSecret)
	next := time.Now().Add(24 * time.Hour)
	f.userRepo.AddUser(&domain.User{ID: "user-1", StripeCustomerID: "cus_1", Plan: domain.PlanPremium, NextPaymentDate: &next})

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{
		"id":"sub_1","customer":"cus_1"}}}`)

	if err := f.svc.HandleEvent(context.Background(), payload, signedHeader(payload)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	user := f.userRepo.GetUser("user-1")
	if user.Plan != domain.PlanFree {
		t.Errorf("expected free plan, got %s", user.Plan)
	}
	if user.NextPaymentDate != nil {
		t.Error("expected next payment date cleared")
	}
}

func TestHandleEvent_SubscriptionDeleted_CustomerResolvedFromProcessor(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(webhookSecret)
	f.userRepo.AddUser(&domain.User{ID: "user-1", StripeCustomerID: "cus_1", Plan: domain.PlanPremium})
	f.stripeClient.Subscription = &stripe.Subscription{ID: "sub_1", Customer: "cus_1", Status: "canceled"}

	// Deletion events may omit the customer field.
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1"}}}`)

	if err := f.svc.HandleEvent(context.Background(), payload, signedHeader(payload)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got := f.userRepo.GetUser("user-1").Plan; got != domain.PlanFree {
		t.Errorf("expected free plan, got %s", got)
	}
}

func TestHandleEvent_UnknownCustomer_Acknowledged(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(webhookSecret)

	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{
		"id":"in_1","customer":"cus_nobody","amount_paid":500}}}`)

	if err := f.svc.HandleEvent(context.Background(), payload, signedHeader(payload)); err != nil {
		t.Fatalf("expected unknown customer to be acknowledged, got: %v", err)
	}
	if atomic.LoadInt32(&f.paymentRepo.CreateCallCount) != 0 {
		t.Error("expected no payment for unknown customer")
	}
}

func TestHandleEvent_UnrecognizedType_Ignored(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(webhookSecret)

	payload := []byte(`{"id":"evt_1","type":"charge.refunded","data":{"object":{}}}`)

	if err := f.svc.HandleEvent(context.Background(), payload, signedHeader(payload)); err != nil {
		t.Fatalf("expected unrecognized event to be ignored, got: %v", err)
	}
}

func TestHandleEvent_NoSecret_SkipsVerification(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture("")
	f.userRepo.AddUser(&domain.User{ID: "user-1", StripeCustomerID: "cus_1", Plan: domain.PlanFree})

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{
		"id":"cs_1","customer":"cus_1"}}}`)

	if err := f.svc.HandleEvent(context.Background(), payload, ""); err != nil {
		t.Fatalf("expected no error without secret, got: %v", err)
	}
	if got := f.userRepo.GetUser("user-1").Plan; got != domain.PlanPremium {
		t.Errorf("expected premium plan, got %s", got)
	}
}
