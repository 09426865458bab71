package tests

import (
	"context"
	"errors"
	"strings"
	"testing"

	"marketplace/internal/domain"
	"marketplace/internal/service"
	"marketplace/internal/stripe"
)

// ──────────────────────────────────────────────
// CUSTOMER, SUBSCRIPTION AND CONNECT ONBOARDING
// ──────────────────────────────────────────────

type subscriptionFixture struct {
	userRepo     *MockUserRepository
	stripeClient *MockStripeClient
	svc          *service.SubscriptionService
}

func newSubscriptionFixture() *subscriptionFixture {
	f := &subscriptionFixture{
		userRepo:     NewMockUserRepository(),
		stripeClient: NewMockStripeClient(),
	}
	f.svc = service.NewSubscriptionService(f.userRepo, f.stripeClient, testLogger())
	return f
}

func TestEnsureCustomer_CreatesOnce(t *testing.T) {
	t.Parallel()

	f := newSubscriptionFixture()
	f.userRepo.AddUser(&domain.User{ID: "user-1", Email: "a@example.com", FirstName: "Ada", LastName: "L"})

	customerID, err := f.svc.EnsureCustomer(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if customerID == "" {
		t.Fatal("expected a customer id")
	}
	if got := f.userRepo.GetUser("user-1").StripeCustomerID; got != customerID {
		t.Errorf("expected customer id stored on user, got %q", got)
	}

	// A second call must reuse the stored id.
	again, err := f.svc.EnsureCustomer(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if again != customerID {
		t.Errorf("expected same customer id %q, got %q", customerID, again)
	}
}

func TestStartSubscription_AppendsSessionPlaceholder(t *testing.T) {
	t.Parallel()

	f := newSubscriptionFixture()
	f.userRepo.AddUser(&domain.User{ID: "user-1", Email: "a@example.com"})

	result, err := f.svc.StartSubscription(context.Background(), service.StartSubscriptionRequest{
		UserID:     "user-1",
		PriceID:    "price_premium",
		SuccessURL: "https://app.example.com/billing/success",
		CancelURL:  "https://app.example.com/billing",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result.URL == "" || result.ID == "" {
		t.Error("expected checkout session url and id")
	}
}

func TestCancelSubscription_SchedulesPeriodEnd(t *testing.T) {
	t.Parallel()

	f := newSubscriptionFixture()
	f.userRepo.AddUser(&domain.User{ID: "user-1", StripeCustomerID: "cus_1"})
	f.stripeClient.Subscriptions = []*stripe.Subscription{{ID: "sub_1", Customer: "cus_1", Status: "active"}}

	result, err := f.svc.CancelSubscription(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result.ID != "sub_1" {
		t.Errorf("expected sub_1, got %s", result.ID)
	}
	if !result.CancelAtPeriodEnd {
		t.Error("expected cancellation at period end")
	}
}

func TestCancelSubscription_NoActiveSubscription_Fails(t *testing.T) {
	t.Parallel()

	f := newSubscriptionFixture()
	f.userRepo.AddUser(&domain.User{ID: "user-1", StripeCustomerID: "cus_1"})
	f.userRepo.AddUser(&domain.User{ID: "user-2"})

	// Customer exists but has no active subscriptions.
	if _, err := f.svc.CancelSubscription(context.Background(), "user-1"); !errors.Is(err, service.ErrNoActiveSubscription) {
		t.Errorf("expected ErrNoActiveSubscription, got: %v", err)
	}

	// User was never a customer.
	if _, err := f.svc.CancelSubscription(context.Background(), "user-2"); !errors.Is(err, service.ErrNoActiveSubscription) {
		t.Errorf("expected ErrNoActiveSubscription, got: %v", err)
	}
}

func TestEnsureConnectedAccount_CreatesOnce(t *testing.T) {
	t.Parallel()

	f := newSubscriptionFixture()
	f.userRepo.AddUser(&domain.User{ID: "user-1", Email: "seller@example.com"})

	connectID, err := f.svc.EnsureConnectedAccount(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got := f.userRepo.GetUser("user-1").StripeConnectID; got != connectID {
		t.Errorf("expected connect id stored on user, got %q", got)
	}

	again, err := f.svc.EnsureConnectedAccount(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if again != connectID {
		t.Errorf("expected same connect id %q, got %q", connectID, again)
	}
}

func TestCreateAccountLink_ReturnsOnboardingURL(t *testing.T) {
	t.Parallel()

	f := newSubscriptionFixture()
	f.userRepo.AddUser(&domain.User{ID: "user-1", Email: "seller@example.com"})

	url, err := f.svc.CreateAccountLink(context.Background(), service.AccountLinkRequest{
		UserID:     "user-1",
		RefreshURL: "https://app.example.com/connect/refresh",
		ReturnURL:  "https://app.example.com/connect/return",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !strings.HasPrefix(url, "https://") {
		t.Errorf("expected onboarding url, got %q", url)
	}
}

func TestCheckAccountStatus_NotConnected(t *testing.T) {
	t.Parallel()

	f := newSubscriptionFixture()
	f.userRepo.AddUser(&domain.User{ID: "user-1"})

	status, err := f.svc.CheckAccountStatus(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if status.IsConnected {
		t.Error("expected not connected")
	}
}

func TestCheckAccountStatus_Connected(t *testing.T) {
	t.Parallel()

	f := newSubscriptionFixture()
	f.userRepo.AddUser(&domain.User{ID: "user-1", StripeConnectID: "acct_1"})
	f.stripeClient.Account.DetailsSubmitted = true
	f.stripeClient.Account.ChargesEnabled = true

	status, err := f.svc.CheckAccountStatus(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !status.IsConnected || !status.DetailsSubmitted || !status.PayoutsEnabled {
		t.Errorf("expected fully onboarded status, got %+v", status)
	}
}

func TestGetLinkedAccounts_ListsBankAccounts(t *testing.T) {
	t.Parallel()

	f := newSubscriptionFixture()
	f.userRepo.AddUser(&domain.User{ID: "user-1", StripeConnectID: "acct_1"})
	f.stripeClient.Account.ExternalAccounts.Data = []stripe.BankAccount{
		{ID: "ba_1", BankName: "First Bank", Last4: "4242", Currency: "usd", Status: "verified", DefaultForCurrency: true},
		{ID: "ba_2", BankName: "Second Bank", Last4: "1111", Currency: "usd"},
	}

	accounts, err := f.svc.GetLinkedAccounts(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].ID != "ba_1" || !accounts[0].IsDefault {
		t.Errorf("expected ba_1 default, got %+v", accounts[0])
	}
}

func TestGetLinkedAccounts_NoConnectedAccount_Fails(t *testing.T) {
	t.Parallel()

	f := newSubscriptionFixture()
	f.userRepo.AddUser(&domain.User{ID: "user-1"})

	if _, err := f.svc.GetLinkedAccounts(context.Background(), "user-1"); !errors.Is(err, service.ErrNoConnectedAccount) {
		t.Errorf("expected ErrNoConnectedAccount, got: %v", err)
	}
}
