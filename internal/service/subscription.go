package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"marketplace/internal/repository"
	"marketplace/internal/stripe"
)

// connectCountry is the country used when creating connected accounts.
// Sellers outside the US are not onboarded yet.
const connectCountry = "US"

// SubscriptionService manages processor customers, subscription checkout and
// connected-account onboarding.
type SubscriptionService struct {
	userRepo     repository.UserRepository
	stripeClient stripe.Client
	log          *logrus.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(userRepo repository.UserRepository, stripeClient stripe.Client, log *logrus.Logger) *SubscriptionService {
	return &SubscriptionService{
		userRepo:     userRepo,
		stripeClient: stripeClient,
		log:          log,
	}
}

// EnsureCustomer returns the user's processor customer id, creating the
// customer on first use.
func (s *SubscriptionService) EnsureCustomer(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidUserID
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	customer, err := s.stripeClient.CreateCustomer(ctx, stripe.CustomerParams{
		Email:    user.Email,
		Name:     user.FullName(),
		Metadata: map[string]string{"userId": user.ID},
	})
	if err != nil {
		return "", err
	}

	if err := s.userRepo.SetStripeCustomerID(ctx, user.ID, customer.ID); err != nil {
		return "", err
	}
	return customer.ID, nil
}

// StartSubscriptionRequest contains the parameters for opening a checkout
// session.
type StartSubscriptionRequest struct {
	UserID     string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// CheckoutSessionResult is the hosted page the client redirects to.
type CheckoutSessionResult struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// StartSubscription opens a subscription checkout session for the user,
// creating the processor customer first if needed.
func (s *SubscriptionService) StartSubscription(ctx context.Context, req StartSubscriptionRequest) (*CheckoutSessionResult, error) {
	customerID, err := s.EnsureCustomer(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	session, err := s.stripeClient.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		Customer:   customerID,
		PriceID:    req.PriceID,
		SuccessURL: req.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutSessionResult{URL: session.URL, ID: session.ID}, nil
}

// CancelSubscriptionResult reports the scheduled cancellation.
type CancelSubscriptionResult struct {
	ID                string `json:"id"`
	CancelAtPeriodEnd bool   `json:"cancelAtPeriodEnd"`
}

// CancelSubscription schedules the user's active subscription to end at the
// close of the current billing period. The plan downgrade itself arrives via
// the customer.subscription.deleted webhook.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, userID string) (*CancelSubscriptionResult, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.StripeCustomerID == "" {
		return nil, ErrNoActiveSubscription
	}

	subs, err := s.stripeClient.ListSubscriptions(ctx, user.StripeCustomerID, "active", 1)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrNoActiveSubscription
	}

	updated, err := s.stripeClient.CancelSubscriptionAtPeriodEnd(ctx, subs[0].ID)
	if err != nil {
		return nil, err
	}

	return &CancelSubscriptionResult{
		ID:                updated.ID,
		CancelAtPeriodEnd: updated.CancelAtPeriodEnd,
	}, nil
}

// EnsureConnectedAccount returns the user's connected account id, creating
// an express account on first use.
func (s *SubscriptionService) EnsureConnectedAccount(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidUserID
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeConnectID != "" {
		return user.StripeConnectID, nil
	}

	account, err := s.stripeClient.CreateAccount(ctx, stripe.AccountParams{
		Email:    user.Email,
		Country:  connectCountry,
		Metadata: map[string]string{"userId": user.ID},
	})
	if err != nil {
		return "", err
	}

	if err := s.userRepo.SetStripeConnectID(ctx, user.ID, account.ID); err != nil {
		return "", err
	}
	return account.ID, nil
}

// AccountLinkRequest contains the parameters for an onboarding link.
type AccountLinkRequest struct {
	UserID     string
	RefreshURL string
	ReturnURL  string
}

// CreateAccountLink returns an onboarding URL for the user's connected
// account, creating the account first if missing.
func (s *SubscriptionService) CreateAccountLink(ctx context.Context, req AccountLinkRequest) (string, error) {
	connectID, err := s.EnsureConnectedAccount(ctx, req.UserID)
	if err != nil {
		return "", err
	}

	link, err := s.stripeClient.CreateAccountLink(ctx, stripe.AccountLinkParams{
		Account:    connectID,
		RefreshURL: req.RefreshURL,
		ReturnURL:  req.ReturnURL,
	})
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

// AccountStatus summarizes a connected account's onboarding state.
type AccountStatus struct {
	IsConnected      bool     `json:"isConnected"`
	DetailsSubmitted bool     `json:"detailsSubmitted"`
	PayoutsEnabled   bool     `json:"payoutsEnabled"`
	ChargesEnabled   bool     `json:"chargesEnabled"`
	RequirementsDue  []string `json:"requirementsDue"`
}

// CheckAccountStatus reports the onboarding state of the user's connected
// account. A user without an account is reported as not connected.
func (s *SubscriptionService) CheckAccountStatus(ctx context.Context, userID string) (*AccountStatus, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.StripeConnectID == "" {
		return &AccountStatus{IsConnected: false}, nil
	}

	account, err := s.stripeClient.RetrieveAccount(ctx, user.StripeConnectID)
	if err != nil {
		return nil, err
	}

	return &AccountStatus{
		IsConnected:      true,
		DetailsSubmitted: account.DetailsSubmitted,
		PayoutsEnabled:   account.PayoutsEnabled,
		ChargesEnabled:   account.ChargesEnabled,
		RequirementsDue:  account.Requirements.CurrentlyDue,
	}, nil
}

// LinkedAccount is a bank account linked to a connected account, shaped for
// the API response.
type LinkedAccount struct {
	ID        string `json:"id"`
	BankName  string `json:"bankName"`
	Last4     string `json:"last4"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	IsDefault bool   `json:"isDefault"`
}

// GetLinkedAccounts lists the bank accounts linked to the user's connected
// account.
func (s *SubscriptionService) GetLinkedAccounts(ctx context.Context, userID string) ([]LinkedAccount, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.StripeConnectID == "" {
		return nil, ErrNoConnectedAccount
	}

	account, err := s.stripeClient.RetrieveAccount(ctx, user.StripeConnectID)
	if err != nil {
		return nil, err
	}

	accounts := make([]LinkedAccount, 0, len(account.ExternalAccounts.Data))
	for _, bank := range account.ExternalAccounts.Data {
		accounts = append(accounts, LinkedAccount{
			ID:        bank.ID,
			BankName:  bank.BankName,
			Last4:     bank.Last4,
			Currency:  bank.Currency,
			Status:    bank.Status,
			IsDefault: bank.DefaultForCurrency,
		})
	}
	return accounts, nil
}
