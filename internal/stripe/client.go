package stripe

import "context"

// CreateIntentParams are the inputs for opening a payment intent.
// Amount is in the currency's smallest unit (cents).
type CreateIntentParams struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// PaymentIntent is the processor-side charge intent.
type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

// CustomerParams are the inputs for creating a processor customer.
type CustomerParams struct {
	Email    string
	Name     string
	Metadata map[string]string
}

// Customer is a processor-side customer record.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AccountParams are the inputs for creating a connected account.
type AccountParams struct {
	Email    string
	Country  string
	Metadata map[string]string
}

// BankAccount is an external account linked to a connected account.
type BankAccount struct {
	ID                 string `json:"id"`
	BankName           string `json:"bank_name"`
	Last4              string `json:"last4"`
	Currency           string `json:"currency"`
	Status             string `json:"status"`
	DefaultForCurrency bool   `json:"default_for_currency"`
}

// Account is a connected account able to receive payouts.
type Account struct {
	ID               string `json:"id"`
	DetailsSubmitted bool   `json:"details_submitted"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	Requirements     struct {
		CurrentlyDue []string `json:"currently_due"`
	} `json:"requirements"`
	ExternalAccounts struct {
		Data []BankAccount `json:"data"`
	} `json:"external_accounts"`
}

// AccountLinkParams are the inputs for an onboarding link.
type AccountLinkParams struct {
	Account    string
	RefreshURL string
	ReturnURL  string
}

// AccountLink is a one-time onboarding URL for a connected account.
type AccountLink struct {
	URL string `json:"url"`
}

// CheckoutSessionParams are the inputs for a subscription checkout session.
type CheckoutSessionParams struct {
	Customer   string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a hosted checkout page.
type CheckoutSession struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Customer string `json:"customer"`
}

// Subscription is a recurring billing agreement.
type Subscription struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

// PayoutParams are the inputs for paying out to a linked bank account on a
// connected account. Amount is in cents.
type PayoutParams struct {
	Amount        int64
	Currency      string
	Destination   string
	StripeAccount string
}

// Payout is a processor-side funds transfer to a bank account.
type Payout struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Client is the external payment processor. Implementations are injected so
// the transaction flows can be exercised against a test double.
type Client interface {
	CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)

	CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error)

	CreateAccount(ctx context.Context, params AccountParams) (*Account, error)
	RetrieveAccount(ctx context.Context, id string) (*Account, error)
	CreateAccountLink(ctx context.Context, params AccountLinkParams) (*AccountLink, error)

	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
	ListSubscriptions(ctx context.Context, customerID, status string, limit int) ([]*Subscription, error)
	RetrieveSubscription(ctx context.Context, id string) (*Subscription, error)
	CancelSubscriptionAtPeriodEnd(ctx context.Context, id string) (*Subscription, error)

	CreatePayout(ctx context.Context, params PayoutParams) (*Payout, error)
}
