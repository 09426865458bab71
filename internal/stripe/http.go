package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.stripe.com/v1"

// HTTPClient talks to the Stripe REST API. Requests are form-encoded with
// bearer auth; connected-account calls set the Stripe-Account header.
type HTTPClient struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewHTTPClient creates a Stripe API client with the given secret key.
func NewHTTPClient(secretKey string) *HTTPClient {
	return &HTTPClient{
		secretKey: secretKey,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewHTTPClientWithBaseURL creates a client against a custom API endpoint.
// Used to point at stripe-mock or a local stub.
func NewHTTPClientWithBaseURL(secretKey, baseURL string) *HTTPClient {
	c := NewHTTPClient(secretKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// apiError is the error envelope Stripe returns for non-2xx responses.
type apiError struct {
	Err struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Error is a failed Stripe API call.
type Error struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("stripe: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("stripe: request failed with status %d", e.StatusCode)
}

func (c *HTTPClient) do(ctx context.Context, method, path, stripeAccount string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if stripeAccount != "" {
		req.Header.Set("Stripe-Account", stripeAccount)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(data, &apiErr)
		return &Error{
			StatusCode: resp.StatusCode,
			Type:       apiErr.Err.Type,
			Code:       apiErr.Err.Code,
			Message:    apiErr.Err.Message,
		}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// CreatePaymentIntent opens a charge intent with automatic payment methods.
func (c *HTTPClient) CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.Amount, 10))
	form.Set("currency", params.Currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var intent PaymentIntent
	if err := c.do(ctx, http.MethodPost, "/payment_intents", "", form, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// RetrievePaymentIntent fetches the current state of a charge intent.
func (c *HTTPClient) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := c.do(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(id), "", nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// CreateCustomer creates a processor customer.
func (c *HTTPClient) CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error) {
	form := url.Values{}
	form.Set("email", params.Email)
	form.Set("name", params.Name)
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var customer Customer
	if err := c.do(ctx, http.MethodPost, "/customers", "", form, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateAccount creates an express connected account with card payment and
// transfer capabilities.
func (c *HTTPClient) CreateAccount(ctx context.Context, params AccountParams) (*Account, error) {
	form := url.Values{}
	form.Set("type", "express")
	form.Set("country", params.Country)
	form.Set("email", params.Email)
	form.Set("capabilities[card_payments][requested]", "true")
	form.Set("capabilities[transfers][requested]", "true")
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var account Account
	if err := c.do(ctx, http.MethodPost, "/accounts", "", form, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// RetrieveAccount fetches a connected account, including external accounts.
func (c *HTTPClient) RetrieveAccount(ctx context.Context, id string) (*Account, error) {
	var account Account
	if err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(id), "", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateAccountLink creates an onboarding link for a connected account.
func (c *HTTPClient) CreateAccountLink(ctx context.Context, params AccountLinkParams) (*AccountLink, error) {
	form := url.Values{}
	form.Set("account", params.Account)
	form.Set("refresh_url", params.RefreshURL)
	form.Set("return_url", params.ReturnURL)
	form.Set("type", "account_onboarding")

	var link AccountLink
	if err := c.do(ctx, http.MethodPost, "/account_links", "", form, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// CreateCheckoutSession creates a hosted subscription checkout session.
func (c *HTTPClient) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("customer", params.Customer)
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/checkout/sessions", "", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSubscriptions lists a customer's subscriptions filtered by status.
func (c *HTTPClient) ListSubscriptions(ctx context.Context, customerID, status string, limit int) ([]*Subscription, error) {
	query := url.Values{}
	query.Set("customer", customerID)
	if status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var list struct {
		Data []*Subscription `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/subscriptions?"+query.Encode(), "", nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// RetrieveSubscription fetches a subscription by id.
func (c *HTTPClient) RetrieveSubscription(ctx context.Context, id string) (*Subscription, error) {
	var sub Subscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/"+url.PathEscape(id), "", nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscriptionAtPeriodEnd schedules a subscription to end at the close
// of the current billing period.
func (c *HTTPClient) CancelSubscriptionAtPeriodEnd(ctx context.Context, id string) (*Subscription, error) {
	form := url.Values{}
	form.Set("cancel_at_period_end", "true")

	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions/"+url.PathEscape(id), "", form, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreatePayout requests a payout to a linked bank account. The call runs on
// behalf of the connected account via the Stripe-Account header.
func (c *HTTPClient) CreatePayout(ctx context.Context, params PayoutParams) (*Payout, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.Amount, 10))
	form.Set("currency", params.Currency)
	form.Set("destination", params.Destination)

	var payout Payout
	if err := c.do(ctx, http.MethodPost, "/payouts", params.StripeAccount, form, &payout); err != nil {
		return nil, err
	}
	return &payout, nil
}

// Ensure the HTTP client satisfies the interface.
var _ Client = (*HTTPClient)(nil)
