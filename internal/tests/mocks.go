package tests

import (
	"context"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"marketplace/internal/domain"
	"marketplace/internal/redis"
	"marketplace/internal/repository"
	"marketplace/internal/stripe"
)

// testLogger returns a logger that discards all output.
func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	// Counters for verification
	CreateCallCount int32
	SettleCallCount int32

	// Error injection
	CreateError error
	SettleError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *payment
	if copy.CreatedAt.IsZero() {
		copy.CreatedAt = time.Now()
	}
	m.payments[payment.ID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByInvoiceID(ctx context.Context, invoiceID string, status domain.PaymentStatus) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.InvoiceID == invoiceID && p.Status == status {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

// Settle mirrors the conditional UPDATE: only a pending payment transitions,
// and only the winning caller sees true.
func (m *MockPaymentRepository) Settle(ctx context.Context, id string, status domain.PaymentStatus) (bool, error) {
	atomic.AddInt32(&m.SettleCallCount, 1)
	if m.SettleError != nil {
		return false, m.SettleError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return false, nil
	}
	if payment.Status != domain.PaymentStatusPending {
		return false, nil
	}
	payment.Status = status
	payment.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID string, filter repository.PaymentFilter) ([]*domain.Payment, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*domain.Payment, 0)
	for _, p := range m.payments {
		if p.UserID != userID {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.Source != "" && p.Source != filter.Source {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Flow != "" && p.Flow != filter.Flow {
			continue
		}
		copy := *p
		matched = append(matched, &copy)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= total {
		return []*domain.Payment{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// GetPayment returns the stored payment for test assertions.
func (m *MockPaymentRepository) GetPayment(id string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payments[id]
}

// ──────────────────────────────────────────────
// MOCK WALLET REPOSITORY
// ──────────────────────────────────────────────

// MockWalletRepository is a mock implementation of WalletRepository. Credit
// and Debit hold the mutex for the full check-and-mutate, matching the
// atomicity of the real single-statement updates.
type MockWalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet

	// Counters for verification
	CreditCallCount int32
	DebitCallCount  int32

	// Error injection
	CreditError error
	DebitError  error
}

// NewMockWalletRepository creates a new mock wallet repository.
func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		wallets: make(map[string]*domain.Wallet),
	}
}

// AddWallet adds a wallet to the mock repository.
func (m *MockWalletRepository) AddWallet(wallet *domain.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet.UserID] = wallet
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wallet, ok := m.wallets[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *wallet
	return &copy, nil
}

func (m *MockWalletRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet, ok := m.wallets[userID]
	if !ok {
		wallet = &domain.Wallet{
			ID:      "wallet-" + userID,
			UserID:  userID,
			Balance: decimal.Zero,
		}
		m.wallets[userID] = wallet
	}
	copy := *wallet
	return &copy, nil
}

func (m *MockWalletRepository) Credit(ctx context.Context, userID string, amount decimal.Decimal) error {
	atomic.AddInt32(&m.CreditCallCount, 1)
	if m.CreditError != nil {
		return m.CreditError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet, ok := m.wallets[userID]
	if !ok {
		wallet = &domain.Wallet{
			ID:      "wallet-" + userID,
			UserID:  userID,
			Balance: decimal.Zero,
		}
		m.wallets[userID] = wallet
	}
	wallet.Balance = wallet.Balance.Add(amount)
	return nil
}

func (m *MockWalletRepository) Debit(ctx context.Context, userID string, amount decimal.Decimal) error {
	atomic.AddInt32(&m.DebitCallCount, 1)
	if m.DebitError != nil {
		return m.DebitError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet, ok := m.wallets[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if wallet.Balance.LessThan(amount) {
		return repository.ErrInsufficientBalance
	}
	wallet.Balance = wallet.Balance.Sub(amount)
	return nil
}

// Balance returns the current balance for test assertions.
func (m *MockWalletRepository) Balance(userID string) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wallet, ok := m.wallets[userID]
	if !ok {
		return decimal.Zero
	}
	return wallet.Balance
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	UpdatePlanCallCount int32

	// Error injection
	UpdatePlanError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.StripeCustomerID == customerID {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) UpdatePlan(ctx context.Context, id string, plan domain.PaymentPlan, nextPaymentDate *time.Time) error {
	atomic.AddInt32(&m.UpdatePlanCallCount, 1)
	if m.UpdatePlanError != nil {
		return m.UpdatePlanError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Plan = plan
	user.NextPaymentDate = nextPaymentDate
	return nil
}

func (m *MockUserRepository) SetStripeCustomerID(ctx context.Context, id, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.StripeCustomerID = customerID
	return nil
}

func (m *MockUserRepository) SetStripeConnectID(ctx context.Context, id, connectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.StripeConnectID = connectID
	return nil
}

// GetUser returns the stored user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// ──────────────────────────────────────────────
// MOCK BOOKING / ORDER / PRODUCT / BUSINESS REPOSITORIES
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	MarkPaidCallCount int32
	MarkPaidError     error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) MarkPaid(ctx context.Context, id string) error {
	atomic.AddInt32(&m.MarkPaidCallCount, 1)
	if m.MarkPaidError != nil {
		return m.MarkPaidError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	booking.PaymentStatus = domain.EntityPaymentPaid
	booking.Status = domain.BookingApproved
	return nil
}

// GetBooking returns the stored booking for test assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	MarkPaidCallCount int32
	MarkPaidError     error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *order
	return &copy, nil
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, id string) error {
	atomic.AddInt32(&m.MarkPaidCallCount, 1)
	if m.MarkPaidError != nil {
		return m.MarkPaidError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	order.PaymentStatus = domain.EntityPaymentPaid
	order.Status = domain.OrderCompleted
	return nil
}

// GetOrder returns the stored order for test assertions.
func (m *MockOrderRepository) GetOrder(id string) *domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[id]
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product

	DecrementCallCount int32
	DecrementError     error
}

// NewMockProductRepository creates a new mock product repository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]*domain.Product),
	}
}

// AddProduct adds a product to the mock repository.
func (m *MockProductRepository) AddProduct(product *domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *product
	return &copy, nil
}

func (m *MockProductRepository) DecrementQuantity(ctx context.Context, id string, by int) error {
	atomic.AddInt32(&m.DecrementCallCount, 1)
	if m.DecrementError != nil {
		return m.DecrementError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if product.Quantity < by {
		return repository.ErrInsufficientStock
	}
	product.Quantity -= by
	return nil
}

// GetProduct returns the stored product for test assertions.
func (m *MockProductRepository) GetProduct(id string) *domain.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.products[id]
}

// MockBusinessRepository is a mock implementation of BusinessRepository.
type MockBusinessRepository struct {
	mu         sync.RWMutex
	businesses map[string]*domain.Business
}

// NewMockBusinessRepository creates a new mock business repository.
func NewMockBusinessRepository() *MockBusinessRepository {
	return &MockBusinessRepository{
		businesses: make(map[string]*domain.Business),
	}
}

// AddBusiness adds a business to the mock repository.
func (m *MockBusinessRepository) AddBusiness(business *domain.Business) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.businesses[business.ID] = business
}

func (m *MockBusinessRepository) GetByID(ctx context.Context, id string) (*domain.Business, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	business, ok := m.businesses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *business
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Error injection
	AcquireError error

	// ForceHeld makes every acquisition fail, simulating a lock held
	// elsewhere.
	ForceHeld bool

	AcquireCallCount int32
	ReleaseCallCount int32
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireWalletLock(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForceHeld || m.locks[userID] {
		return false, nil
	}
	m.locks[userID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseWalletLock(ctx context.Context, userID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, userID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is an in-memory implementation of CacheStoreInterface.
type MockCacheStore struct {
	mu      sync.RWMutex
	wallets map[string]*redis.CachedWallet

	SetCallCount        int32
	InvalidateCallCount int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		wallets: make(map[string]*redis.CachedWallet),
	}
}

func (m *MockCacheStore) GetWallet(ctx context.Context, userID string) (*redis.CachedWallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wallet, ok := m.wallets[userID]
	if !ok {
		return nil, nil
	}
	copy := *wallet
	return &copy, nil
}

func (m *MockCacheStore) SetWallet(ctx context.Context, wallet *redis.CachedWallet) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *wallet
	m.wallets[wallet.UserID] = &copy
	return nil
}

func (m *MockCacheStore) InvalidateWallet(ctx context.Context, userID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.wallets, userID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK STRIPE CLIENT
// ──────────────────────────────────────────────

// MockStripeClient is a configurable implementation of stripe.Client. Each
// operation returns the configured result or the injected error.
type MockStripeClient struct {
	mu sync.Mutex

	// Configured results
	Intent        *stripe.PaymentIntent
	Customer      *stripe.Customer
	Account       *stripe.Account
	Link          *stripe.AccountLink
	Session       *stripe.CheckoutSession
	Subscriptions []*stripe.Subscription
	Subscription  *stripe.Subscription
	Payout        *stripe.Payout

	// Error injection
	CreateIntentError   error
	RetrieveIntentError error
	CreatePayoutError   error
	RetrieveAcctError   error

	// Call counters
	CreateIntentCallCount   int32
	RetrieveIntentCallCount int32
	CreatePayoutCallCount   int32

	// LastPayoutParams records the most recent payout request.
	LastPayoutParams stripe.PayoutParams
}

// NewMockStripeClient creates a mock client with sane defaults.
func NewMockStripeClient() *MockStripeClient {
	return &MockStripeClient{
		Intent: &stripe.PaymentIntent{
			ID:           "pi_test",
			ClientSecret: "pi_test_secret",
			Status:       "requires_payment_method",
		},
		Customer: &stripe.Customer{ID: "cus_test"},
		Account:  &stripe.Account{ID: "acct_test", PayoutsEnabled: true},
		Link:     &stripe.AccountLink{URL: "https://connect.example/onboard"},
		Session:  &stripe.CheckoutSession{ID: "cs_test", URL: "https://checkout.example/cs_test"},
		Payout:   &stripe.Payout{ID: "po_test", Status: "pending"},
	}
}

func (m *MockStripeClient) CreatePaymentIntent(ctx context.Context, params stripe.CreateIntentParams) (*stripe.PaymentIntent, error) {
	atomic.AddInt32(&m.CreateIntentCallCount, 1)
	if m.CreateIntentError != nil {
		return nil, m.CreateIntentError
	}
	intent := *m.Intent
	intent.Amount = params.Amount
	intent.Currency = params.Currency
	intent.Metadata = params.Metadata
	return &intent, nil
}

func (m *MockStripeClient) RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	atomic.AddInt32(&m.RetrieveIntentCallCount, 1)
	if m.RetrieveIntentError != nil {
		return nil, m.RetrieveIntentError
	}
	intent := *m.Intent
	intent.ID = id
	return &intent, nil
}

func (m *MockStripeClient) CreateCustomer(ctx context.Context, params stripe.CustomerParams) (*stripe.Customer, error) {
	customer := *m.Customer
	customer.Email = params.Email
	return &customer, nil
}

func (m *MockStripeClient) CreateAccount(ctx context.Context, params stripe.AccountParams) (*stripe.Account, error) {
	account := *m.Account
	return &account, nil
}

func (m *MockStripeClient) RetrieveAccount(ctx context.Context, id string) (*stripe.Account, error) {
	if m.RetrieveAcctError != nil {
		return nil, m.RetrieveAcctError
	}
	account := *m.Account
	account.ID = id
	return &account, nil
}

func (m *MockStripeClient) CreateAccountLink(ctx context.Context, params stripe.AccountLinkParams) (*stripe.AccountLink, error) {
	link := *m.Link
	return &link, nil
}

func (m *MockStripeClient) CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	session := *m.Session
	session.Customer = params.Customer
	return &session, nil
}

func (m *MockStripeClient) ListSubscriptions(ctx context.Context, customerID, status string, limit int) ([]*stripe.Subscription, error) {
	return m.Subscriptions, nil
}

func (m *MockStripeClient) RetrieveSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	if m.Subscription == nil {
		return &stripe.Subscription{ID: id, Status: "active"}, nil
	}
	sub := *m.Subscription
	return &sub, nil
}

func (m *MockStripeClient) CancelSubscriptionAtPeriodEnd(ctx context.Context, id string) (*stripe.Subscription, error) {
	return &stripe.Subscription{ID: id, Status: "active", CancelAtPeriodEnd: true}, nil
}

func (m *MockStripeClient) CreatePayout(ctx context.Context, params stripe.PayoutParams) (*stripe.Payout, error) {
	atomic.AddInt32(&m.CreatePayoutCallCount, 1)
	m.mu.Lock()
	m.LastPayoutParams = params
	m.mu.Unlock()
	if m.CreatePayoutError != nil {
		return nil, m.CreatePayoutError
	}
	payout := *m.Payout
	return &payout, nil
}

// Ensure mocks satisfy their interfaces.
var (
	_ repository.PaymentRepository  = (*MockPaymentRepository)(nil)
	_ repository.WalletRepository   = (*MockWalletRepository)(nil)
	_ repository.UserRepository     = (*MockUserRepository)(nil)
	_ repository.BookingRepository  = (*MockBookingRepository)(nil)
	_ repository.OrderRepository    = (*MockOrderRepository)(nil)
	_ repository.ProductRepository  = (*MockProductRepository)(nil)
	_ repository.BusinessRepository = (*MockBusinessRepository)(nil)
	_ redis.LockStoreInterface      = (*MockLockStore)(nil)
	_ redis.CacheStoreInterface     = (*MockCacheStore)(nil)
	_ stripe.Client                 = (*MockStripeClient)(nil)
)
