package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"marketplace/internal/domain"
	"marketplace/internal/metrics"
	internalRedis "marketplace/internal/redis"
	"marketplace/internal/repository"
	"marketplace/internal/stripe"
)

const walletLockTTL = 10 * time.Second

var centsFactor = decimal.NewFromInt(100)

// toCents converts a major-unit amount to the processor's smallest unit,
// rounding half-up the way the upstream API expects.
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(centsFactor).Round(0).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(centsFactor)
}

// TransactionService coordinates payment initiation, verification,
// withdrawals and wallet access.
type TransactionService struct {
	paymentRepo  repository.PaymentRepository
	walletRepo   repository.WalletRepository
	userRepo     repository.UserRepository
	stripeClient stripe.Client
	dispatcher   *Dispatcher
	lockStore    internalRedis.LockStoreInterface
	cacheStore   internalRedis.CacheStoreInterface
	notifier     *NotificationService
	log          *logrus.Logger
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(
	paymentRepo repository.PaymentRepository,
	walletRepo repository.WalletRepository,
	userRepo repository.UserRepository,
	stripeClient stripe.Client,
	dispatcher *Dispatcher,
	lockStore internalRedis.LockStoreInterface,
	cacheStore internalRedis.CacheStoreInterface,
	notifier *NotificationService,
	log *logrus.Logger,
) *TransactionService {
	return &TransactionService{
		paymentRepo:  paymentRepo,
		walletRepo:   walletRepo,
		userRepo:     userRepo,
		stripeClient: stripeClient,
		dispatcher:   dispatcher,
		lockStore:    lockStore,
		cacheStore:   cacheStore,
		notifier:     notifier,
		log:          log,
	}
}

// InitiatePaymentRequest contains the parameters for starting a payment.
type InitiatePaymentRequest struct {
	UserID   string
	Amount   decimal.Decimal
	Source   domain.PaymentSource
	Type     domain.PaymentType
	TypeID   string
	Flow     domain.PaymentFlow
	Currency string
}

// InitiatePaymentResult is returned to the client. ClientSecret and IntentID
// are only set for processor-backed payments.
type InitiatePaymentResult struct {
	PaymentID    string               `json:"paymentId"`
	Status       domain.PaymentStatus `json:"status"`
	ClientSecret string               `json:"clientSecret,omitempty"`
	IntentID     string               `json:"intentId,omitempty"`
}

// InitiatePayment validates the request, then either opens a charge intent
// with the processor (payment stays pending until verified) or settles
// immediately from the wallet.
func (s *TransactionService) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*InitiatePaymentResult, error) {
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if !domain.ValidType(req.Type) {
		return nil, ErrInvalidPaymentType
	}

	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	metrics.PaymentsInitiated.WithLabelValues(string(req.Source), string(req.Type)).Inc()

	switch req.Source {
	case domain.PaymentSourceStripe:
		return s.initiateStripePayment(ctx, req)
	case domain.PaymentSourceWallet:
		return s.initiateWalletPayment(ctx, req)
	default:
		return nil, ErrInvalidPaymentSource
	}
}

func (s *TransactionService) initiateStripePayment(ctx context.Context, req InitiatePaymentRequest) (*InitiatePaymentResult, error) {
	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	intent, err := s.stripeClient.CreatePaymentIntent(ctx, stripe.CreateIntentParams{
		Amount:   toCents(req.Amount),
		Currency: currency,
		Metadata: map[string]string{
			"userId": req.UserID,
			"type":   string(req.Type),
			"typeId": req.TypeID,
			"flow":   string(req.Flow),
		},
	})
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		Amount:         req.Amount,
		Source:         req.Source,
		Type:           req.Type,
		Flow:           req.Flow,
		TypeID:         req.TypeID,
		StripeIntentID: intent.ID,
		Status:         domain.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	return &InitiatePaymentResult{
		PaymentID:    payment.ID,
		Status:       domain.PaymentStatusPending,
		ClientSecret: intent.ClientSecret,
		IntentID:     intent.ID,
	}, nil
}

func (s *TransactionService) initiateWalletPayment(ctx context.Context, req InitiatePaymentRequest) (*InitiatePaymentResult, error) {
	// Topping up a wallet from the wallet itself would move money nowhere.
	if req.Type == domain.PaymentTypeWalletTopUp {
		return nil, ErrWalletTopUpFromWallet
	}

	acquired, err := s.lockStore.AcquireWalletLock(ctx, req.UserID, walletLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrWalletLocked
	}
	defer func() {
		_ = s.lockStore.ReleaseWalletLock(ctx, req.UserID)
	}()

	if err := s.walletRepo.Debit(ctx, req.UserID, req.Amount); err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}
	_ = s.cacheStore.InvalidateWallet(ctx, req.UserID)

	payment := &domain.Payment{
		ID:     uuid.New().String(),
		UserID: req.UserID,
		Amount: req.Amount,
		Source: req.Source,
		Type:   req.Type,
		Flow:   req.Flow,
		TypeID: req.TypeID,
		Status: domain.PaymentStatusSuccess,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		// The wallet was already debited; surface the error loudly so the
		// missing record can be reconciled by hand.
		s.log.WithFields(logrus.Fields{
			"user_id": req.UserID,
			"amount":  req.Amount.String(),
		}).Error("wallet debited but payment record failed")
		return nil, err
	}
	metrics.PaymentsSettled.WithLabelValues(string(payment.Type), string(payment.Status)).Inc()

	if err := s.dispatcher.Dispatch(ctx, payment); err != nil {
		return nil, err
	}
	s.notifier.NotifyPaymentSucceeded(ctx, payment)

	return &InitiatePaymentResult{
		PaymentID: payment.ID,
		Status:    domain.PaymentStatusSuccess,
	}, nil
}

// VerifyTransaction re-checks a pending processor payment. An already
// settled payment is returned unchanged; side effects run only when this
// call wins the pending->success transition.
func (s *TransactionService) VerifyTransaction(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status == domain.PaymentStatusSuccess {
		return payment, nil
	}

	if payment.Source != domain.PaymentSourceStripe || payment.StripeIntentID == "" {
		return payment, nil
	}

	intent, err := s.stripeClient.RetrievePaymentIntent(ctx, payment.StripeIntentID)
	if err != nil {
		return nil, err
	}

	switch intent.Status {
	case "succeeded":
		won, err := s.paymentRepo.Settle(ctx, payment.ID, domain.PaymentStatusSuccess)
		if err != nil {
			return nil, err
		}
		if !won {
			// Lost the pending->success race: another caller settled the
			// payment first. Report the stored status, whatever it is.
			return s.paymentRepo.GetByID(ctx, payment.ID)
		}
		payment.Status = domain.PaymentStatusSuccess
		metrics.PaymentsSettled.WithLabelValues(string(payment.Type), string(payment.Status)).Inc()
		if err := s.dispatcher.Dispatch(ctx, payment); err != nil {
			return nil, err
		}
		s.notifier.NotifyPaymentSucceeded(ctx, payment)

	case "canceled":
		won, err := s.paymentRepo.Settle(ctx, payment.ID, domain.PaymentStatusFailed)
		if err != nil {
			return nil, err
		}
		if !won {
			return s.paymentRepo.GetByID(ctx, payment.ID)
		}
		payment.Status = domain.PaymentStatusFailed
		metrics.PaymentsSettled.WithLabelValues(string(payment.Type), string(payment.Status)).Inc()
		s.notifier.NotifyPaymentFailed(ctx, payment)
	}

	return payment, nil
}

// WithdrawalRequest contains the parameters for a payout to a linked bank
// account.
type WithdrawalRequest struct {
	UserID        string
	Amount        decimal.Decimal
	BankAccountID string
	Currency      string
}

// RequestWithdrawal debits the wallet optimistically and opens a payout on
// the user's connected account. The payment stays pending until the payout
// webhook or a manual reconciliation confirms it.
func (s *TransactionService) RequestWithdrawal(ctx context.Context, req WithdrawalRequest) (*domain.Payment, error) {
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.LessThan(req.Amount) {
		return nil, ErrInsufficientBalance
	}

	if user.StripeConnectID == "" {
		return nil, ErrNoConnectedAccount
	}

	account, err := s.stripeClient.RetrieveAccount(ctx, user.StripeConnectID)
	if err != nil {
		return nil, err
	}
	linked := false
	for _, bank := range account.ExternalAccounts.Data {
		if bank.ID == req.BankAccountID {
			linked = true
			break
		}
	}
	if !linked {
		return nil, ErrBankAccountNotLinked
	}

	acquired, err := s.lockStore.AcquireWalletLock(ctx, req.UserID, walletLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrWalletLocked
	}
	defer func() {
		_ = s.lockStore.ReleaseWalletLock(ctx, req.UserID)
	}()

	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}
	payout, err := s.stripeClient.CreatePayout(ctx, stripe.PayoutParams{
		Amount:        toCents(req.Amount),
		Currency:      currency,
		Destination:   req.BankAccountID,
		StripeAccount: user.StripeConnectID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.walletRepo.Debit(ctx, req.UserID, req.Amount); err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}
	_ = s.cacheStore.InvalidateWallet(ctx, req.UserID)

	payment := &domain.Payment{
		ID:                uuid.New().String(),
		UserID:            req.UserID,
		Amount:            req.Amount,
		Source:            domain.PaymentSourceStripe,
		Type:              domain.PaymentTypeWithdrawal,
		Flow:              domain.PaymentFlowOutbound,
		TypeID:            req.BankAccountID,
		StripePayoutID:    payout.ID,
		DestinationBankID: req.BankAccountID,
		Status:            domain.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.notifier.NotifyWithdrawalInitiated(ctx, payment)
	return payment, nil
}

// GetWallet returns the user's wallet, creating it with a zero balance on
// first access. Reads go through a short-TTL cache.
func (s *TransactionService) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if cached, err := s.cacheStore.GetWallet(ctx, userID); err == nil && cached != nil {
		balance, err := decimal.NewFromString(cached.Balance)
		if err == nil {
			return &domain.Wallet{ID: cached.ID, UserID: cached.UserID, Balance: balance}, nil
		}
	}

	wallet, err := s.walletRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	_ = s.cacheStore.SetWallet(ctx, &internalRedis.CachedWallet{
		ID:      wallet.ID,
		UserID:  wallet.UserID,
		Balance: wallet.Balance.String(),
	})

	return wallet, nil
}

// ListTransactions returns the user's payments, newest first, with the total
// matching count for pagination.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string, filter repository.PaymentFilter) ([]*domain.Payment, int, error) {
	if userID == "" {
		return nil, 0, ErrInvalidUserID
	}
	return s.paymentRepo.ListByUser(ctx, userID, filter)
}
