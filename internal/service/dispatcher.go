package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"marketplace/internal/domain"
	"marketplace/internal/metrics"
	"marketplace/internal/repository"
)

// premiumPeriod is how far the next payment date advances on settlement.
const premiumPeriod = 30 * 24 * time.Hour

// Dispatcher applies business-entity side effects after a payment settles
// successfully. Callers must only invoke it for a payment they transitioned
// to success themselves (the status CAS), which makes each dispatch
// exactly-once.
type Dispatcher struct {
	walletRepo   repository.WalletRepository
	userRepo     repository.UserRepository
	bookingRepo  repository.BookingRepository
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	businessRepo repository.BusinessRepository
	cacheStore   CacheInvalidator
	log          *logrus.Logger
}

// CacheInvalidator is the slice of the cache store the dispatcher needs.
type CacheInvalidator interface {
	InvalidateWallet(ctx context.Context, userID string) error
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	walletRepo repository.WalletRepository,
	userRepo repository.UserRepository,
	bookingRepo repository.BookingRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	businessRepo repository.BusinessRepository,
	cacheStore CacheInvalidator,
	log *logrus.Logger,
) *Dispatcher {
	return &Dispatcher{
		walletRepo:   walletRepo,
		userRepo:     userRepo,
		bookingRepo:  bookingRepo,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		businessRepo: businessRepo,
		cacheStore:   cacheStore,
		log:          log,
	}
}

// Dispatch applies the side effect keyed by the payment's type. A missing
// target entity is logged and counted, not raised: the payment stays settled
// and operators detect the drift through the metric.
func (d *Dispatcher) Dispatch(ctx context.Context, payment *domain.Payment) error {
	switch payment.Type {
	case domain.PaymentTypeWalletTopUp:
		return d.creditWallet(ctx, payment.UserID, payment)

	case domain.PaymentTypeBooking:
		return d.dispatchBooking(ctx, payment)

	case domain.PaymentTypeProduct:
		return d.dispatchOrder(ctx, payment)

	case domain.PaymentTypeSubscription:
		return d.dispatchSubscription(ctx, payment)

	case domain.PaymentTypeWithdrawal:
		// The debit already happened when the withdrawal was requested.
		return nil

	default:
		d.log.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"type":       payment.Type,
		}).Warn("dispatch: unknown payment type")
		return nil
	}
}

func (d *Dispatcher) dispatchBooking(ctx context.Context, payment *domain.Payment) error {
	booking, err := d.bookingRepo.GetByID(ctx, payment.TypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			d.missingTarget(payment, "booking")
			return nil
		}
		return err
	}

	if err := d.bookingRepo.MarkPaid(ctx, booking.ID); err != nil {
		return err
	}

	return d.creditBusinessOwner(ctx, booking.BusinessID, payment)
}

func (d *Dispatcher) dispatchOrder(ctx context.Context, payment *domain.Payment) error {
	order, err := d.orderRepo.GetByID(ctx, payment.TypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			d.missingTarget(payment, "order")
			return nil
		}
		return err
	}

	if err := d.orderRepo.MarkPaid(ctx, order.ID); err != nil {
		return err
	}

	if err := d.productRepo.DecrementQuantity(ctx, order.ProductID, order.Quantity); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			d.missingTarget(payment, "product")
		case errors.Is(err, repository.ErrInsufficientStock):
			// The payment already settled; an oversold product is drift to
			// surface, not a reason to fail the dispatch.
			d.missingTarget(payment, "product_stock")
		default:
			return err
		}
	}

	return d.creditBusinessOwner(ctx, order.BusinessID, payment)
}

func (d *Dispatcher) dispatchSubscription(ctx context.Context, payment *domain.Payment) error {
	next := time.Now().Add(premiumPeriod)
	err := d.userRepo.UpdatePlan(ctx, payment.UserID, domain.PlanPremium, &next)
	if errors.Is(err, repository.ErrNotFound) {
		d.missingTarget(payment, "user")
		return nil
	}
	return err
}

// creditBusinessOwner moves the settled amount into the business owner's
// wallet. A vanished business is drift, not an error.
func (d *Dispatcher) creditBusinessOwner(ctx context.Context, businessID string, payment *domain.Payment) error {
	business, err := d.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			d.missingTarget(payment, "business")
			return nil
		}
		return err
	}

	return d.creditWallet(ctx, business.UserID, payment)
}

func (d *Dispatcher) creditWallet(ctx context.Context, userID string, payment *domain.Payment) error {
	if err := d.walletRepo.Credit(ctx, userID, payment.Amount); err != nil {
		return err
	}
	if d.cacheStore != nil {
		_ = d.cacheStore.InvalidateWallet(ctx, userID)
	}
	return nil
}

func (d *Dispatcher) missingTarget(payment *domain.Payment, target string) {
	d.log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"type":       payment.Type,
		"type_id":    payment.TypeID,
		"target":     target,
	}).Warn("dispatch: target entity not found, side effect skipped")
	metrics.DispatchMissingTarget.WithLabelValues(string(payment.Type)).Inc()
}
