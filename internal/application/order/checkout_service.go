package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrCartEmpty rejects checkout of a cart without lines
var ErrCartEmpty = shared.NewDomainError("CART_EMPTY", "cart is empty")

// CheckoutService turns a user's cart into an order
type CheckoutService struct {
	txScope        TransactionScope
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	eventPublisher shared.EventPublisher
	metrics        Metrics
	logger         *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(txScope TransactionScope, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		txScope:        txScope,
		idempotencyTTL: shared.DefaultIdempotencyConfig().TTL,
		metrics:        NoopMetrics(),
		logger:         logger,
	}
}

// SetIdempotencyStore enables Idempotency-Key handling
func (s *CheckoutService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetEventPublisher sets the publisher for committed order events
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *CheckoutService) SetMetrics(metrics Metrics) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// Checkout places an order from the user's cart.
//
// Stock for each line is taken with a conditional decrement. A line whose
// product no longer has enough stock is left out of the order and reported in
// SkippedItems; the cart is cleared either way.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, idempotencyKey string, req CheckoutRequest) (*CheckoutResult, error) {
	log := logger.FromContext(ctx, s.logger)

	if len(req.ShippingDetails) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "shipping details are required")
	}
	if req.TotalAmount == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "total amount is required")
	}
	if !req.TotalAmount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "total amount must be positive")
	}

	release, err := s.claimKey(ctx, userID, idempotencyKey)
	if err != nil {
		return nil, err
	}

	var (
		placed  *order.Order
		skipped []uuid.UUID
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		lines, err := repos.CartRepo().FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		o, err := order.NewOrder(userID, *req.TotalAmount, req.ShippingDetails, req.PaymentMethod)
		if err != nil {
			return err
		}

		ledger := repos.StockLedger()
		for _, line := range lines {
			if line.Product == nil {
				skipped = append(skipped, line.ProductID)
				continue
			}
			ok, err := ledger.Decrement(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				log.Warn("Skipping cart line with insufficient stock",
					zap.String("user_id", userID.String()),
					zap.String("product_id", line.ProductID.String()),
					zap.Int("quantity", line.Quantity))
				skipped = append(skipped, line.ProductID)
				continue
			}
			if _, err := o.AddItem(line.ProductID, line.Product.Name, line.Quantity, line.Product.Price); err != nil {
				return err
			}
		}

		o.Place()
		if err := repos.OrderRepo().Create(ctx, o); err != nil {
			return err
		}
		if err := repos.CartRepo().ClearForUser(ctx, userID); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		release()
		var domainErr *shared.DomainError
		if !errors.As(err, &domainErr) {
			log.Error("Checkout failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
		return nil, err
	}

	log.Info("Order placed",
		zap.String("order_id", placed.ID.String()),
		zap.String("status", placed.Status.String()),
		zap.String("payment_method", placed.PaymentMethod),
		zap.Int("lines", len(placed.Items)),
		zap.Int("skipped", len(skipped)))

	s.metrics.RecordCheckout(ctx, placed.PaymentMethod, placed.Status.String(), len(skipped))
	PublishEvents(ctx, s.eventPublisher, s.metrics, s.logger, placed)

	return &CheckoutResult{
		Message:      "Order placed successfully",
		OrderID:      placed.ID,
		Status:       placed.Status.String(),
		SkippedItems: skipped,
	}, nil
}

// claimKey records the Idempotency-Key. The returned func forgets it again so
// a request that failed can be retried with the same key.
func (s *CheckoutService) claimKey(ctx context.Context, userID uuid.UUID, key string) (func(), error) {
	if s.idempotency == nil || key == "" {
		return func() {}, nil
	}
	scoped := "checkout:" + userID.String() + ":" + key
	fresh, err := s.idempotency.MarkProcessed(ctx, scoped, s.idempotencyTTL)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return nil, shared.ErrDuplicateRequest
	}
	return func() {
		if err := s.idempotency.Release(ctx, scoped); err != nil {
			logger.FromContext(ctx, s.logger).Warn("Failed to release idempotency key",
				zap.String("key", scoped), zap.Error(err))
		}
	}, nil
}
