package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Actor is the authenticated caller of an order operation
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

func (a Actor) role() string {
	if a.IsAdmin {
		return order.CancelledByAdmin
	}
	return order.CancelledByUser
}

// OrderService serves order queries and lifecycle changes after checkout
type OrderService struct {
	orderRepo        order.Repository
	cancellationRepo order.CancellationRepository
	txScope          TransactionScope
	eventPublisher   shared.EventPublisher
	metrics          Metrics
	logger           *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.Repository,
	cancellationRepo order.CancellationRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:        orderRepo,
		cancellationRepo: cancellationRepo,
		txScope:          txScope,
		metrics:          NoopMetrics(),
		logger:           logger,
	}
}

// SetEventPublisher sets the publisher for committed order events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *OrderService) SetMetrics(metrics Metrics) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// List returns the user's orders, newest first
func (s *OrderService) List(ctx context.Context, userID uuid.UUID, filter ListOrdersFilter) (shared.Paginated[OrderResponse], error) {
	f := order.Filter{
		Filter: shared.Filter{Page: filter.Page, PageSize: filter.PageSize, OrderBy: "created_at", OrderDir: "desc"},
		UserID: &userID,
	}
	f.Normalize()
	orders, total, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	return shared.NewPaginated(ToOrderResponses(orders), total, f.Page, f.PageSize), nil
}

// Get returns one of the user's orders with its items
func (s *OrderService) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByIDForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// AdminList returns orders of every user
func (s *OrderService) AdminList(ctx context.Context, filter AdminOrderListFilter) (shared.Paginated[OrderResponse], error) {
	f := order.Filter{
		Filter: shared.Filter{Page: filter.Page, PageSize: filter.PageSize, OrderBy: filter.OrderBy, OrderDir: filter.OrderDir},
		UserID: filter.UserID,
		Status: order.Status(filter.Status),
	}
	f.Normalize()
	orders, total, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	return shared.NewPaginated(ToOrderResponses(orders), total, f.Page, f.PageSize), nil
}

// AdminGet returns any order by id
func (s *OrderService) AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Cancel cancels an order and puts every line back into stock.
// The cancellation record, the restock and the status change commit together
// while the order row is locked. Users only see their own orders; admins may
// cancel any order.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, req CancelOrderRequest) (*CancelResult, error) {
	log := logger.FromContext(ctx, s.logger)

	var (
		cancelled *order.Order
		record    *order.CancelledOrder
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin && !o.IsOwnedBy(actor.UserID) {
			return shared.ErrNotFound
		}

		rec, err := o.Cancel(req.Reason, actor.UserID, actor.role())
		if err != nil {
			return err
		}
		if err := repos.CancellationRepo().Create(ctx, rec); err != nil {
			return err
		}

		ledger := repos.StockLedger()
		for _, item := range o.Items {
			if err := ledger.Increment(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					log.Warn("Product missing during restock",
						zap.String("order_id", o.ID.String()),
						zap.String("product_id", item.ProductID.String()))
					continue
				}
				return err
			}
		}

		if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
			return err
		}
		cancelled, record = o, rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Order cancelled",
		zap.String("order_id", cancelled.ID.String()),
		zap.String("cancelled_by", actor.UserID.String()),
		zap.String("actor_role", record.ActorRole),
		zap.String("refund_status", string(record.RefundStatus)))

	s.metrics.RecordCancellation(ctx, record.ActorRole, string(record.RefundStatus))
	PublishEvents(ctx, s.eventPublisher, s.metrics, s.logger, cancelled)

	return &CancelResult{
		Message:      "Order cancelled successfully",
		OrderID:      cancelled.ID,
		RefundStatus: string(record.RefundStatus),
	}, nil
}

// UpdateStatus advances an order along pending_payment, processing, shipped, delivered
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	var updated *order.Order
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.AdvanceTo(order.Status(req.Status)); err != nil {
			return err
		}
		if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	PublishEvents(ctx, s.eventPublisher, s.metrics, s.logger, updated)
	resp := ToOrderResponse(updated)
	return &resp, nil
}

// ListCancellations lists cancellation records, newest first
func (s *OrderService) ListCancellations(ctx context.Context, filter CancellationListFilter) (shared.Paginated[CancelledOrderResponse], error) {
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize, OrderBy: "cancelled_at", OrderDir: "desc"}
	f.Normalize()
	records, total, err := s.cancellationRepo.FindAll(ctx, f, order.RefundStatus(filter.RefundStatus))
	if err != nil {
		return shared.Paginated[CancelledOrderResponse]{}, err
	}
	items := make([]CancelledOrderResponse, len(records))
	for i := range records {
		items[i] = ToCancelledOrderResponse(&records[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// MarkRefunded settles the pending refund of a cancelled order. The record is
// locked so concurrent calls settle it once; the loser sees ErrNoRefundPending.
func (s *OrderService) MarkRefunded(ctx context.Context, orderID uuid.UUID) (*CancelledOrderResponse, error) {
	var record *order.CancelledOrder
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		locked, err := repos.CancellationRepo().FindByOrderIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := locked.MarkRefunded(); err != nil {
			return err
		}
		if err := repos.CancellationRepo().Save(ctx, locked); err != nil {
			return err
		}
		record = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx, s.logger).Info("Refund settled", zap.String("order_id", orderID.String()))
	resp := ToCancelledOrderResponse(record)
	return &resp, nil
}
