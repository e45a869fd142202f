// Package payment coordinates the gateway round trips of an order payment:
// creating an intent and verifying the signed result.
package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	apporder "github.com/shopline/backend/internal/application/order"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopline/backend/internal/domain/payment"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Verification outcomes reported to Metrics
const (
	OutcomeCaptured          = "captured"
	OutcomeReplay            = "replay"
	OutcomeStandalone        = "standalone"
	OutcomeSignatureMismatch = "signature_mismatch"
	OutcomeRejected          = "rejected"
	OutcomeError             = "error"
)

// Metrics records payment counters
type Metrics interface {
	apporder.EventFailureRecorder
	RecordPaymentIntent(ctx context.Context, gateway, outcome string)
	RecordPaymentVerification(ctx context.Context, gateway, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) RecordEventPublishFailure(context.Context, string)         {}
func (noopMetrics) RecordPaymentIntent(context.Context, string, string)       {}
func (noopMetrics) RecordPaymentVerification(context.Context, string, string) {}

// Service creates gateway intents and captures verified payments onto orders
type Service struct {
	gateway        payment.Gateway
	orderRepo      order.Repository
	txScope        apporder.TransactionScope
	currency       string
	eventPublisher shared.EventPublisher
	metrics        Metrics
	logger         *zap.Logger
}

// NewService creates a new payment Service
func NewService(
	gateway payment.Gateway,
	orderRepo order.Repository,
	txScope apporder.TransactionScope,
	currency string,
	logger *zap.Logger,
) *Service {
	if currency == "" {
		currency = payment.DefaultCurrency
	}
	return &Service{
		gateway:   gateway,
		orderRepo: orderRepo,
		txScope:   txScope,
		currency:  strings.ToUpper(currency),
		metrics:   noopMetrics{},
		logger:    logger,
	}
}

// SetEventPublisher sets the publisher for PaymentCaptured events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the payment metrics recorder
func (s *Service) SetMetrics(metrics Metrics) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// CreatePayment creates a gateway intent. With an order id the intent is for
// that order's total and is recorded on the order; without one it is a bare
// intent for total_amount.
func (s *Service) CreatePayment(ctx context.Context, userID uuid.UUID, req CreatePaymentRequest) (*IntentResponse, error) {
	if req.OrderID != nil {
		return s.intentForOrder(ctx, userID, *req.OrderID, req.Currency)
	}
	if req.TotalAmount == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "total amount is required")
	}

	intent, err := s.createIntent(ctx, &payment.CreateIntentRequest{
		Amount:   *req.TotalAmount,
		Currency: s.currencyOr(req.Currency),
		Receipt:  cartReceipt(userID),
		Notes:    map[string]string{"user_id": userID.String()},
	})
	if err != nil {
		return nil, err
	}
	return toIntentResponse(intent, nil), nil
}

// RetryPayment creates a fresh intent for an order still awaiting payment.
// The order's status is left unchanged; only its gateway order id is replaced.
func (s *Service) RetryPayment(ctx context.Context, userID, orderID uuid.UUID) (*IntentResponse, error) {
	return s.intentForOrder(ctx, userID, orderID, "")
}

func (s *Service) intentForOrder(ctx context.Context, userID, orderID uuid.UUID, currency string) (*IntentResponse, error) {
	o, err := s.orderRepo.FindByIDForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsAwaitingPayment() {
		return nil, order.ErrNotAwaitingPayment
	}

	intent, err := s.createIntent(ctx, &payment.CreateIntentRequest{
		Amount:   o.TotalAmount,
		Currency: s.currencyOr(currency),
		Receipt:  o.ID.String(),
		Notes:    map[string]string{"order_id": o.ID.String(), "user_id": userID.String()},
	})
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos apporder.TransactionalRepositories) error {
		locked, err := repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := locked.AttachGatewayOrder(intent.ID); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, locked)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Payment intent attached to order",
		zap.String("order_id", o.ID.String()),
		zap.String("gateway_order_id", intent.ID),
		zap.Int64("amount", intent.Amount))
	return toIntentResponse(intent, &o.ID), nil
}

func (s *Service) createIntent(ctx context.Context, req *payment.CreateIntentRequest) (*payment.Intent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	intent, err := s.gateway.CreateIntent(ctx, req)
	if err != nil {
		s.metrics.RecordPaymentIntent(ctx, s.gateway.Name(), OutcomeError)
		logger.FromContext(ctx, s.logger).Error("Failed to create payment intent",
			zap.String("gateway", s.gateway.Name()),
			zap.String("receipt", req.Receipt),
			zap.Error(err))
		return nil, err
	}
	s.metrics.RecordPaymentIntent(ctx, s.gateway.Name(), "created")
	return intent, nil
}

// VerifyPayment checks the gateway signature and captures the payment.
//
// The signature is checked before any order is read, so a tampered request
// never changes state. Capture runs with the order row locked; replaying an
// already captured payment succeeds without changes.
func (s *Service) VerifyPayment(ctx context.Context, userID uuid.UUID, req VerifyPaymentRequest) (*VerifyResult, error) {
	log := logger.FromContext(ctx, s.logger)
	v := payment.Verification{
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if err := s.gateway.VerifySignature(v); err != nil {
		if errors.Is(err, payment.ErrSignatureMismatch) {
			s.metrics.RecordPaymentVerification(ctx, s.gateway.Name(), OutcomeSignatureMismatch)
			log.Warn("Payment signature mismatch",
				zap.String("gateway_order_id", v.GatewayOrderID),
				zap.String("gateway_payment_id", v.GatewayPaymentID))
		}
		return nil, err
	}

	orderID, err := s.resolveOrder(ctx, userID, req.OrderID, v.GatewayOrderID)
	if err != nil {
		s.recordVerifyFailure(ctx, err)
		return nil, err
	}
	if orderID == nil {
		s.metrics.RecordPaymentVerification(ctx, s.gateway.Name(), OutcomeStandalone)
		log.Info("Verified payment without order", zap.String("gateway_payment_id", v.GatewayPaymentID))
		return &VerifyResult{Message: "Payment verified successfully"}, nil
	}

	var (
		captured *order.Order
		changed  bool
	)
	err = s.txScope.Execute(ctx, func(repos apporder.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByIDForUpdate(ctx, *orderID)
		if err != nil {
			return err
		}
		if !o.IsOwnedBy(userID) {
			return shared.ErrNotFound
		}
		changed, err = o.CapturePayment(v.GatewayOrderID, v.GatewayPaymentID)
		if err != nil {
			return err
		}
		if changed {
			if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
				return err
			}
		}
		captured = o
		return nil
	})
	if err != nil {
		s.recordVerifyFailure(ctx, err)
		return nil, err
	}

	if changed {
		s.metrics.RecordPaymentVerification(ctx, s.gateway.Name(), OutcomeCaptured)
		log.Info("Payment captured",
			zap.String("order_id", captured.ID.String()),
			zap.String("gateway_payment_id", v.GatewayPaymentID))
		apporder.PublishEvents(ctx, s.eventPublisher, s.metrics, s.logger, captured)
	} else {
		s.metrics.RecordPaymentVerification(ctx, s.gateway.Name(), OutcomeReplay)
		log.Info("Payment verification replayed", zap.String("order_id", captured.ID.String()))
	}

	return &VerifyResult{
		Message: "Payment verified successfully",
		OrderID: &captured.ID,
		Status:  captured.Status.String(),
	}, nil
}

// resolveOrder finds the order a verified gateway order pays for. A nil id with
// no error means the intent was created without an order.
func (s *Service) resolveOrder(ctx context.Context, userID uuid.UUID, orderID *uuid.UUID, gatewayOrderID string) (*uuid.UUID, error) {
	if orderID != nil {
		o, err := s.orderRepo.FindByIDForUser(ctx, userID, *orderID)
		if err != nil {
			return nil, err
		}
		if o.GatewayOrderID == gatewayOrderID {
			return &o.ID, nil
		}
		// The order may have been retried since, or paid through an intent
		// created before checkout; the gateway remembers what it was made for.
		intent, err := s.gateway.FetchIntent(ctx, gatewayOrderID)
		if err != nil {
			return nil, err
		}
		if intent.Amount != payment.ToMinorUnits(o.TotalAmount) {
			return nil, payment.ErrIntentMismatch
		}
		switch intent.Receipt {
		case o.ID.String():
		case cartReceipt(userID):
			if err := s.ensureIntentUnclaimed(ctx, o.ID, gatewayOrderID); err != nil {
				return nil, err
			}
		default:
			return nil, payment.ErrIntentMismatch
		}
		return &o.ID, nil
	}

	o, err := s.orderRepo.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err == nil {
		if !o.IsOwnedBy(userID) {
			return nil, shared.ErrNotFound
		}
		return &o.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	intent, err := s.gateway.FetchIntent(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	id, parseErr := uuid.Parse(intent.Receipt)
	if parseErr != nil {
		return nil, nil
	}
	o, err = s.orderRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if intent.Amount != payment.ToMinorUnits(o.TotalAmount) {
		return nil, payment.ErrIntentMismatch
	}
	return &o.ID, nil
}

// ensureIntentUnclaimed rejects a cart intent that already paid another order.
func (s *Service) ensureIntentUnclaimed(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error {
	other, err := s.orderRepo.FindByGatewayOrderID(ctx, gatewayOrderID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID != orderID {
		return payment.ErrIntentMismatch
	}
	return nil
}

// cartReceipt references an intent created before the order existed
func cartReceipt(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

func (s *Service) recordVerifyFailure(ctx context.Context, err error) {
	outcome := OutcomeError
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) || errors.Is(err, payment.ErrIntentMismatch) {
		outcome = OutcomeRejected
	}
	s.metrics.RecordPaymentVerification(ctx, s.gateway.Name(), outcome)
}

func (s *Service) currencyOr(currency string) string {
	if currency == "" {
		return s.currency
	}
	return currency
}

func toIntentResponse(intent *payment.Intent, orderID *uuid.UUID) *IntentResponse {
	return &IntentResponse{
		GatewayOrderID: intent.ID,
		Amount:         intent.Amount,
		Currency:       intent.Currency,
		KeyID:          intent.KeyID,
		OrderID:        orderID,
	}
}
