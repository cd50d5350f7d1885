package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Semzy1/Log-In-page-main/internal/entities"
	"github.com/Semzy1/Log-In-page-main/internal/gateway"
	"github.com/Semzy1/Log-In-page-main/pkg/trm"

	"github.com/google/uuid"
)

type PaymentRepo interface {
	// CreatePayment returns entities.ErrDuplicatePayment when a non-failed
	// payment already exists for the order.
	CreatePayment(ctx context.Context, p entities.Payment) error
	UpdatePaymentReference(ctx context.Context, paymentID, reference string) error
	GetPaymentByID(ctx context.Context, paymentID string) (entities.Payment, error)
	GetPaymentByReference(ctx context.Context, gateway, reference string) (entities.Payment, error)
	GetPaymentForUpdate(ctx context.Context, paymentID string) (entities.Payment, error)
	// CompletePaymentIfPending atomically checks and transitions, so
	// concurrent or redelivered reconciliations complete at most once.
	CompletePaymentIfPending(ctx context.Context, paymentID, gatewayTxnID string, metadata map[string]string) (bool, error)
	FailPayment(ctx context.Context, paymentID, errCode, errMsg string) (bool, error)
	AddRefund(ctx context.Context, paymentID string, refund entities.Refund, newStatus entities.PaymentStatus) error
}

type OrderStore interface {
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	MarkProcessing(ctx context.Context, orderID string) (bool, error)
}

type GatewayRegistry interface {
	Get(name string) (gateway.Adapter, error)
	ForMethod(method entities.PaymentMethod) (gateway.Adapter, error)
}

type paymentService struct {
	logger    *slog.Logger
	txManager trm.Manager
	payments  PaymentRepo
	orders    OrderStore
	gateways  GatewayRegistry
}

func NewPaymentService(
	logger *slog.Logger,
	txManager trm.Manager,
	payments PaymentRepo,
	orders OrderStore,
	gateways GatewayRegistry,
) *paymentService {
	return &paymentService{
		logger:    logger.With(slog.String("service", "payment")),
		txManager: txManager,
		payments:  payments,
		orders:    orders,
		gateways:  gateways,
	}
}

type InitiatePaymentRequest struct {
	OrderID       string
	UserID        string
	Method        entities.PaymentMethod
	CustomerEmail string
	CustomerName  string
}

type InitiatePaymentResult struct {
	Payment entities.Payment
	// Payload is the provider-specific initiation payload: checkout URL,
	// client secret or transfer instructions.
	Payload map[string]string
}

// InitiatePayment creates a new payment attempt for a pending order and asks
// the matching gateway for its initiation payload. The amount is fixed to the
// order total; a second active attempt fails with ErrDuplicatePayment.
func (s *paymentService) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (InitiatePaymentResult, error) {
	if !req.Method.Valid() {
		return InitiatePaymentResult{}, fmt.Errorf("%w: unknown payment method %q", entities.ErrInvalidTransition, req.Method)
	}

	order, err := s.orders.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return InitiatePaymentResult{}, err
	}
	if !order.OwnedBy(req.UserID) {
		return InitiatePaymentResult{}, entities.ErrForbidden
	}
	if order.Status != entities.OrderPending {
		return InitiatePaymentResult{}, fmt.Errorf("%w: order %s is %s, payment requires pending", entities.ErrInvalidTransition, order.ID, order.Status)
	}

	adapter, err := s.gateways.ForMethod(req.Method)
	if err != nil {
		return InitiatePaymentResult{}, err
	}

	status := entities.PaymentPending
	if req.Method == entities.MethodBankTransfer {
		// instruction-based methods need no gateway round trip to start
		status = entities.PaymentProcessing
	}

	payment := entities.Payment{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		UserID:    req.UserID,
		Amount:    order.Total,
		Currency:  order.Currency,
		Method:    req.Method,
		Gateway:   adapter.Name(),
		Reference: uuid.New().String(),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		return InitiatePaymentResult{}, err
	}

	result, err := adapter.Initiate(ctx, gateway.InitiateRequest{
		Reference:     payment.Reference,
		OrderID:       order.ID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
	})
	if err != nil {
		// the attempt is dead; fail it terminally so a fresh initiation is
		// not blocked by the uniqueness constraint
		if _, failErr := s.payments.FailPayment(ctx, payment.ID, "initiation_failed", err.Error()); failErr != nil {
			s.logger.ErrorContext(ctx, "failed to mark payment failed",
				slog.String("payment_id", payment.ID), slog.Any("error", failErr))
		}
		paymentsFailed.WithLabelValues(adapter.Name()).Inc()
		return InitiatePaymentResult{}, err
	}

	if result.Reference != "" && result.Reference != payment.Reference {
		if err := s.payments.UpdatePaymentReference(ctx, payment.ID, result.Reference); err != nil {
			return InitiatePaymentResult{}, err
		}
		payment.Reference = result.Reference
	}

	s.logger.InfoContext(ctx, "payment initiated",
		slog.String("payment_id", payment.ID),
		slog.String("order_id", order.ID),
		slog.String("gateway", adapter.Name()))
	paymentsInitiated.WithLabelValues(adapter.Name()).Inc()

	return InitiatePaymentResult{Payment: payment, Payload: result.Payload}, nil
}

// VerifyPayment is the synchronous reconciliation path. A gateway that cannot
// be reached leaves the payment untouched so the caller can retry; a
// definitive non-verified or under-amount result fails it.
func (s *paymentService) VerifyPayment(ctx context.Context, paymentID, requesterID string) (entities.Payment, error) {
	payment, err := s.payments.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	if !payment.OwnedBy(requesterID) {
		return entities.Payment{}, entities.ErrForbidden
	}

	if payment.Status != entities.PaymentPending && payment.Status != entities.PaymentProcessing {
		return payment, nil
	}

	adapter, err := s.gateways.Get(payment.Gateway)
	if err != nil {
		return entities.Payment{}, err
	}

	result, err := adapter.Verify(ctx, payment.Reference)
	if err != nil {
		// unavailability is not failure: state stays as it was
		return entities.Payment{}, err
	}

	switch {
	case result.Verified && result.ConfirmedAmount >= payment.Amount:
		if err := s.complete(ctx, payment, result.GatewayTxnID, result.Metadata, "verify"); err != nil {
			return entities.Payment{}, err
		}
	case result.Pending:
		return payment, nil
	default:
		msg := result.Message
		if result.Verified {
			msg = fmt.Sprintf("confirmed amount %d below payment amount %d", result.ConfirmedAmount, payment.Amount)
		}
		if _, err := s.payments.FailPayment(ctx, payment.ID, "verification_failed", msg); err != nil {
			return entities.Payment{}, err
		}
		paymentsFailed.WithLabelValues(payment.Gateway).Inc()
		s.logger.InfoContext(ctx, "payment verification failed",
			slog.String("payment_id", payment.ID), slog.String("reason", msg))
	}

	return s.payments.GetPaymentByID(ctx, payment.ID)
}

// HandleWebhook is the asynchronous reconciliation path. Signature
// verification happens before any lookup; everything after a valid signature
// is acknowledged, including duplicates and unknown references, to keep
// providers from retrying forever.
func (s *paymentService) HandleWebhook(ctx context.Context, gatewayName string, payload []byte, signature string) error {
	adapter, err := s.gateways.Get(gatewayName)
	if err != nil {
		return err
	}

	if err := adapter.VerifyWebhook(payload, signature); err != nil {
		webhooksReceived.WithLabelValues(gatewayName, "rejected").Inc()
		return err
	}

	event, err := adapter.ParseWebhook(payload)
	if err != nil {
		s.logger.WarnContext(ctx, "unparseable webhook payload",
			slog.String("gateway", gatewayName), slog.Any("error", err))
		webhooksReceived.WithLabelValues(gatewayName, "unparseable").Inc()
		return nil
	}

	if !event.Success {
		s.logger.DebugContext(ctx, "ignoring webhook event",
			slog.String("gateway", gatewayName), slog.String("type", event.Type))
		webhooksReceived.WithLabelValues(gatewayName, "ignored").Inc()
		return nil
	}

	payment, err := s.payments.GetPaymentByReference(ctx, gatewayName, event.Reference)
	if errors.Is(err, entities.ErrPaymentNotFound) {
		s.logger.WarnContext(ctx, "webhook for unknown payment",
			slog.String("gateway", gatewayName), slog.String("reference", event.Reference))
		webhooksReceived.WithLabelValues(gatewayName, "unknown").Inc()
		return nil
	}
	if err != nil {
		return err
	}

	if event.Amount > 0 && event.Amount < payment.Amount {
		s.logger.WarnContext(ctx, "webhook amount below payment amount",
			slog.String("payment_id", payment.ID),
			slog.Int64("event_amount", event.Amount),
			slog.Int64("payment_amount", payment.Amount))
		webhooksReceived.WithLabelValues(gatewayName, "underpaid").Inc()
		return nil
	}

	if err := s.complete(ctx, payment, event.GatewayTxnID, event.Metadata, "webhook"); err != nil {
		return err
	}

	webhooksReceived.WithLabelValues(gatewayName, "processed").Inc()
	return nil
}

// complete marks the payment completed and advances the order, both
// idempotently. Re-running after a partial earlier attempt still advances the
// order, so a redelivered webhook can finish what a crash interrupted.
func (s *paymentService) complete(ctx context.Context, payment entities.Payment, gatewayTxnID string, metadata map[string]string, source string) error {
	return s.txManager.Do(ctx, func(ctx context.Context) error {
		completed, err := s.payments.CompletePaymentIfPending(ctx, payment.ID, gatewayTxnID, metadata)
		if err != nil {
			return err
		}

		if _, err := s.orders.MarkProcessing(ctx, payment.OrderID); err != nil {
			return err
		}

		if completed {
			s.logger.InfoContext(ctx, "payment completed",
				slog.String("payment_id", payment.ID),
				slog.String("order_id", payment.OrderID),
				slog.String("source", source))
			paymentsCompleted.WithLabelValues(payment.Gateway, source).Inc()
		}
		return nil
	})
}

// AddRefund records a refund against a completed payment. The payment row is
// locked for the check so cumulative refunds can never exceed the amount.
func (s *paymentService) AddRefund(ctx context.Context, paymentID string, amount int64, reason, actorID string) (entities.Payment, error) {
	if amount <= 0 {
		return entities.Payment{}, fmt.Errorf("%w: refund amount must be positive", entities.ErrRefundExceeded)
	}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		payment, err := s.payments.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		refunded := payment.RefundedTotal()
		newStatus := entities.PaymentPartiallyRefunded
		if refunded+amount >= payment.Amount {
			newStatus = entities.PaymentRefunded
		}
		if !payment.Status.CanTransitionTo(newStatus) {
			return fmt.Errorf("%w: payment is %s", entities.ErrInvalidTransition, payment.Status)
		}
		if refunded+amount > payment.Amount {
			return fmt.Errorf("%w: %d refunded, %d requested, %d paid",
				entities.ErrRefundExceeded, refunded, amount, payment.Amount)
		}

		return s.payments.AddRefund(ctx, paymentID, entities.Refund{
			ID:        uuid.New().String(),
			Amount:    amount,
			Reason:    reason,
			ActorID:   actorID,
			CreatedAt: time.Now().UTC(),
		}, newStatus)
	})
	if err != nil {
		return entities.Payment{}, err
	}

	s.logger.InfoContext(ctx, "refund recorded",
		slog.String("payment_id", paymentID), slog.Int64("amount", amount))

	return s.payments.GetPaymentByID(ctx, paymentID)
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID, requesterID string, isAdmin bool) (entities.Payment, error) {
	payment, err := s.payments.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, err
	}
	if !isAdmin && !payment.OwnedBy(requesterID) {
		return entities.Payment{}, entities.ErrForbidden
	}
	return payment, nil
}
