package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Semzy1/Log-In-page-main/internal/entities"
	"github.com/Semzy1/Log-In-page-main/internal/gateway"
	"github.com/Semzy1/Log-In-page-main/internal/middleware"
	"github.com/Semzy1/Log-In-page-main/internal/service"
	"github.com/Semzy1/Log-In-page-main/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxWebhookBody = 1 << 20

type OrderService interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (entities.Order, error)
	CancelOrder(ctx context.Context, orderID, requesterID, reason string) (entities.Order, error)
	TransitionStatus(ctx context.Context, orderID string, next entities.OrderStatus, trackingNumber, notes string) (entities.Order, error)
	GetOrder(ctx context.Context, orderID, requesterID string, isAdmin bool) (entities.Order, error)
}

type PaymentService interface {
	InitiatePayment(ctx context.Context, req service.InitiatePaymentRequest) (service.InitiatePaymentResult, error)
	VerifyPayment(ctx context.Context, paymentID, requesterID string) (entities.Payment, error)
	HandleWebhook(ctx context.Context, gatewayName string, payload []byte, signature string) error
	AddRefund(ctx context.Context, paymentID string, amount int64, reason, actorID string) (entities.Payment, error)
	GetPayment(ctx context.Context, paymentID, requesterID string, isAdmin bool) (entities.Payment, error)
}

type HTTPHandler struct {
	logger    *slog.Logger
	validate  *validator.Validate
	orders    OrderService
	payments  PaymentService
	jwtSecret string
}

func NewHTTPHandler(logger *slog.Logger, orders OrderService, payments PaymentService, jwtSecret string) *HTTPHandler {
	return &HTTPHandler{
		logger:    logger.With(slog.String("handler", "http")),
		validate:  validator.New(),
		orders:    orders,
		payments:  payments,
		jwtSecret: jwtSecret,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	// webhook transport is unauthenticated; integrity comes from the
	// per-gateway signature check
	r.Post("/webhooks/{gateway}", h.HandleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.jwtSecret))

		r.Post("/orders", h.CreateOrder)
		r.Get("/orders/{order_id}", h.GetOrder)
		r.Post("/orders/{order_id}/cancel", h.CancelOrder)

		r.Post("/payments", h.InitiatePayment)
		r.Get("/payments/{payment_id}", h.GetPayment)
		r.Post("/payments/{payment_id}/verify", h.VerifyPayment)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/admin/orders/{order_id}/status", h.TransitionStatus)
			r.Post("/admin/payments/{payment_id}/refunds", h.AddRefund)
		})
	})
}

// CreateOrder turns the caller's cart into a priced pending order.
// @Summary      Create order from cart
// @Tags         orders
// @Success      201  {object}  Order
// @Router       /orders [post]
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := middleware.IdentityFromContext(ctx)

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	svcReq := service.CreateOrderRequest{
		UserID:          identity.UserID,
		ShippingAddress: AddressJSONToEntity(req.ShippingAddress),
		PaymentMethod:   entities.PaymentMethod(req.PaymentMethod),
	}
	if req.BillingAddress != nil {
		billing := AddressJSONToEntity(*req.BillingAddress)
		svcReq.BillingAddress = &billing
	}

	order, err := h.orders.CreateOrder(ctx, svcReq)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusCreated)
}

// GetOrder returns a single order for its owner or an admin.
// @Summary      Get order
// @Tags         orders
// @Success      200  {object}  Order
// @Router       /orders/{order_id} [get]
func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := middleware.IdentityFromContext(ctx)
	orderID := chi.URLParam(r, "order_id")

	order, err := h.orders.GetOrder(ctx, orderID, identity.UserID, identity.IsAdmin())
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// CancelOrder cancels a pending or processing order and restores stock.
// @Summary      Cancel order
// @Tags         orders
// @Success      200  {object}  Order
// @Router       /orders/{order_id}/cancel [post]
func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := middleware.IdentityFromContext(ctx)
	orderID := chi.URLParam(r, "order_id")

	var req CancelOrderRequest
	if r.ContentLength > 0 {
		if err := utils.DecodeBody(r, &req); err != nil {
			utils.WriteError(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if err := h.validate.Struct(req); err != nil {
			utils.WriteValidationError(w, err)
			return
		}
	}

	order, err := h.orders.CancelOrder(ctx, orderID, identity.UserID, req.Reason)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// TransitionStatus moves an order through the admin state machine.
// @Summary      Change order status
// @Tags         admin
// @Success      200  {object}  Order
// @Router       /admin/orders/{order_id}/status [post]
func (h *HTTPHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req TransitionStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.TransitionStatus(ctx, orderID, entities.OrderStatus(req.Status), req.TrackingNumber, req.Notes)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// InitiatePayment starts a payment attempt for a pending order.
// @Summary      Initiate payment
// @Tags         payments
// @Success      201  {object}  InitiatePaymentResponse
// @Router       /payments [post]
func (h *HTTPHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := middleware.IdentityFromContext(ctx)

	var req InitiatePaymentRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	result, err := h.payments.InitiatePayment(ctx, service.InitiatePaymentRequest{
		OrderID:       req.OrderID,
		UserID:        identity.UserID,
		Method:        entities.PaymentMethod(req.Method),
		CustomerEmail: identity.Email,
		CustomerName:  identity.Name,
	})
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, InitiatePaymentResponse{
		Payment: PaymentEntityToJSON(result.Payment),
		Payload: result.Payload,
	}, http.StatusCreated)
}

// GetPayment returns a single payment for its owner or an admin.
// @Summary      Get payment
// @Tags         payments
// @Success      200  {object}  Payment
// @Router       /payments/{payment_id} [get]
func (h *HTTPHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := middleware.IdentityFromContext(ctx)
	paymentID := chi.URLParam(r, "payment_id")

	payment, err := h.payments.GetPayment(ctx, paymentID, identity.UserID, identity.IsAdmin())
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, PaymentEntityToJSON(payment), http.StatusOK)
}

// VerifyPayment reconciles a payment against its gateway synchronously.
// @Summary      Verify payment
// @Tags         payments
// @Success      200  {object}  Payment
// @Router       /payments/{payment_id}/verify [post]
func (h *HTTPHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := middleware.IdentityFromContext(ctx)
	paymentID := chi.URLParam(r, "payment_id")

	payment, err := h.payments.VerifyPayment(ctx, paymentID, identity.UserID)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, PaymentEntityToJSON(payment), http.StatusOK)
}

// AddRefund records a refund against a completed payment.
// @Summary      Refund payment
// @Tags         admin
// @Success      200  {object}  Payment
// @Router       /admin/payments/{payment_id}/refunds [post]
func (h *HTTPHandler) AddRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := middleware.IdentityFromContext(ctx)
	paymentID := chi.URLParam(r, "payment_id")

	var req RefundRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	payment, err := h.payments.AddRefund(ctx, paymentID, req.Amount, req.Reason, identity.UserID)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, PaymentEntityToJSON(payment), http.StatusOK)
}

// HandleWebhook accepts gateway callbacks. It acknowledges duplicates and
// unknown events so providers stop retrying; only signature failures are
// rejected, and without internal detail.
// @Summary      Gateway webhook
// @Tags         webhooks
// @Router       /webhooks/{gateway} [post]
func (h *HTTPHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gatewayName := chi.URLParam(r, "gateway")

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		utils.WriteError(w, "invalid payload", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(gateway.SignatureHeader(gatewayName))

	err = h.payments.HandleWebhook(ctx, gatewayName, payload, signature)
	switch {
	case errors.Is(err, entities.ErrUnknownGateway):
		utils.WriteError(w, "unknown gateway", http.StatusNotFound)
	case errors.Is(err, entities.ErrInvalidSignature):
		utils.WriteError(w, "invalid signature", http.StatusBadRequest)
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to process webhook",
			slog.String("gateway", gatewayName), slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	default:
		utils.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	}
}

func (h *HTTPHandler) writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrPaymentNotFound):
		utils.WriteError(w, "payment not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrUnknownGateway):
		utils.WriteError(w, "unknown gateway", http.StatusNotFound)
	case errors.Is(err, entities.ErrForbidden):
		utils.WriteError(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, entities.ErrEmptyCart),
		errors.Is(err, entities.ErrProductUnavailable),
		errors.Is(err, entities.ErrInsufficientStock):
		utils.WriteError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, entities.ErrInvalidTransition),
		errors.Is(err, entities.ErrDuplicatePayment),
		errors.Is(err, entities.ErrRefundExceeded),
		errors.Is(err, entities.ErrGatewayRejected):
		utils.WriteError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, entities.ErrGatewayUnavailable):
		utils.WriteError(w, "payment gateway unavailable, retry later", http.StatusBadGateway)
	default:
		h.logger.ErrorContext(ctx, "request failed", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
