package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Semzy1/Log-In-page-main/internal/config"
	"github.com/Semzy1/Log-In-page-main/internal/entities"
	"github.com/Semzy1/Log-In-page-main/internal/pricing"
	"github.com/Semzy1/Log-In-page-main/pkg/trm"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type ProductStore interface {
	GetProduct(ctx context.Context, productID string) (entities.Product, error)
	// DecrementStock returns false when the conditional decrement lost to
	// concurrent orders or the tracked quantity is too low.
	DecrementStock(ctx context.Context, productID string, qty int) (bool, error)
	RestoreStock(ctx context.Context, productID string, qty int) error
}

type CartStore interface {
	ReadCart(ctx context.Context, userID string) ([]entities.CartItem, error)
	ClearCart(ctx context.Context, userID string) error
}

type OrderRepo interface {
	SaveOrder(ctx context.Context, o entities.Order) error
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	CancelOrder(ctx context.Context, orderID, reason string) (bool, error)
	SetStatus(ctx context.Context, orderID string, from, to entities.OrderStatus, trackingNumber, notes string) (bool, error)
}

type Notifier interface {
	NotifyOrderCreated(ctx context.Context, order entities.Order) error
}

const (
	productFetchConcurrency = 8
	notifyTimeout           = 5 * time.Second
)

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	orders    OrderRepo
	products  ProductStore
	carts     CartStore
	notifier  Notifier
	pricing   pricing.Config
	currency  string
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	orders OrderRepo,
	products ProductStore,
	carts CartStore,
	notifier Notifier,
	cfg config.Pricing,
) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		orders:    orders,
		products:  products,
		carts:     carts,
		notifier:  notifier,
		pricing: pricing.Config{
			FlatShippingFee:       cfg.FlatShippingFee,
			FreeShippingThreshold: cfg.FreeShippingThreshold,
		},
		currency: cfg.Currency,
	}
}

type CreateOrderRequest struct {
	UserID          string
	ShippingAddress entities.Address
	BillingAddress  *entities.Address
	PaymentMethod   entities.PaymentMethod
}

// CreateOrder turns the user's cart into a priced pending order. Every item
// is re-validated against live catalog state, tracked stock is decremented
// conditionally inside one transaction, and the whole operation aborts with
// no stock mutation if any single line fails.
func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (entities.Order, error) {
	cartItems, err := s.carts.ReadCart(ctx, req.UserID)
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(cartItems) == 0 {
		return entities.Order{}, entities.ErrEmptyCart
	}

	requested := make([]pricing.RequestedItem, len(cartItems))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(productFetchConcurrency)
	for i, item := range cartItems {
		i, item := i, item
		g.Go(func() error {
			product, err := s.products.GetProduct(gctx, item.ProductID)
			if err != nil {
				return err
			}
			requested[i] = pricing.RequestedItem{Product: product, Quantity: item.Quantity}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return entities.Order{}, err
	}

	quote, err := pricing.BuildQuote(requested, s.pricing)
	if err != nil {
		return entities.Order{}, err
	}

	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		billing = *req.BillingAddress
	}

	order := entities.Order{
		ID:            newOrderID(),
		UserID:        req.UserID,
		Items:         quote.Items,
		Subtotal:      quote.Subtotal,
		Tax:           quote.Tax,
		Shipping:      quote.Shipping,
		Total:         quote.Total,
		Currency:      s.currency,
		ShippingAddr:  req.ShippingAddress,
		BillingAddr:   billing,
		PaymentMethod: req.PaymentMethod,
		Status:        entities.OrderPending,
		CreatedAt:     time.Now().UTC(),
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.reserveStock(ctx, requested); err != nil {
			return err
		}
		if err := s.orders.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	if err := s.carts.ClearCart(ctx, req.UserID); err != nil {
		// the order exists either way; a stale cart is recoverable
		s.logger.WarnContext(ctx, "failed to clear cart",
			slog.String("user_id", req.UserID), slog.Any("error", err))
	}

	s.notifyCreated(order)

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.Int64("total", order.Total))
	ordersCreated.Inc()

	return order, nil
}

// reserveStock decrements every tracked line or none. A failed line restores
// the lines decremented before it, so the net effect matches the surrounding
// transaction's rollback.
func (s *orderService) reserveStock(ctx context.Context, items []pricing.RequestedItem) error {
	decremented := make([]pricing.RequestedItem, 0, len(items))

	for _, item := range items {
		if !item.Product.TrackQuantity {
			continue
		}
		ok, err := s.products.DecrementStock(ctx, item.Product.ID, item.Quantity)
		if err == nil && !ok {
			err = entities.ProductError(entities.ErrInsufficientStock, item.Product.ID)
		}
		if err != nil {
			for _, prev := range decremented {
				if restoreErr := s.products.RestoreStock(ctx, prev.Product.ID, prev.Quantity); restoreErr != nil {
					s.logger.ErrorContext(ctx, "failed to restore stock",
						slog.String("product_id", prev.Product.ID), slog.Any("error", restoreErr))
				}
			}
			return err
		}
		decremented = append(decremented, item)
	}
	return nil
}

// CancelOrder is permitted only to the owner while the order is still pending
// or processing. Tracked stock is restored in the same transaction.
func (s *orderService) CancelOrder(ctx context.Context, orderID, requesterID, reason string) (entities.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if !order.OwnedBy(requesterID) {
		return entities.Order{}, entities.ErrForbidden
	}
	if err := s.cancel(ctx, order, reason); err != nil {
		return entities.Order{}, err
	}

	s.logger.InfoContext(ctx, "order cancelled",
		slog.String("order_id", orderID), slog.String("user_id", requesterID))
	ordersCancelled.Inc()

	return s.orders.GetOrderByID(ctx, orderID)
}

func (s *orderService) cancel(ctx context.Context, order entities.Order, reason string) error {
	if !order.Status.CanTransitionTo(entities.OrderCancelled) {
		return fmt.Errorf("%w: %s -> %s", entities.ErrInvalidTransition, order.Status, entities.OrderCancelled)
	}

	return s.txManager.Do(ctx, func(ctx context.Context) error {
		ok, err := s.orders.CancelOrder(ctx, order.ID, reason)
		if err != nil {
			return err
		}
		if !ok {
			// the order moved on between the read and the conditional update
			return fmt.Errorf("%w: order %s is no longer cancellable", entities.ErrInvalidTransition, order.ID)
		}
		for _, item := range order.Items {
			if err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// TransitionStatus is the administrative path through the order state
// machine. Shipped/delivered timestamps are set only on first arrival;
// cancelling through this path restores stock like a user cancellation.
func (s *orderService) TransitionStatus(ctx context.Context, orderID string, next entities.OrderStatus, trackingNumber, notes string) (entities.Order, error) {
	if !next.Valid() {
		return entities.Order{}, fmt.Errorf("%w: unknown status %q", entities.ErrInvalidTransition, next)
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if next == order.Status {
		// redelivered admin update; timestamps keep their first value
		return order, nil
	}
	if !order.Status.CanTransitionTo(next) {
		return entities.Order{}, fmt.Errorf("%w: %s -> %s", entities.ErrInvalidTransition, order.Status, next)
	}

	if next == entities.OrderCancelled {
		if err := s.cancel(ctx, order, notes); err != nil {
			return entities.Order{}, err
		}
		return s.orders.GetOrderByID(ctx, orderID)
	}

	ok, err := s.orders.SetStatus(ctx, orderID, order.Status, next, trackingNumber, notes)
	if err != nil {
		return entities.Order{}, err
	}
	if !ok {
		return entities.Order{}, fmt.Errorf("%w: order %s changed concurrently", entities.ErrInvalidTransition, orderID)
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", orderID), slog.String("status", string(next)))

	return s.orders.GetOrderByID(ctx, orderID)
}

func (s *orderService) GetOrder(ctx context.Context, orderID, requesterID string, isAdmin bool) (entities.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if !isAdmin && !order.OwnedBy(requesterID) {
		return entities.Order{}, entities.ErrForbidden
	}
	return order, nil
}

// notifyCreated fires the confirmation event without blocking or failing the
// caller. The background context outlives the request.
func (s *orderService) notifyCreated(order entities.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.notifier.NotifyOrderCreated(ctx, order); err != nil {
			s.logger.Error("failed to send order notification",
				slog.String("order_id", order.ID), slog.Any("error", err))
		}
	}()
}

func newOrderID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ORD-" + strings.ToUpper(raw[:12])
}
